// Package testutil builds ambar request payloads for tests
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/aneshas/account-eventstore/account"
	"github.com/aneshas/account-eventstore/ambar"
	"github.com/shopspring/decimal"
)

// Event is an instance of an account event
var Event = account.Deposit{
	Amount: decimal.NewFromInt(200),
}

// AmbarPayload is a test payload carrying Event
var AmbarPayload = ambar.Payload{
	Event:              EventData(Event),
	Meta:               nil,
	ID:                 "event-id",
	Sequence:           1,
	Type:               "Deposit",
	CausationEventID:   nil,
	CorrelationEventID: nil,
	StreamID:           "acc-1",
	StreamVersion:      1,
	OccurredOn:         "2024-10-12T20:07:22.436271+00",
}

// EventData marshals evt the way the event store saves it
func EventData(evt any) string {
	data, err := json.Marshal(evt)
	if err != nil {
		panic(err)
	}

	return string(data)
}

// Payload creates a request body for testing
func Payload(t *testing.T, p ambar.Payload) []byte {
	t.Helper()

	data, err := json.Marshal(ambar.Req{
		Payload: p,
	})
	if err != nil {
		t.Fatal(err)
	}

	return data
}
