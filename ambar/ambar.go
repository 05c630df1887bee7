// Package ambar projects account events pushed by an Ambar data destination
// (https://docs.ambar.cloud) that streams the event store table.
package ambar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aneshas/account-eventstore"
	"github.com/relvacode/iso8601"
)

var (
	// ErrRetry is the error returned when ambar should retry delivering
	// the event. It is the default for any projection error.
	ErrRetry = errors.New("retry")

	// ErrKeepItGoing is the error returned when ambar should skip the event
	// and keep delivering the following ones
	ErrKeepItGoing = errors.New("keep it going")
)

// SuccessResp is the success response
// https://docs.ambar.cloud/#Data%20Destinations
var SuccessResp = `{
  "result": {
    "success": {}
  }
}`

// RetryResp is the retry response
// https://docs.ambar.cloud/#Data%20Destinations
var RetryResp = `{
  "result": {
    "error": {
      "policy": "must_retry",
      "class": "must retry it",
      "description": "must retry it"
    }
  }
}`

// KeepGoingResp is the keep going response
// https://docs.ambar.cloud/#Data%20Destinations
var KeepGoingResp = `{
  "result": {
    "error": {
      "policy": "keep_going",
      "class": "keep it going",
      "description": "keep it going"
    }
  }
}`

// New constructs a new Ambar projection handler
func New(dec Decoder) *Ambar {
	return &Ambar{dec: dec}
}

// Decoder is an interface for decoding events
type Decoder interface {
	Decode(*eventstore.EncodedEvt) (any, error)
}

// Ambar is a projection handler for ambar events
type Ambar struct {
	dec Decoder
}

// Req is the ambar projection request
type Req struct {
	Payload Payload `json:"payload"`
}

// Payload is the ambar projection request payload, one row of the event table
type Payload struct {
	Event              string  `json:"data"`
	Meta               *string `json:"meta"`
	ID                 string  `json:"id"`
	Sequence           uint64  `json:"sequence"`
	Type               string  `json:"type"`
	CausationEventID   *string `json:"causation_event_id"`
	CorrelationEventID *string `json:"correlation_event_id"`
	StreamID           string  `json:"stream_id"`
	StreamVersion      int     `json:"stream_version"`
	OccurredOn         string  `json:"occurred_on"`
}

// Project decodes an ambar request body and hands the event to projection.
// Malformed payloads are reported as ErrRetry. Events of a type the decoder
// does not know (without a fallback) are skipped.
func (a *Ambar) Project(_ context.Context, projection eventstore.Projection, data []byte) error {
	var req Req

	err := json.Unmarshal(data, &req)
	if err != nil {
		return fmt.Errorf("%w: decode request: %v", ErrRetry, err)
	}

	p := req.Payload

	decoded, err := a.dec.Decode(&eventstore.EncodedEvt{
		Data: p.Event,
		Type: p.Type,
	})
	if err != nil {
		if errors.Is(err, eventstore.ErrEventNotRegistered) {
			return nil
		}

		return fmt.Errorf("%w: decode event: %v", ErrRetry, err)
	}

	occurredOn, err := iso8601.ParseString(p.OccurredOn)
	if err != nil {
		return fmt.Errorf("%w: occurred on: %v", ErrRetry, err)
	}

	var meta map[string]string

	if p.Meta != nil {
		err = json.Unmarshal([]byte(*p.Meta), &meta)
		if err != nil {
			return fmt.Errorf("%w: meta: %v", ErrRetry, err)
		}
	}

	return projection(eventstore.StoredEvent{
		Event:              decoded,
		ID:                 p.ID,
		Meta:               meta,
		Sequence:           p.Sequence,
		Type:               p.Type,
		CausationEventID:   p.CausationEventID,
		CorrelationEventID: p.CorrelationEventID,
		StreamID:           p.StreamID,
		StreamVersion:      p.StreamVersion,
		OccurredOn:         occurredOn,
	})
}
