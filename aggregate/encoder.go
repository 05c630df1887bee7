package aggregate

import (
	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/account"
)

// NewEncoder returns a json encoder registered with every account event.
// Stored types it does not know decode to account.Unrecognized, so replay
// reports them as unsupported instead of the read failing.
func NewEncoder() *eventstore.JSONEncoder {
	events := account.Events()

	types := make([]any, len(events))

	for i, evt := range events {
		types[i] = evt
	}

	return eventstore.NewJSONEncoder(types...).WithFallback(
		func(evt *eventstore.EncodedEvt) (any, error) {
			return account.Unrecognized{
				Type: evt.Type,
				Data: evt.Data,
			}, nil
		},
	)
}
