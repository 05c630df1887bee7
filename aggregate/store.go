// Package aggregate loads account projections from the event store by
// replaying their streams and appends new account events to them.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/account"
	"github.com/rs/zerolog"
)

// ErrAggregateNotFound is returned when there are no events recorded for an account
var ErrAggregateNotFound = errors.New("aggregate not found")

// EventStore represents event store
type EventStore interface {
	AppendStream(ctx context.Context, id string, version int, events []eventstore.EventToStore) error
	ReadStream(ctx context.Context, id string) ([]eventstore.StoredEvent, error)
}

// Account is a replayed account projection together with the stream
// version it was replayed at
type Account struct {
	account.Projection

	// Version is the number of events replayed and the expected version
	// for the next Append
	Version int
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger (discards logs by default)
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore constructs new event sourced account store
func NewStore(eventStore EventStore, opts ...Option) *Store {
	s := Store{
		eventStore: eventStore,
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// Store represents event sourced account store
type Store struct {
	eventStore EventStore
	logger     zerolog.Logger
}

// Load reads the account stream and replays it from blank.
// ErrAggregateNotFound is returned for an unknown account and replay
// failures are returned wrapped, keeping the account error kind.
func (s *Store) Load(ctx context.Context, accountID string) (*Account, error) {
	stored, err := s.eventStore.ReadStream(ctx, accountID)
	if err != nil {
		if errors.Is(err, eventstore.ErrStreamNotFound) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrAggregateNotFound)
		}

		return nil, err
	}

	events, err := Events(stored)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", accountID, err)
	}

	p, err := account.Replay(events)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("account_id", accountID).
			Str("code", account.Code(err)).
			Msg("account replay failed")

		return nil, fmt.Errorf("account %s: %w", accountID, err)
	}

	if p == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrAggregateNotFound)
	}

	return &Account{
		Projection: *p,
		Version:    len(events),
	}, nil
}

// Append records events in the account stream. expectedVersion is the
// Version of the last Load (or eventstore.InitialStreamVersion for a new account).
// Causation, correlation and meta data are picked up from ctx.
func (s *Store) Append(ctx context.Context, accountID string, expectedVersion int, events ...account.Event) error {
	if len(events) == 0 {
		return nil
	}

	toStore := make([]eventstore.EventToStore, len(events))

	for i, evt := range events {
		toStore[i] = eventstore.EventToStore{
			Event: evt,

			// Optional - set through context
			CausationEventID:   causationIDFromCtx(ctx),
			CorrelationEventID: correlationIDFromCtx(ctx),
			Meta:               metaFromCtx(ctx),
		}
	}

	err := s.eventStore.AppendStream(ctx, accountID, expectedVersion, toStore)
	if err != nil {
		return fmt.Errorf("account %s: %w", accountID, err)
	}

	s.logger.Debug().
		Str("account_id", accountID).
		Int("version", expectedVersion+len(events)).
		Msg("account events appended")

	return nil
}

// Events unwraps stored events into account events, in order
func Events(stored []eventstore.StoredEvent) ([]account.Event, error) {
	events := make([]account.Event, len(stored))

	for i, se := range stored {
		evt, err := Event(se)
		if err != nil {
			return nil, err
		}

		events[i] = evt
	}

	return events, nil
}

// Event unwraps a single stored event into an account event
func Event(se eventstore.StoredEvent) (account.Event, error) {
	evt, ok := se.Event.(account.Event)
	if !ok {
		return nil, fmt.Errorf("stored event %s (%s) is not an account event", se.ID, se.Type)
	}

	return evt, nil
}
