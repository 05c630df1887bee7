// Package readmodel keeps the latest projection of every account in memory,
// fed by the event store projector or by ambar.
package readmodel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/account"
	"github.com/aneshas/account-eventstore/aggregate"
	"github.com/rs/zerolog"
)

// ErrVersionGap is returned when an event arrives ahead of the next
// expected stream version. Redelivery in order fixes it.
var ErrVersionGap = errors.New("stream version gap")

// Option configures Accounts
type Option func(*Accounts)

// WithLogger sets the read model logger (discards logs by default)
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Accounts) {
		a.logger = logger
	}
}

// NewAccounts constructs an empty accounts read model
func NewAccounts(opts ...Option) *Accounts {
	a := Accounts{
		streams: make(map[string]*stream),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&a)
	}

	return &a
}

// Accounts is a projection of every account stream.
// Every new event triggers a replay of the complete account history, because
// account.Replay must always start from blank.
// It is safe for concurrent use.
type Accounts struct {
	mu      sync.RWMutex
	streams map[string]*stream
	logger  zerolog.Logger
}

type stream struct {
	history    []account.Event
	projection *account.Projection
	failure    error
}

// Project implements eventstore.Projection.
// Only the next stream version of an account is applied. Events at or below
// the version already projected are ignored so that resubscribing from the
// start of the store is harmless, and events further ahead are rejected
// with ErrVersionGap (the account is left untouched).
// Replay failures are recorded, not returned, since replaying the same
// history again cannot fix them.
func (a *Accounts) Project(se eventstore.StoredEvent) error {
	evt, err := aggregate.Event(se)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.streams[se.StreamID]
	if !ok {
		s = &stream{}
	}

	next := len(s.history) + 1

	if se.StreamVersion < next {
		return nil
	}

	if se.StreamVersion > next {
		return fmt.Errorf("account %s: got version %d, want %d: %w", se.StreamID, se.StreamVersion, next, ErrVersionGap)
	}

	a.streams[se.StreamID] = s

	s.history = append(s.history, evt)

	p, err := account.Replay(s.history)
	if err != nil {
		s.failure = err

		a.logger.Warn().
			Err(err).
			Str("account_id", se.StreamID).
			Str("event_id", se.ID).
			Str("code", account.Code(err)).
			Msg("account replay failed, keeping last projection")

		return nil
	}

	s.projection = p
	s.failure = nil

	return nil
}

// Get returns a copy of the latest successfully replayed projection of an account
func (a *Accounts) Get(accountID string) (account.Projection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.streams[accountID]
	if !ok || s.projection == nil {
		return account.Projection{}, false
	}

	return s.projection.Clone(), true
}

// Failure returns the error of the last replay of an account, if it failed
func (a *Accounts) Failure(accountID string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.streams[accountID]
	if !ok {
		return nil
	}

	return s.failure
}
