package account

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedEvent is returned for an event type replay does not handle
	ErrUnsupportedEvent = errors.New("event not supported")

	// ErrAccountClosed is returned when a guarded event is applied to a closed account
	ErrAccountClosed = errors.New("account closed")

	// ErrAccountDisabled is returned when money is moved on a disabled account
	ErrAccountDisabled = errors.New("account disabled")

	// ErrDepositExceedsMaxBalance is returned when a single deposit amount
	// is greater than the account max balance
	ErrDepositExceedsMaxBalance = errors.New("deposit exceeds max balance")

	// ErrZeroBalanceWithdrawal is returned when withdrawing from an account
	// with zero balance
	ErrZeroBalanceWithdrawal = errors.New("withdrawal from zero balance")

	// ErrInsufficientFunds is returned when a withdrawal would leave the balance negative
	ErrInsufficientFunds = errors.New("insufficient funds")
)

var codes = map[error]string{
	ErrUnsupportedEvent:         "162",
	ErrAccountDisabled:          "344",
	ErrDepositExceedsMaxBalance: "281",
	ErrZeroBalanceWithdrawal:    "128",
	ErrInsufficientFunds:        "285",
}

// ReplayError is returned by Replay and identifies the first event
// that could not be applied
type ReplayError struct {
	// Index is the 0-based position of Event in the replayed sequence
	Index int
	Event Event
	Err   error
}

// Error implements error
func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay event %d (%T): %v", e.Index, e.Event, e.Err)
}

// Unwrap returns the failure kind
func (e *ReplayError) Unwrap() error { return e.Err }

// Code returns the legacy numeric failure code of err, or an empty string
// if err carries no known failure kind or the kind has no code
func Code(err error) string {
	for kind, code := range codes {
		if errors.Is(err, kind) {
			return code
		}
	}

	return ""
}
