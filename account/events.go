package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a replayable account event.
// The set of implementations is closed: only types in this package satisfy it.
type Event interface {
	accountEvent()
}

// Created domain event indicates that a new account has been opened
type Created struct {
	AccountID      string          `json:"account_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	MaxBalance     decimal.Decimal `json:"max_balance"`
	Currency       Currency        `json:"currency"`
	CustomerID     string          `json:"customer_id"`
}

// Deposit domain event indicates that money has been deposited
type Deposit struct {
	Amount decimal.Decimal `json:"amount"`
}

// Withdrawal domain event indicates that money has been withdrawn
type Withdrawal struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deactivation domain event indicates that the account has been disabled
type Deactivation struct {
	AccountID string    `json:"account_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Activation domain event indicates that a disabled account has been re-enabled
type Activation struct {
	Timestamp time.Time `json:"timestamp"`
}

// Closure domain event indicates that the account has been closed
type Closure struct {
	AccountID string    `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CurrencyChange domain event indicates that the account has been converted
// to a different currency
type CurrencyChange struct {
	NewCurrency Currency        `json:"new_currency"`
	NewBalance  decimal.Decimal `json:"new_balance"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Unrecognized stands in for a recorded event whose type this package
// does not know. Replay always rejects it with ErrUnsupportedEvent.
type Unrecognized struct {
	Type string
	Data string
}

func (Created) accountEvent()        {}
func (Deposit) accountEvent()        {}
func (Withdrawal) accountEvent()     {}
func (Deactivation) accountEvent()   {}
func (Activation) accountEvent()     {}
func (Closure) accountEvent()        {}
func (CurrencyChange) accountEvent() {}
func (Unrecognized) accountEvent()   {}

// Events returns a zero value of every known event type
func Events() []Event {
	return []Event{
		Created{},
		Deposit{},
		Withdrawal{},
		Deactivation{},
		Activation{},
		Closure{},
		CurrencyChange{},
	}
}
