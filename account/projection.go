package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Log entry kinds
const (
	LogDeactivate     = "DEACTIVATE"
	LogActivate       = "ACTIVATE"
	LogClosure        = "CLOSURE"
	LogCurrencyChange = "CURRENCY-CHANGE"
)

// LogEntry is an audit record appended while replaying certain events
type LogEntry struct {
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Projection represents the current state of an account as derived
// from its event history
type Projection struct {
	AccountID  *string         `json:"account_id"`
	Balance    decimal.Decimal `json:"balance"`
	MaxBalance decimal.Decimal `json:"max_balance"`
	Currency   Currency        `json:"currency"`
	CustomerID *string         `json:"customer_id"`
	Status     Status          `json:"status"`
	Log        []LogEntry      `json:"log"`
}

func blank() *Projection {
	return &Projection{
		Log: []LogEntry{},
	}
}

// Clone returns a deep copy of p
func (p Projection) Clone() Projection {
	c := p

	if p.AccountID != nil {
		id := *p.AccountID
		c.AccountID = &id
	}

	if p.CustomerID != nil {
		id := *p.CustomerID
		c.CustomerID = &id
	}

	c.Log = make([]LogEntry, len(p.Log))
	copy(c.Log, p.Log)

	return c
}

func (p *Projection) appendLog(kind, detail string, ts time.Time) {
	p.Log = append(p.Log, LogEntry{
		Kind:      kind,
		Detail:    detail,
		Timestamp: ts,
	})
}
