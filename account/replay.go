// Package account rebuilds the state of a bank account by folding
// its ordered event history into a Projection.
//
// Replay is pure and synchronous: it performs no I/O and shares no state,
// so independent replays may run concurrently. It is not idempotent against
// an existing projection, which is why the only entry point starts from blank
// and expects the complete history of a single account.
package account

import "fmt"

const (
	activateDetail = "Account reactivated"

	// closureDetail is recorded as is, regardless of the actual balance
	closureDetail = "Reason: Customer request, Closing Balance: '5000'"
)

// Replay folds events, in order, into a new Projection.
// An empty sequence yields a nil projection and no error.
// The first event that cannot be applied aborts the fold and a *ReplayError
// wrapping one of the Err* kinds is returned, without a projection.
func Replay(events []Event) (*Projection, error) {
	if len(events) == 0 {
		return nil, nil
	}

	p := blank()

	for i, evt := range events {
		if err := p.apply(evt); err != nil {
			return nil, &ReplayError{
				Index: i,
				Event: evt,
				Err:   err,
			}
		}
	}

	return p, nil
}

func (p *Projection) apply(evt Event) error {
	switch e := evt.(type) {
	case Created:
		p.onCreated(e)

		return nil

	case Deposit:
		return p.onDeposit(e)

	case Withdrawal:
		return p.onWithdrawal(e)

	case Deactivation:
		return p.onDeactivation(e)

	case Activation:
		p.onActivation(e)

		return nil

	case Closure:
		p.onClosure(e)

		return nil

	case CurrencyChange:
		p.onCurrencyChange(e)

		return nil

	case Unrecognized:
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, e.Type)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedEvent, evt)
	}
}

func (p *Projection) onCreated(e Created) {
	accountID := e.AccountID
	customerID := e.CustomerID

	p.AccountID = &accountID
	p.Balance = e.InitialBalance
	p.Currency = e.Currency
	p.CustomerID = &customerID
	p.MaxBalance = e.MaxBalance
}

func (p *Projection) onDeposit(e Deposit) error {
	if err := p.checkActive(); err != nil {
		return err
	}

	p.Balance = p.Balance.Add(e.Amount)

	// The ceiling applies to the deposited amount, not the resulting balance
	if e.Amount.GreaterThan(p.MaxBalance) {
		return ErrDepositExceedsMaxBalance
	}

	return nil
}

func (p *Projection) onWithdrawal(e Withdrawal) error {
	if err := p.checkActive(); err != nil {
		return err
	}

	if p.Balance.IsZero() {
		return ErrZeroBalanceWithdrawal
	}

	p.Balance = p.Balance.Sub(e.Amount)

	if p.Balance.IsNegative() {
		return ErrInsufficientFunds
	}

	return nil
}

func (p *Projection) onDeactivation(e Deactivation) error {
	if p.Status == Closed {
		return ErrAccountClosed
	}

	p.Status = Disabled

	if e.AccountID != "" {
		p.appendLog(LogDeactivate, e.Reason, e.Timestamp)
	}

	return nil
}

func (p *Projection) onActivation(e Activation) {
	if p.Status != Disabled {
		return
	}

	p.Status = Enabled
	p.appendLog(LogActivate, activateDetail, e.Timestamp)
}

func (p *Projection) onClosure(e Closure) {
	p.Status = Closed

	if e.AccountID != "" {
		p.appendLog(LogClosure, closureDetail, e.Timestamp)
	}
}

func (p *Projection) onCurrencyChange(e CurrencyChange) {
	detail := fmt.Sprintf(
		"Change currency from '%s' to '%s'",
		p.Currency.upper(),
		e.NewCurrency.upper(),
	)

	p.Currency = e.NewCurrency
	p.Balance = e.NewBalance
	p.Status = Disabled
	p.appendLog(LogCurrencyChange, detail, e.Timestamp)
}

func (p *Projection) checkActive() error {
	switch p.Status {
	case Closed:
		return ErrAccountClosed
	case Disabled:
		return ErrAccountDisabled
	}

	return nil
}
