package position

import (
	"time"

	"github.com/shopspring/decimal"
)

type State int

const (
	Idle State = iota
	Entering
	Open
	Exiting
	Closed
	Halted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Entering:
		return "entering"
	case Open:
		return "open"
	case Exiting:
		return "exiting"
	case Closed:
		return "closed"
	case Halted:
		return "halted"
	}
	return "unknown"
}

// Position is the single holding the manager owns. A re-entry replaces it.
type Position struct {
	ID           string
	Symbol       string
	Qty          decimal.Decimal
	EntryPrice   decimal.Decimal
	TakeProfit   decimal.Decimal
	StopLoss     decimal.Decimal
	EntryOrderID string
	OpenedAt     time.Time
}

// Outcome is what a single Tick did.
type Outcome int

const (
	Holding Outcome = iota
	NoPrice
	TakeProfitExit
	StopLossExit
	ExitFailed
	Flat
	Reentered
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case Holding:
		return "holding"
	case NoPrice:
		return "no_price"
	case TakeProfitExit:
		return "take_profit"
	case StopLossExit:
		return "stop_loss"
	case ExitFailed:
		return "exit_failed"
	case Flat:
		return "flat"
	case Reentered:
		return "reentered"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// FatalError ends a session before it starts trading.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *FatalError) Unwrap() error { return e.Err }

// Report is the session summary returned by Run.
type Report struct {
	Symbol            string
	State             State
	ConsecutiveLosses int
	RoundTrips        int
	Wins              int
	Losses            int
	RealizedPnL       decimal.Decimal
	Position          *Position
}
