package broker

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrNotFound      = errors.New("not found")
)

// Kind classifies gateway failures. The trading loop treats every kind as
// recoverable; startup treats every kind as fatal.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuth
	KindRateLimit
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

// Error is a gateway failure with the exchange's own status and code when known.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Code   int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		s += fmt.Sprintf(" (status %d", e.Status)
		if e.Code != 0 {
			s += fmt.Sprintf(", code %d", e.Code)
		}
		s += ")"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimit }

func IsRejected(err error) bool { return KindOf(err) == KindRejected }
