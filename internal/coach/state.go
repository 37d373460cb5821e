package coach

import (
	"context"
	"errors"

	"github.com/MrWong99/podium/internal/resilience"
	"github.com/MrWong99/podium/pkg/provider/llm"
)

// State is a step of the provider state machine.
type State int

const (
	StatePrimary State = iota
	StateSecondary
	StateLocal
	StateDone
	StateFailed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StatePrimary:
		return "primary"
	case StateSecondary:
		return "secondary"
	case StateLocal:
		return "local"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the machine.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// next returns the state that follows s after a tier attempt ended with
// err. parent is the request context; its cancellation is never treated as
// a provider problem.
func next(parent context.Context, s State, err error) State {
	switch s {
	case StatePrimary:
		switch {
		case err == nil:
			return StateDone
		case parent.Err() != nil:
			return StateFailed
		case fallsThrough(err):
			return StateSecondary
		default:
			return StateFailed
		}
	case StateSecondary:
		if err == nil {
			return StateDone
		}
		if parent.Err() != nil {
			return StateFailed
		}
		return StateLocal
	case StateLocal:
		return StateDone
	default:
		return s
	}
}

// fallsThrough reports whether a primary failure moves on to the secondary
// provider: quota exhaustion, an open breaker or the per-call timeout.
func fallsThrough(err error) bool {
	return llm.IsQuota(err) ||
		errors.Is(err, resilience.ErrCircuitOpen) ||
		errors.Is(err, context.DeadlineExceeded)
}

// errorKind labels a provider error for metrics.
func errorKind(err error) string {
	switch {
	case llm.IsQuota(err):
		return "quota"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
