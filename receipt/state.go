// Package receipt implements the receipt state machine (C5):
// Checking -> AwaitingReserve -> Reserved | Failed. Go has no tagged
// unions, so illegal transitions are made unrepresentable by guarding each
// transition method on the receiver's current State and always returning a
// new value rather than mutating in place.
package receipt

import (
	"fmt"

	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
)

// State is one of the four states a receipt can occupy over its lifetime.
type State int

const (
	// Checking is the initial state on ingest.
	Checking State = iota
	// AwaitingReserve is reached once every pipeline check has passed.
	AwaitingReserve
	// Reserved is reached once escrow has been debited and the record
	// persisted, atomically.
	Reserved
	// Failed is terminal; the record is retained for audit but excluded
	// from any RAV.
	Failed
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case AwaitingReserve:
		return "awaiting_reserve"
	case Reserved:
		return "reserved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// WithState pairs a signed receipt with its current state, the names of
// the checks it has passed so far, and (once Failed) the error that
// rejected it.
type WithState struct {
	// ID is assigned by the receipt store on first Store call; zero until
	// then.
	ID uint64

	Receipt *tap.SignedReceipt
	State   State

	// PassedChecks names every check that succeeded, in pipeline order.
	PassedChecks []string

	// Err is set once State == Failed.
	Err error
}

// NewChecking wraps a freshly ingested signed receipt in the initial
// Checking state.
func NewChecking(sr *tap.SignedReceipt) *WithState {
	return &WithState{Receipt: sr, State: Checking}
}

// clone returns a shallow copy of w, the basis for every transition method
// below — transitions never mutate the receiver in place.
func (w *WithState) clone() *WithState {
	cp := *w
	cp.PassedChecks = append([]string(nil), w.PassedChecks...)
	return &cp
}

// ToAwaitingReserve transitions Checking -> AwaitingReserve. Valid only
// when every pipeline check has returned success; passedChecks names them
// in the order they ran.
func (w *WithState) ToAwaitingReserve(passedChecks []string) (*WithState, error) {
	if w.State != Checking {
		return nil, fmt.Errorf("%w: %s -> awaiting_reserve", taperr.ErrIllegalStateTransition, w.State)
	}
	next := w.clone()
	next.State = AwaitingReserve
	next.PassedChecks = append([]string(nil), passedChecks...)
	return next, nil
}

// ToReserved transitions AwaitingReserve -> Reserved. The manager pairs
// this with escrow.TrySubtract and the receipt store write as one logical
// atomic step (spec.md §4.5); WithState itself only enforces that the
// transition is legal.
func (w *WithState) ToReserved() (*WithState, error) {
	if w.State != AwaitingReserve {
		return nil, fmt.Errorf("%w: %s -> reserved", taperr.ErrIllegalStateTransition, w.State)
	}
	next := w.clone()
	next.State = Reserved
	return next, nil
}

// ToFailed transitions Checking or AwaitingReserve -> Failed, recording
// err. Failed is terminal: calling ToFailed again, or any other
// transition, on an already-Failed value is an illegal transition.
func (w *WithState) ToFailed(err error) (*WithState, error) {
	if w.State != Checking && w.State != AwaitingReserve {
		return nil, fmt.Errorf("%w: %s -> failed", taperr.ErrIllegalStateTransition, w.State)
	}
	next := w.clone()
	next.State = Failed
	next.Err = err
	return next, nil
}
