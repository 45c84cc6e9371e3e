// Package statemachine implements the payment lifecycle's transition
// relation as a pure, stateless function over domain.State values.
package statemachine

import (
	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// transitions is the transition table. A state absent from the map
// (SUCCESS, FAILURE) has no allowed targets.
var transitions = map[domain.State][]domain.State{
	domain.StateInitiated:     {domain.StateAuthenticated, domain.StateFailure},
	domain.StateAuthenticated: {domain.StateProcessing, domain.StateFailure},
	domain.StateProcessing:    {domain.StateSuccess, domain.StateFailure},
}

func init() {
	selfVerify()
}

// IsValid reports whether the transition from -> to is in the table.
func IsValid(from, to domain.State) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// ValidNextStates returns the set of states reachable from from in a
// single transition. The returned slice is never mutated by callers;
// it aliases the table's backing array.
func ValidNextStates(from domain.State) []domain.State {
	return transitions[from]
}

// Validate fails with TerminalStateViolation when from is terminal,
// or InvalidStateTransition when the move isn't in the table.
func Validate(from, to domain.State) error {
	if from.IsTerminal() {
		return errors.ErrTerminalStateViolation.WithDetails("from", string(from)).WithDetails("to", string(to))
	}
	if !IsValid(from, to) {
		return errors.ErrInvalidStateTransition.WithDetails("from", string(from)).WithDetails("to", string(to))
	}
	return nil
}

// CompareAndSwap validates the from->to move only if expected matches
// actual, modelling the version-guarded write the repository performs.
// It fails with ConcurrentModification on a version mismatch so the
// caller can distinguish a stale read from an invalid transition.
func CompareAndSwap(expected, actual int, from, to domain.State) error {
	if expected != actual {
		return errors.ErrConcurrentModification.WithDetails("expectedVersion", expected).WithDetails("actualVersion", actual)
	}
	return Validate(from, to)
}

// selfVerify confirms, at package init, that every state is reachable
// from INITIATED and that terminal states have empty successor sets.
// It panics on failure because a broken transition table is a build
// defect, not a runtime condition any caller can recover from.
func selfVerify() {
	reachable := map[domain.State]bool{domain.StateInitiated: true}
	queue := []domain.State{domain.StateInitiated}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range transitions[s] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}
	all := []domain.State{
		domain.StateInitiated, domain.StateAuthenticated, domain.StateProcessing,
		domain.StateSuccess, domain.StateFailure,
	}
	for _, s := range all {
		if !reachable[s] {
			panic("statemachine: state " + string(s) + " is unreachable from INITIATED")
		}
	}
	for _, terminal := range []domain.State{domain.StateSuccess, domain.StateFailure} {
		if len(transitions[terminal]) != 0 {
			panic("statemachine: terminal state " + string(terminal) + " has outgoing transitions")
		}
	}
}
