package shared

import "fmt"

// Transitions is a state-machine table mapping a state to the states it may
// move to. Order workflows validate every status change against one table
// instead of re-implementing checks per endpoint.
type Transitions map[string][]string

// Allowed reports whether the table permits moving from one state to another.
func (t Transitions) Allowed(from, to string) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidTransition with both states named when the move is
// not permitted.
func (t Transitions) Check(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: already %s", ErrInvalidTransition, to)
	}
	if !t.Allowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
