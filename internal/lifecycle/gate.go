package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnvalidatedChange is returned by writers handed a zero Change.
	ErrUnvalidatedChange = errors.New("status change was not validated")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	Kind    Kind
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Kind, e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Change is a status change that has passed the table check. Only
// Table.Transition constructs a valid one, so persistence code that accepts
// a Change cannot be handed an unchecked status.
type Change struct {
	kind  Kind
	from  Status
	to    Status
	valid bool
}

func (c Change) Kind() Kind      { return c.kind }
func (c Change) From() Status    { return c.from }
func (c Change) To() Status      { return c.to }
func (c Change) Validated() bool { return c.valid }

// Verify returns ErrUnvalidatedChange for a zero Change.
func (c Change) Verify() error {
	if !c.valid {
		return ErrUnvalidatedChange
	}
	return nil
}

// Transition checks from -> to and returns the accepted Change or a
// *TransitionError.
func (t *Table) Transition(from, to Status) (Change, error) {
	if !IsValidTransition(t, from, to) {
		return Change{}, &TransitionError{
			Kind:    t.Kind(),
			From:    from,
			To:      to,
			Allowed: AllowedTransitions(t, from),
		}
	}
	return Change{kind: t.kind, from: from, to: to, valid: true}, nil
}
