package adfa

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by New when the input automaton is structurally
// inconsistent. It points at a bug in the front end, not at user input.
var ErrMalformed = errors.New("malformed automaton")

// InternalError is the panic value raised when an invariant of the
// action-annotated automaton is violated.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "adfa: internal error: " + e.Msg
}

func fatalf(format string, args ...interface{}) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
}
