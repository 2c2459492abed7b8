package movement

import (
	"fmt"
)

// InvariantError reports a physics handle that no longer resolves. It is
// raised with panic: the caller's entity bookkeeping is out of sync with the
// engine and there is nothing to recover.
type InvariantError struct {
	Op     string
	Handle fmt.Stringer
	Cause  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("movement: %s %s: %v", e.Op, e.Handle, e.Cause)
}

func (e *InvariantError) Unwrap() error {
	return e.Cause
}

func invariant(op string, handle fmt.Stringer, cause error) {
	panic(&InvariantError{Op: op, Handle: handle, Cause: cause})
}
