package rx

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by [First] when the sequence completes without
// emitting a value.
var ErrEmpty = errors.New("rx: sequence is empty")

// errNilSource reports a factory or handler that produced a nil
// observable at subscribe time, which cannot be caught at construction.
var errNilSource = errors.New("returned a nil observable")

// OpError attributes a failure to the operator that caught it. Every
// error produced by a user callback, whether returned or recovered from
// a panic, reaches the observer wrapped in an OpError naming the
// operator, so a long chain stays debuggable.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("rx: %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// OpOf extracts the operator name from the first [*OpError] in err's
// chain. Returns false if no OpError is found.
func OpOf(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Op, true
	}
	return "", false
}

// CauseOf unwraps the first [*OpError] in err's chain and returns its
// underlying cause. If err is not an OpError, it is returned as-is.
// Returns nil if err is nil.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Err
	}

	return err
}

// IsPanic reports whether err (or any error in its chain) is a
// [*PanicError], i.e. whether the failure started life as a panic in a
// user callback.
func IsPanic(err error) bool {
	if err == nil {
		return false
	}
	var pe *PanicError
	return errors.As(err, &pe)
}

// guarded runs fn on behalf of the operator named op, converting a
// returned error or a recovered panic into an [*OpError].
func guarded(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &OpError{Op: op, Err: newPanicError(r)}
		}
	}()
	if e := fn(); e != nil {
		return &OpError{Op: op, Err: e}
	}
	return nil
}
