// Package errs defines the error taxonomy of the gradient-synchronization
// control plane: Uninitialized, InvariantViolation, CapabilityFailure and
// ShutdownInProgress, matching the policy described for the scheduler core.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Kind classifies an Error so callers can branch with errors.As without
// string matching.
type Kind string

const (
	// Uninitialized is returned when an API is called before init() or
	// before the addressed tensor's context has been registered.
	Uninitialized Kind = "uninitialized"

	// InvariantViolation marks a programmer error in the framework binding:
	// size mismatch, key-count mismatch, partitioner accounting error.
	// Fatal.
	InvariantViolation Kind = "invariant_violation"

	// CapabilityFailure marks a non-recoverable error reported by an
	// underlying collective, copy or network capability. Fatal.
	CapabilityFailure Kind = "capability_failure"

	// ShutdownInProgress classifies an Enqueue made after shutdown has been
	// signalled. EnqueueTensor does not check for shutdown and does not
	// return this kind: a task enqueued after Shutdown is appended to a
	// closed queue, never dispatched, and its callback never fires.
	ShutdownInProgress Kind = "shutdown_in_progress"
)

// Error wraps a Kind with the failing operation and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func newf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(fmt.Errorf(format, args...))}
}

// Uninitializedf builds an Uninitialized error.
func Uninitializedf(op, format string, args ...interface{}) *Error {
	return newf(Uninitialized, op, format, args...)
}

// ShutdownInProgressf builds a ShutdownInProgress error.
func ShutdownInProgressf(op, format string, args ...interface{}) *Error {
	return newf(ShutdownInProgress, op, format, args...)
}

// FatalFunc aborts the process. It defaults to klog.Fatal so that
// InvariantViolation/CapabilityFailure behave as assertion-style
// terminations, matching the reference implementation's BPS_CHECK macros.
// Tests override it to assert on fatal conditions without killing the test
// binary.
var FatalFunc = func(args ...interface{}) { klog.Fatal(args...) }

// Invariant raises an InvariantViolation as a fatal, assertion-style
// termination: programmer error in the framework binding is not recoverable.
func Invariant(op string, format string, args ...interface{}) {
	FatalFunc(newf(InvariantViolation, op, format, args...))
}

// InvariantErrorf raises an InvariantViolation the same way Invariant does,
// and also returns the *Error so a caller with an error-returning signature
// can propagate it upward after FatalFunc returns (real deployments never
// reach the return; tests override FatalFunc to assert on it instead of
// killing the process).
func InvariantErrorf(op string, format string, args ...interface{}) *Error {
	err := newf(InvariantViolation, op, format, args...)
	FatalFunc(err)
	return err
}

// Capability raises a CapabilityFailure as a fatal termination: the
// controller is expected to restart the job, the core does not retry.
func Capability(op string, cause error) {
	FatalFunc(&Error{Kind: CapabilityFailure, Op: op, Err: errors.WithStack(cause)})
}

// CapabilityErrorf raises a CapabilityFailure the same way Capability does,
// and also returns the *Error for callers that need to propagate it.
func CapabilityErrorf(op string, cause error) *Error {
	err := &Error{Kind: CapabilityFailure, Op: op, Err: errors.WithStack(cause)}
	FatalFunc(err)
	return err
}
