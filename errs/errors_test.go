package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// withCapturedFatal overrides FatalFunc for the duration of a test so
// InvariantErrorf/CapabilityErrorf can be exercised without killing the
// test binary, restoring the real klog.Fatal-backed default afterward.
func withCapturedFatal(t *testing.T) *[]interface{} {
	t.Helper()
	var captured []interface{}
	prev := FatalFunc
	FatalFunc = func(args ...interface{}) {
		captured = append(captured, args...)
	}
	t.Cleanup(func() { FatalFunc = prev })
	return &captured
}

func TestInvariantErrorf_CapturesKindAndInvokesFatalFunc(t *testing.T) {
	captured := withCapturedFatal(t)

	err := InvariantErrorf("PartitionTensor", "expected %d partitions, got %d", 3, 2)

	assert.True(t, Is(err, InvariantViolation))
	assert.Len(t, *captured, 1)
	assert.Same(t, err, (*captured)[0])
}

func TestCapabilityErrorf_WrapsCause(t *testing.T) {
	withCapturedFatal(t)
	cause := errors.New("network unreachable")

	err := CapabilityErrorf("Push", cause)

	assert.True(t, Is(err, CapabilityFailure))
	assert.ErrorIs(t, err, cause)
}

func TestIs_FalseForWrongKind(t *testing.T) {
	withCapturedFatal(t)
	err := InvariantErrorf("op", "boom")
	assert.False(t, Is(err, CapabilityFailure))
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), InvariantViolation))
}

func TestUninitializedf_DoesNotInvokeFatalFunc(t *testing.T) {
	captured := withCapturedFatal(t)
	err := Uninitializedf("GetContext", "no context registered under %q", "grad/x")
	assert.True(t, Is(err, Uninitialized))
	assert.Empty(t, *captured, "Uninitialized is a returned error, not a fatal condition")
}
