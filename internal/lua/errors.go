package lua

import "errors"

var (
	// ErrNilRuntime is returned when a nil runtime is passed to a function that requires one.
	ErrNilRuntime = errors.New("runtime cannot be nil")

	// ErrNoCanvas is returned by drawing functions called outside a draw hook.
	ErrNoCanvas = errors.New("no canvas bound (drawing is only valid inside gravisim_draw)")

	// ErrResourceLimit is returned when a script exceeds its CPU or memory limit.
	ErrResourceLimit = errors.New("lua resource limit exceeded")

	// ErrFunctionNotFound is returned when calling a global that is not defined.
	ErrFunctionNotFound = errors.New("lua function not found")
)
