package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatcher
var (
	// ErrInvalidRegistration is returned by Register for malformed scripts
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrNotFound is returned for operations on an unknown script id
	ErrNotFound = errors.New("script not found")

	// ErrHandlerFailure matches every handler failure recorded during dispatch
	ErrHandlerFailure = errors.New("handler failure")

	// ErrCleanupFailure matches a failed cleanup action
	ErrCleanupFailure = errors.New("cleanup failure")

	// ErrEventMismatch is returned by typed handlers bound to the wrong hook
	ErrEventMismatch = errors.New("unexpected event type")
)

// HandlerError wraps a failure raised by a script's handler
type HandlerError struct {
	ScriptID ScriptID
	Script   string
	Hook     HookName
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s of script %q (id=%d) failed: %v", e.Hook, e.Script, e.ScriptID, e.Err)
}

// Unwrap returns the underlying error
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match HandlerError with ErrHandlerFailure
func (e *HandlerError) Is(target error) bool {
	return target == ErrHandlerFailure
}

// CleanupError wraps a failure raised by a script's cleanup action
type CleanupError struct {
	ScriptID ScriptID
	Script   string
	Err      error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup of script %q (id=%d) failed: %v", e.Script, e.ScriptID, e.Err)
}

// Unwrap returns the underlying error
func (e *CleanupError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match CleanupError with ErrCleanupFailure
func (e *CleanupError) Is(target error) bool {
	return target == ErrCleanupFailure
}

// PanicError wraps a recovered panic value
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRegistration, fmt.Sprintf(format, args...))
}

func notFound(id ScriptID) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
