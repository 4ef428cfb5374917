package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
var (
	// ErrConstructionFailed matches every *ConstructionError.
	ErrConstructionFailed = errors.New("construction failed")

	// ErrReentrantInitialization indicates a constructor tried to resolve
	// the key it is building.
	ErrReentrantInitialization = errors.New("reentrant initialization")

	// ErrNilConstructor indicates GetOrCreate was called with a nil constructor
	// for a key that has no published instance.
	ErrNilConstructor = errors.New("constructor cannot be nil")

	// ErrNilContext indicates GetOrCreate was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrTypeMismatch indicates Resolve found an instance of another type.
	ErrTypeMismatch = errors.New("instance type mismatch")
)

// ConstructionError reports a constructor that returned an error or panicked.
// Nothing was published for Key.
type ConstructionError struct {
	// Key is the formatted key whose construction failed.
	Key string
	// AttemptID identifies the failed constructor invocation.
	AttemptID string
	// Err is the constructor's error, or a *PanicError.
	Err error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s: %v", e.Key, e.Err)
}

// Unwrap returns the constructor's error for errors.Is/As support.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConstructionFailed.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstructionFailed
}

// ReentrantError reports a constructor that called GetOrCreate for its own key.
type ReentrantError struct {
	// Key is the formatted key being constructed.
	Key string
}

// Error implements the error interface.
func (e *ReentrantError) Error() string {
	return fmt.Sprintf("reentrant initialization of %s", e.Key)
}

// Unwrap returns ErrReentrantInitialization for errors.Is support.
func (e *ReentrantError) Unwrap() error {
	return ErrReentrantInitialization
}

// PanicError captures a panic raised by a constructor.
// It includes the stack trace for debugging.
type PanicError struct {
	// Key is the formatted key whose constructor panicked.
	Key string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("constructor for %s panicked: %v", e.Key, e.Value)
}

// TypeMismatchError reports a published instance whose type differs from the
// type requested through Resolve.
type TypeMismatchError struct {
	Key  string
	Want string
	Got  string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("instance %s is %s, not %s", e.Key, e.Got, e.Want)
}

// Unwrap returns ErrTypeMismatch for errors.Is support.
func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
