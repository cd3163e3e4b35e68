package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWindow is returned by NewEngine when no window option was given.
	ErrNoWindow = errors.New("engine: no window")
	// ErrShutdownTimeout is returned by Run when the render thread does not stop in time.
	ErrShutdownTimeout = errors.New("engine: render thread did not stop before the shutdown timeout")
)

// RenderPanicError is reported when the render thread panics. It carries the recovered
// value and the stack of the panicking goroutine.
type RenderPanicError struct {
	Value any
	Stack []byte
}

func (e *RenderPanicError) Error() string {
	return fmt.Sprintf("render thread panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *RenderPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
