package reactive

import (
	"errors"
	"fmt"
)

// ErrNestedRun is returned by Tracker.Run when another tracked run is
// already active. The body is not executed.
var ErrNestedRun = errors.New("reactive: tracked run started while another run is active")

// ErrViewDisposed is returned by View.Render after Dispose.
var ErrViewDisposed = errors.New("reactive: view disposed")

// SubscriberError describes a subscriber that panicked during Observable.Set.
// It is reported to the tracker's error handler; Set itself never fails.
type SubscriberError struct {
	ObserverID uint64
	Value      any
	Stack      []byte
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("reactive: subscriber %d panicked: %v", e.ObserverID, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *SubscriberError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PanicError wraps a panic recovered from a View's render function.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reactive: render panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
