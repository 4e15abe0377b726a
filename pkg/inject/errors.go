package inject

import (
	"errors"
	"fmt"
)

// ErrNotRegistered matches lookups for keys with neither an instance nor a
// factory.
var ErrNotRegistered = errors.New("inject: not registered")

// NotRegisteredError is returned by Find and FindTagged.
type NotRegisteredError struct {
	Key Key
}

func (e *NotRegisteredError) Error() string {
	if e.Key.Tag != "" {
		return fmt.Sprintf("inject: %s is not registered (tag %q). Did you forget PutTagged?", e.Key.Type, e.Key.Tag)
	}
	return fmt.Sprintf("inject: %s is not registered. Did you forget Put or LazyPut?", e.Key)
}

// Is makes errors.Is(err, ErrNotRegistered) match.
func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// ConstructionError is returned when a lazy or async factory fails or
// panics. Nothing is registered when it occurs.
type ConstructionError struct {
	Key   Key
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("inject: failed to construct %s: %v", e.Key, e.Cause)
}

// Unwrap returns the factory's error.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}
