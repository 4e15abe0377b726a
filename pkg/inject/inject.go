package inject

import (
	"context"
	"fmt"
)

// Put registers instance under contract type T and fires its OnInit.
// An instance already registered for T is replaced and disposed.
func Put[T any](r *Registry, instance T) {
	r.put(KeyOf[T](), instance)
}

// LazyPut registers a factory for T. Nothing is constructed until the first
// Find; the factory then runs once and its result is kept. Finds for T that
// arrive while the factory is running wait for its result, so the factory
// must not Find T itself.
func LazyPut[T any](r *Registry, f func() (T, error)) {
	r.lazyPut(KeyOf[T](), func() (any, error) {
		return f()
	})
}

// PutAsync runs f and registers its result under T. The caller blocks until
// f returns; T is not visible to Find or IsRegistered before that. If f
// fails, the error is returned as a *ConstructionError and nothing is
// registered. f is not started when ctx is already done.
func PutAsync[T any](ctx context.Context, r *Registry, f func(context.Context) (T, error)) error {
	return r.putAsync(ctx, KeyOf[T](), func(ctx context.Context) (any, error) {
		return f(ctx)
	})
}

// Find returns the instance registered for T, materializing it from its
// factory on first access. It fails with ErrNotRegistered when T has neither
// an instance nor a factory, and with a *ConstructionError when the factory
// fails.
func Find[T any](r *Registry) (T, error) {
	instance, err := r.find(KeyOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](instance), nil
}

// MustFind is like Find but panics on error.
// Use it during startup wiring where a missing service is a bug.
func MustFind[T any](r *Registry) T {
	instance, err := Find[T](r)
	if err != nil {
		panic(fmt.Sprintf("inject: MustFind: %v", err))
	}
	return instance
}

// Lookup is Find for optional dependencies: it reports false instead of
// failing. A failing factory is logged and also reported as false.
func Lookup[T any](r *Registry) (T, bool) {
	instance, ok := r.lookup(KeyOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return cast[T](instance), true
}

// IsRegistered reports whether T has an instance or a factory.
func IsRegistered[T any](r *Registry) bool {
	return r.isRegistered(KeyOf[T]())
}

// Delete removes T's instance, factory and memberships, firing OnDispose on
// the removed instance. Deleting an unknown type is a no-op.
func Delete[T any](r *Registry) {
	r.remove(KeyOf[T]())
}

// AutoDisposePut is Put plus membership in the group removed by DisposeAll.
func AutoDisposePut[T any](r *Registry, instance T) {
	r.putAutoDispose(KeyOf[T](), instance)
}

// PutScoped is Put plus membership in the named scope removed by
// DisposeScope.
func PutScoped[T any](r *Registry, instance T, scope string) {
	r.putScoped(KeyOf[T](), instance, scope)
}

// PutTagged registers instance under (T, tag). Tagged registrations are
// independent of Put: both can exist for the same T.
func PutTagged[T any](r *Registry, instance T, tag string) {
	r.putTagged(TaggedKeyOf[T](tag), instance)
}

// FindTagged returns the instance registered under (T, tag) or an
// ErrNotRegistered error.
func FindTagged[T any](r *Registry, tag string) (T, error) {
	instance, err := r.findTagged(TaggedKeyOf[T](tag))
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](instance), nil
}

// DeleteTagged removes (T, tag) and fires OnDispose. Unknown tags are a
// no-op.
func DeleteTagged[T any](r *Registry, tag string) {
	r.deleteTagged(TaggedKeyOf[T](tag))
}

// Override replaces T's instance for tests. It does not fire OnInit or
// OnDispose and leaves factories, auto-dispose and scope membership alone.
// A later Put for T replaces the override without disposing it. Delete,
// DisposeAll, DisposeScope and Reset still dispose it like any stored
// instance.
func Override[T any](r *Registry, instance T) {
	r.override(KeyOf[T](), instance)
}

// cast converts a stored value back to T. A nil value yields T's zero value.
func cast[T any](instance any) T {
	v, _ := instance.(T)
	return v
}
