package inject

import "reflect"

// Initializer is implemented by instances that want to know when they
// become available in the registry. OnInit fires once, synchronously, when
// the instance is registered or materialized from a factory.
type Initializer interface {
	OnInit()
}

// Disposer is implemented by instances that hold resources. OnDispose fires
// once, synchronously, when the instance leaves the registry.
//
// Example:
//
//	type Socket struct{ conn net.Conn }
//	func (s *Socket) OnDispose() { s.conn.Close() }
type Disposer interface {
	OnDispose()
}

// Injectable is the full lifecycle capability. Both halves are optional;
// the registry checks for each one separately.
type Injectable interface {
	Initializer
	Disposer
}

func initialize(instance any) {
	if i, ok := instance.(Initializer); ok {
		i.OnInit()
	}
}

func dispose(instance any) {
	if d, ok := instance.(Disposer); ok {
		d.OnDispose()
	}
}

// sameInstance reports whether a and b are the same value. Values of
// non-comparable types are never considered the same.
func sameInstance(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}
