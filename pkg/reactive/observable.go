package reactive

import (
	"reflect"
	"sync"
)

// source provides type-erased subscriber management.
// It is embedded in Observable[T] so the Tracker can unsubscribe observers
// without knowing the value type.
type source struct {
	id uint64

	// subs are the observers subscribed to this observable.
	subs []Observer

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds an observer, deduplicating by ID.
func (s *source) subscribe(o Observer) {
	if o == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	oid := o.ID()
	for _, existing := range s.subs {
		if existing.ID() == oid {
			return
		}
	}

	s.subs = append(s.subs, o)
}

// unsubscribe removes an observer. Removing an absent observer is a no-op.
func (s *source) unsubscribe(o Observer) {
	if o == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	oid := o.ID()
	for i, existing := range s.subs {
		if existing.ID() == oid {
			// Swap with last, order doesn't matter
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs[len(s.subs)-1] = nil
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// snapshot copies the current subscribers so that notification is stable
// even if subscribers mutate the set while being notified.
func (s *source) snapshot() []Observer {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	subs := make([]Observer, len(s.subs))
	copy(subs, s.subs)
	return subs
}

func (s *source) clear() {
	s.subMu.Lock()
	s.subs = nil
	s.subMu.Unlock()
}

func (s *source) count() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// Observable is a reactive value container.
// Reading it with Get inside a Tracker.Run subscribes the running observer;
// Set notifies every subscriber when the value actually changes.
type Observable[T any] struct {
	base source

	tracker *Tracker

	// value is the current value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a Set changes the value.
	// If nil, defaultEquals is used.
	equal func(T, T) bool
}

// NewObservable creates an observable bound to tracker.
// A nil tracker yields a cell whose reads are never tracked.
func NewObservable[T any](tracker *Tracker, initial T) *Observable[T] {
	return &Observable[T]{
		base:    source{id: nextID()},
		tracker: tracker,
		value:   initial,
	}
}

// Get returns the current value and, during a tracked run, records the
// running observer as a subscriber.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	value := o.value
	o.mu.RUnlock()

	// Track after releasing the value lock
	if o.tracker != nil {
		o.tracker.track(&o.base)
	}

	return value
}

// Peek returns the current value without subscribing.
func (o *Observable[T]) Peek() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set stores value and notifies subscribers if it differs from the current
// value. Subscribers run synchronously on the caller's goroutine; a panic in
// one of them is reported and does not stop the others.
func (o *Observable[T]) Set(value T) {
	o.mu.Lock()
	changed := !o.equals(o.value, value)
	if changed {
		o.value = value
	}
	o.mu.Unlock()

	if changed {
		o.notify()
	}
}

// Update reads the current value, passes it to fn and sets the result.
func (o *Observable[T]) Update(fn func(T) T) {
	o.mu.Lock()
	oldValue := o.value
	newValue := fn(oldValue)
	changed := !o.equals(oldValue, newValue)
	if changed {
		o.value = newValue
	}
	o.mu.Unlock()

	if changed {
		o.notify()
	}
}

// WithEquals configures a custom equality function and returns o.
func (o *Observable[T]) WithEquals(fn func(T, T) bool) *Observable[T] {
	o.equal = fn
	return o
}

// Dispose removes every subscriber. The value is kept and the observable
// stays usable; it gains subscribers again on the next tracked read.
func (o *Observable[T]) Dispose() {
	o.base.clear()
}

// RemoveSubscriber unsubscribes obs. It is a no-op if obs is not subscribed.
func (o *Observable[T]) RemoveSubscriber(obs Observer) {
	o.base.unsubscribe(obs)
}

// SubscriberCount returns the number of current subscribers.
func (o *Observable[T]) SubscriberCount() int {
	return o.base.count()
}

// ID returns the unique identifier for this observable.
func (o *Observable[T]) ID() uint64 {
	return o.base.id
}

func (o *Observable[T]) notify() {
	subs := o.base.snapshot()
	for _, sub := range subs {
		o.tracker.deliver(sub)
	}
	o.tracker.notified(len(subs))
}

func (o *Observable[T]) equals(a, b T) bool {
	if o.equal != nil {
		return o.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == when the dynamic values are comparable and
// reflect.DeepEqual otherwise, so pointers and channels compare by identity
// while slices and maps compare by content.
func defaultEquals[T any](a, b T) bool {
	av, bv := reflect.ValueOf(any(a)), reflect.ValueOf(any(b))
	if !av.IsValid() || !bv.IsValid() {
		return av.IsValid() == bv.IsValid()
	}
	if av.Type() != bv.Type() {
		return false
	}
	if av.Comparable() && bv.Comparable() {
		return av.Equal(bv)
	}
	return reflect.DeepEqual(a, b)
}
