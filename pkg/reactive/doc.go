// Package reactive provides fine-grained reactive values for UI rendering code.
//
// Dependencies are tracked at runtime: reading an Observable while a Tracker
// is running an observer subscribes that observer to the observable, and
// nothing else. Every run replaces the observer's previous dependency set, so
// an observer that stops reading a value stops being notified about it.
//
// # Core Types
//
// Observable[T] is a mutable reactive cell:
//
//	tracker := reactive.NewTracker()
//	count := reactive.NewObservable(tracker, 0)
//	value := count.Get() // Read (subscribes the active observer)
//	count.Set(5)         // Write (notifies subscribers when the value changed)
//
// Tracker records, per observer, the observables read during its last run:
//
//	obs := reactive.NewCallback(func() { fmt.Println("changed") })
//	_ = tracker.Run(obs, func() error {
//	    fmt.Println(count.Get())
//	    return nil
//	})
//	count.Set(6)                 // prints "changed"
//	tracker.DisposeObserver(obs) // no further notifications
//
// View is the binding used by rendering collaborators: it owns a stable
// observer identity, re-renders when a dependency changes and routes render
// failures to a fallback.
//
// # Threading
//
// The reactive graph assumes a single logical thread of execution. Locks are
// only taken so that diagnostics (Stats, SubscriberCount) can be read from
// other goroutines; the single active-observer slot is shared process-wide
// and a tracked run must not start another tracked run.
package reactive
