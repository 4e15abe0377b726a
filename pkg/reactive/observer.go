package reactive

// Observer is anything that can be notified when an observable it read
// during its last tracked run changes.
//
// ID must be stable for the lifetime of the observer: the Tracker keys its
// dependency records by it and observables deduplicate subscribers by it.
type Observer interface {
	// Notify is called synchronously from Observable.Set.
	Notify()

	// ID returns a unique identifier for this observer.
	ID() uint64
}

// Callback adapts a plain function to the Observer interface.
// Go functions are not comparable, so the Callback value is what gives the
// function a stable identity across tracked runs.
type Callback struct {
	id uint64
	fn func()
}

// NewCallback wraps fn in an Observer with a fresh ID.
func NewCallback(fn func()) *Callback {
	return &Callback{id: nextID(), fn: fn}
}

// Notify invokes the wrapped function.
func (c *Callback) Notify() {
	if c.fn != nil {
		c.fn()
	}
}

// ID returns the callback's identifier.
func (c *Callback) ID() uint64 {
	return c.id
}
