package reactive

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// record is the tracker's bookkeeping for one observer.
type record struct {
	observer Observer

	// sources are the observables read during the observer's latest run.
	sources []*source

	// disposed is set when DisposeObserver runs while this record is active,
	// so reads for the rest of that run are ignored.
	disposed bool
}

func (r *record) hasSource(s *source) bool {
	for _, existing := range r.sources {
		if existing == s {
			return true
		}
	}
	return false
}

// Stats is a point-in-time summary of the tracker's bookkeeping.
type Stats struct {
	// Observers is the number of observers with a tracking record.
	Observers int `json:"observers"`

	// Subscriptions is the total number of (observer, observable) edges.
	Subscriptions int `json:"subscriptions"`

	// Active reports whether a tracked run is in progress.
	Active bool `json:"active"`
}

// Tracker records which observables each observer read during its most
// recent run and rewires subscriptions on every run.
//
// A Tracker is meant to be created once at startup and passed to the code
// that creates observables and renders views.
type Tracker struct {
	mu sync.Mutex

	// records maps observer ID to its dependency record.
	records map[uint64]*record

	// active is the record of the observer currently running, or nil.
	active *record

	logger  *slog.Logger
	onError func(error)
	metrics MetricsCollector
}

// NewTracker creates a tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		records: make(map[uint64]*record),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run makes o the active observer and executes body synchronously.
//
// Before body runs, o is removed from every observable it subscribed to in
// its previous run, so after Run returns o is subscribed to exactly the
// observables read by this run. Reads made before body fails are kept.
// The error returned by body is returned unchanged; a panic in body
// propagates after the active slot has been cleared.
//
// Run returns ErrNestedRun without calling body if another run is active.
func (t *Tracker) Run(o Observer, body func() error) error {
	if o == nil {
		panic("reactive: Run called with nil observer")
	}

	t.mu.Lock()
	if t.active != nil {
		activeID := t.active.observer.ID()
		t.mu.Unlock()
		t.logger.Error("nested tracked run",
			"observer_id", o.ID(),
			"active_observer_id", activeID)
		return fmt.Errorf("%w: observer %d, active observer %d", ErrNestedRun, o.ID(), activeID)
	}

	rec, ok := t.records[o.ID()]
	if !ok {
		rec = &record{}
		t.records[o.ID()] = rec
	}
	rec.observer = o
	rec.disposed = false
	stale := rec.sources
	rec.sources = nil
	t.active = rec
	observers := len(t.records)
	t.mu.Unlock()

	// Drop last run's subscriptions before any new read happens
	for _, src := range stale {
		src.unsubscribe(o)
	}

	start := time.Now()
	defer func() {
		t.mu.Lock()
		t.active = nil
		deps := len(rec.sources)
		t.mu.Unlock()

		if t.metrics != nil {
			t.metrics.ObserveRun(time.Since(start), deps)
			t.metrics.SetObservers(observers)
		}
	}()

	return body()
}

// DisposeObserver unsubscribes o from every observable recorded for it and
// forgets it. Calling it for an observer that was never tracked is a no-op.
func (t *Tracker) DisposeObserver(o Observer) {
	if o == nil {
		return
	}

	t.mu.Lock()
	rec, ok := t.records[o.ID()]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.records, o.ID())
	rec.disposed = true
	sources := rec.sources
	rec.sources = nil
	observers := len(t.records)
	t.mu.Unlock()

	for _, src := range sources {
		src.unsubscribe(o)
	}

	if t.metrics != nil {
		t.metrics.SetObservers(observers)
	}
}

// Untracked runs fn with tracking suspended: reads inside fn do not
// subscribe the active observer.
//
// Example:
//
//	tracker.Untracked(func() {
//	    fmt.Println("current:", count.Get())
//	})
func (t *Tracker) Untracked(fn func()) {
	t.mu.Lock()
	old := t.active
	t.active = nil
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.active = old
		t.mu.Unlock()
	}()

	fn()
}

// Dependencies returns how many observables o read during its latest run.
func (t *Tracker) Dependencies(o Observer) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.records[o.ID()]; ok {
		return len(rec.sources)
	}
	return 0
}

// Stats returns a summary of the tracker's state.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{
		Observers: len(t.records),
		Active:    t.active != nil,
	}
	for _, rec := range t.records {
		stats.Subscriptions += len(rec.sources)
	}
	return stats
}

// track attributes a read of src to the active observer.
func (t *Tracker) track(src *source) {
	t.mu.Lock()
	rec := t.active
	if rec == nil || rec.disposed {
		t.mu.Unlock()
		return
	}
	if !rec.hasSource(src) {
		rec.sources = append(rec.sources, src)
	}
	observer := rec.observer
	t.mu.Unlock()

	src.subscribe(observer)
}

// deliver notifies one subscriber, recovering and reporting a panic.
// A nil tracker still isolates the failure and logs it to slog.Default().
func (t *Tracker) deliver(o Observer) {
	defer func() {
		if r := recover(); r != nil {
			t.report(&SubscriberError{
				ObserverID: o.ID(),
				Value:      r,
				Stack:      debug.Stack(),
			})
		}
	}()

	o.Notify()
}

func (t *Tracker) report(err *SubscriberError) {
	logger := slog.Default()
	if t != nil {
		logger = t.logger
	}
	logger.Error("subscriber panic",
		"observer_id", err.ObserverID,
		"panic", err.Value,
		"stack", string(err.Stack))

	if t == nil {
		return
	}
	if t.metrics != nil {
		t.metrics.IncSubscriberFailures()
	}
	if t.onError != nil {
		t.onError(err)
	}
}

func (t *Tracker) notified(n int) {
	if t != nil && t.metrics != nil && n > 0 {
		t.metrics.AddNotifications(n)
	}
}
