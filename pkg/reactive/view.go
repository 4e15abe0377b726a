package reactive

import "runtime/debug"

// ViewOption configures a View.
type ViewOption func(*View)

// WithFallback sets the function that receives render failures: errors
// returned by the render function, panics (as *PanicError) and nested-run
// errors. Without a fallback the failure is only returned from Render.
func WithFallback(fn func(error)) ViewOption {
	return func(v *View) {
		v.fallback = fn
	}
}

// View binds a render function to a Tracker.
//
// It is the observer side of a UI component: it owns a stable identity,
// re-runs render inside a tracked run whenever one of the observables read by
// the previous render changes, and is torn down once with Dispose.
// A View is confined to the goroutine that renders the UI.
type View struct {
	id       uint64
	tracker  *Tracker
	render   func() error
	fallback func(error)

	rendering bool
	dirty     bool
	disposed  bool
	renders   int
}

// NewView creates a view. It does not render until Render is called.
func NewView(tracker *Tracker, render func() error, opts ...ViewOption) *View {
	v := &View{
		id:      nextID(),
		tracker: tracker,
		render:  render,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ID implements Observer.
func (v *View) ID() uint64 {
	return v.id
}

// Notify implements Observer. A change reported while the view is rendering
// schedules one more pass once the current render finishes.
func (v *View) Notify() {
	if v.disposed {
		return
	}
	if v.rendering {
		v.dirty = true
		return
	}
	_ = v.Render()
}

// Render runs the render function inside a tracked run and returns the last
// failure, after handing it to the fallback.
func (v *View) Render() error {
	if v.disposed {
		return ErrViewDisposed
	}

	v.rendering = true
	defer func() { v.rendering = false }()

	for {
		v.dirty = false
		err := v.renderOnce()
		if err != nil && v.fallback != nil {
			v.fallback(err)
		}
		if !v.dirty || v.disposed {
			return err
		}
	}
}

// Renders returns how many times the render function has been invoked.
func (v *View) Renders() int {
	return v.renders
}

// Dispose unsubscribes the view from everything it read. Later
// notifications are ignored and Render returns ErrViewDisposed.
func (v *View) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true
	v.tracker.DisposeObserver(v)
}

func (v *View) renderOnce() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return v.tracker.Run(v, func() error {
		v.renders++
		return v.render()
	})
}
