package inject

// Event names a registry mutation reported to the Hook.
type Event string

const (
	EventPut            Event = "put"
	EventLazyPut        Event = "lazyPut"
	EventPutAsync       Event = "putAsync"
	EventCreate         Event = "create"
	EventDelete         Event = "delete"
	EventAutoDisposePut Event = "autoDisposePut"
	EventPutScoped      Event = "putScoped"
	EventPutTagged      Event = "putTagged"
	EventDeleteTagged   Event = "deleteTagged"
	EventOverride       Event = "override"

	// EventDispose is emitted once per key removed by a bulk operation,
	// before the operation's own event.
	EventDispose      Event = "dispose"
	EventDisposeAll   Event = "disposeAll"
	EventDisposeScope Event = "disposeScope"
	EventReset        Event = "reset"
)

// String returns the event name.
func (e Event) String() string {
	return string(e)
}

// Hook observes registry mutations. Bulk operations (DisposeAll,
// DisposeScope, Reset) report the zero Key for their own event.
// A Hook must not call back into the registry.
type Hook func(event Event, key Key)

// ChainHooks returns a Hook that calls each non-nil hook in order.
func ChainHooks(hooks ...Hook) Hook {
	active := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(event Event, key Key) {
		for _, h := range active {
			h(event, key)
		}
	}
}
