// Package inject provides the service registry shared by a UI application.
//
// The Registry maps a contract type to a live instance or a lazy factory and
// manages instance lifecycle: auto-dispose groups, named scopes, tagged
// instances, test overrides and a full reset. Instances that implement
// Initializer or Disposer are notified when they enter and leave the registry.
//
// Basic usage:
//
//	registry := inject.New()
//
//	// Register under the contract type given as type argument
//	inject.Put[Logger](registry, &ConsoleLogger{})
//	inject.LazyPut(registry, func() (*Counter, error) {
//	    return NewCounter(0), nil
//	})
//
//	// Resolve
//	logger, err := inject.Find[Logger](registry)
//	counter := inject.MustFind[*Counter](registry) // factory runs once
//
// Scopes and tags:
//
//	inject.PutScoped(registry, session, "checkout")
//	registry.DisposeScope("checkout") // OnDispose fires for session
//
//	inject.PutTagged[Logger](registry, &FileLogger{}, "audit")
//	audit, err := inject.FindTagged[Logger](registry, "audit")
//
// Every mutating operation emits an Event to the optional Hook; with debug
// enabled it is also logged. Hooks are observational and never change the
// outcome of an operation.
package inject
