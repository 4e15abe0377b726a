package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
)

// factory builds an instance for a lazily registered key.
type factory func() (any, error)

// Registry stores application services keyed by contract type.
//
// Invariants:
//   - an instance wins over a pending factory for the same key
//   - every auto-dispose key and every scope member has an instance
//   - tagged keys never collide with untagged ones
//
// The mutex only guards the maps. It is never held while factories,
// lifecycle methods or the hook run, so those may call back into the
// registry (except as noted for Disposer during bulk disposal).
type Registry struct {
	mu          sync.Mutex
	instances   map[Key]any
	factories   map[Key]factory
	autoDispose map[Key]struct{}
	scopes      map[string]map[Key]struct{}
	tagged      map[Key]any

	// overridden marks instances placed by Override; they never saw OnInit.
	overridden map[Key]struct{}
	// pending holds factories currently running, so concurrent Finds wait
	// for the first one instead of constructing again.
	pending map[Key]*pendingFind

	logger *slog.Logger
	hook   Hook
	debug  bool
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		instances:   make(map[Key]any),
		factories:   make(map[Key]factory),
		autoDispose: make(map[Key]struct{}),
		scopes:      make(map[string]map[Key]struct{}),
		tagged:      make(map[Key]any),
		overridden:  make(map[Key]struct{}),
		pending:     make(map[Key]*pendingFind),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetHook replaces the diagnostic hook. A nil hook disables it.
func (r *Registry) SetHook(hook Hook) {
	r.mu.Lock()
	r.hook = hook
	r.mu.Unlock()
}

// SetDebug toggles the per-event debug log line.
func (r *Registry) SetDebug(enabled bool) {
	r.mu.Lock()
	r.debug = enabled
	r.mu.Unlock()
}

// register stores instance under key, replacing any previous instance.
// The replaced instance loses its memberships and is disposed before the
// new one is initialized, unless Override put it there. link, if set, runs
// under the lock to add the new registration's memberships.
func (r *Registry) register(key Key, instance any, event Event, link func()) {
	r.mu.Lock()
	old, replaced := r.instances[key]
	_, wasOverride := r.overridden[key]
	r.unlinkLocked(key)
	r.instances[key] = instance
	if link != nil {
		link()
	}
	r.mu.Unlock()

	if replaced && sameInstance(old, instance) {
		r.emit(event, key)
		return
	}
	if replaced && !wasOverride {
		dispose(old)
	}
	initialize(instance)
	r.emit(event, key)
}

// unlinkLocked drops key from the auto-dispose set, every scope and the
// override marks. Callers must hold r.mu.
func (r *Registry) unlinkLocked(key Key) {
	delete(r.autoDispose, key)
	delete(r.overridden, key)
	for name, members := range r.scopes {
		delete(members, key)
		if len(members) == 0 {
			delete(r.scopes, name)
		}
	}
}

func (r *Registry) put(key Key, instance any) {
	r.register(key, instance, EventPut, nil)
}

func (r *Registry) putAutoDispose(key Key, instance any) {
	r.register(key, instance, EventAutoDisposePut, func() {
		r.autoDispose[key] = struct{}{}
	})
}

func (r *Registry) putScoped(key Key, instance any, scope string) {
	r.register(key, instance, EventPutScoped, func() {
		members, ok := r.scopes[scope]
		if !ok {
			members = make(map[Key]struct{})
			r.scopes[scope] = members
		}
		members[key] = struct{}{}
	})
}

func (r *Registry) lazyPut(key Key, f factory) {
	r.mu.Lock()
	r.factories[key] = f
	r.mu.Unlock()

	r.emit(EventLazyPut, key)
}

// putAsync runs f to completion and only then makes key visible.
func (r *Registry) putAsync(ctx context.Context, key Key, f func(context.Context) (any, error)) error {
	if err := ctx.Err(); err != nil {
		return &ConstructionError{Key: key, Cause: err}
	}

	instance, err := construct(key, func() (any, error) { return f(ctx) })
	if err != nil {
		return err
	}

	r.register(key, instance, EventPutAsync, nil)
	return nil
}

// pendingFind is a factory run in progress. done is closed once the result
// is committed and initialized.
type pendingFind struct {
	done     chan struct{}
	instance any
	err      error
}

// find returns the instance for key, materializing it from its factory on
// first access. Concurrent callers for the same key share one factory run.
func (r *Registry) find(key Key) (any, error) {
	r.mu.Lock()
	if instance, ok := r.instances[key]; ok {
		r.mu.Unlock()
		return instance, nil
	}
	if p, ok := r.pending[key]; ok {
		r.mu.Unlock()
		<-p.done
		return p.instance, p.err
	}
	f, ok := r.factories[key]
	if !ok {
		r.mu.Unlock()
		return nil, &NotRegisteredError{Key: key}
	}
	p := &pendingFind{done: make(chan struct{})}
	r.pending[key] = p
	r.mu.Unlock()
	defer close(p.done)

	instance, err := construct(key, f)

	r.mu.Lock()
	delete(r.pending, key)
	if err != nil {
		p.err = err
		r.mu.Unlock()
		return nil, err
	}
	// A factory that registered its own key already committed an instance
	if existing, ok := r.instances[key]; ok {
		p.instance = existing
		r.mu.Unlock()
		return existing, nil
	}
	r.instances[key] = instance
	p.instance = instance
	r.mu.Unlock()

	initialize(instance)
	r.emit(EventCreate, key)
	return instance, nil
}

// lookup is find without NotRegistered failures. Construction failures are
// logged and reported as absent.
func (r *Registry) lookup(key Key) (any, bool) {
	instance, err := r.find(key)
	if err == nil {
		return instance, true
	}
	if !errors.Is(err, ErrNotRegistered) {
		r.logger.Error("lookup construction failed", "key", key.String(), "error", err)
	}
	return nil, false
}

func (r *Registry) isRegistered(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[key]; ok {
		return true
	}
	_, ok := r.factories[key]
	return ok
}

// remove deletes the instance, factory and memberships of key.
func (r *Registry) remove(key Key) {
	r.mu.Lock()
	instance, hadInstance := r.instances[key]
	_, hadFactory := r.factories[key]
	delete(r.instances, key)
	delete(r.factories, key)
	r.unlinkLocked(key)
	r.mu.Unlock()

	if !hadInstance && !hadFactory {
		return
	}
	if hadInstance {
		dispose(instance)
	}
	r.emit(EventDelete, key)
}

// override swaps the stored instance without lifecycle calls or membership
// changes.
func (r *Registry) override(key Key, instance any) {
	r.mu.Lock()
	r.instances[key] = instance
	r.overridden[key] = struct{}{}
	r.mu.Unlock()

	r.emit(EventOverride, key)
}

func (r *Registry) putTagged(key Key, instance any) {
	r.mu.Lock()
	old, replaced := r.tagged[key]
	r.tagged[key] = instance
	r.mu.Unlock()

	if !(replaced && sameInstance(old, instance)) {
		if replaced {
			dispose(old)
		}
		initialize(instance)
	}
	r.emit(EventPutTagged, key)
}

func (r *Registry) findTagged(key Key) (any, error) {
	r.mu.Lock()
	instance, ok := r.tagged[key]
	r.mu.Unlock()

	if !ok {
		return nil, &NotRegisteredError{Key: key}
	}
	return instance, nil
}

func (r *Registry) deleteTagged(key Key) {
	r.mu.Lock()
	instance, ok := r.tagged[key]
	delete(r.tagged, key)
	r.mu.Unlock()

	if !ok {
		return
	}
	dispose(instance)
	r.emit(EventDeleteTagged, key)
}

// removed is an instance taken out of the registry by a bulk operation.
type removed struct {
	key      Key
	instance any
}

// DisposeAll removes every instance registered with AutoDisposePut and
// fires its OnDispose. Factories registered for those keys are kept.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	keys := sortedKeys(r.autoDispose)
	out := make([]removed, 0, len(keys))
	for _, key := range keys {
		instance, ok := r.instances[key]
		if !ok {
			continue
		}
		delete(r.instances, key)
		r.unlinkLocked(key)
		out = append(out, removed{key: key, instance: instance})
	}
	r.autoDispose = make(map[Key]struct{})
	r.mu.Unlock()

	r.disposeRemoved(out)
	r.emit(EventDisposeAll, Key{})
}

// DisposeScope removes every instance registered in scope, fires their
// OnDispose and forgets the scope. Unknown scopes are a no-op.
//
// A Disposer must not register into or dispose the same scope while it is
// being disposed.
func (r *Registry) DisposeScope(scope string) {
	r.mu.Lock()
	members, ok := r.scopes[scope]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.scopes, scope)

	keys := sortedKeys(members)
	out := make([]removed, 0, len(keys))
	for _, key := range keys {
		instance, ok := r.instances[key]
		if !ok {
			continue
		}
		delete(r.instances, key)
		r.unlinkLocked(key)
		out = append(out, removed{key: key, instance: instance})
	}
	r.mu.Unlock()

	r.disposeRemoved(out)
	r.emit(EventDisposeScope, Key{})
	if r.debugEnabled() {
		r.logger.Debug("scope disposed", "scope", scope, "instances", len(out))
	}
}

// Reset disposes every stored instance, untagged first and then tagged, and
// then clears instances, factories, auto-dispose membership, scopes and
// tagged instances. The registry is still intact while Disposers run, so
// they may look up their peers.
func (r *Registry) Reset() {
	r.mu.Lock()
	out := make([]removed, 0, len(r.instances)+len(r.tagged))
	for _, key := range sortedKeys(r.instances) {
		out = append(out, removed{key: key, instance: r.instances[key]})
	}
	for _, key := range sortedKeys(r.tagged) {
		out = append(out, removed{key: key, instance: r.tagged[key]})
	}
	r.mu.Unlock()

	r.disposeRemoved(out)

	r.mu.Lock()
	r.instances = make(map[Key]any)
	r.factories = make(map[Key]factory)
	r.autoDispose = make(map[Key]struct{})
	r.scopes = make(map[string]map[Key]struct{})
	r.tagged = make(map[Key]any)
	r.overridden = make(map[Key]struct{})
	r.mu.Unlock()

	r.emit(EventReset, Key{})
}

func (r *Registry) disposeRemoved(out []removed) {
	for _, rm := range out {
		dispose(rm.instance)
		r.emit(EventDispose, rm.key)
	}
}

// Keys returns every untagged key with an instance or a factory, sorted by
// name.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[Key]struct{}, len(r.instances)+len(r.factories))
	for key := range r.instances {
		set[key] = struct{}{}
	}
	for key := range r.factories {
		set[key] = struct{}{}
	}
	return sortedKeys(set)
}

// Snapshot is a read-only view of the registry's collections.
type Snapshot struct {
	Instances   []string            `json:"instances"`
	Factories   []string            `json:"factories"`
	AutoDispose []string            `json:"autoDispose"`
	Scopes      map[string][]string `json:"scopes"`
	Tagged      []string            `json:"tagged"`
}

// Snapshot copies the registry's key sets. Values are not exposed.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Instances:   keyNames(sortedKeys(r.instances)),
		Factories:   keyNames(sortedKeys(r.factories)),
		AutoDispose: keyNames(sortedKeys(r.autoDispose)),
		Scopes:      make(map[string][]string, len(r.scopes)),
		Tagged:      keyNames(sortedKeys(r.tagged)),
	}
	for name, members := range r.scopes {
		snap.Scopes[name] = keyNames(sortedKeys(members))
	}
	return snap
}

// emit reports event to the hook and, in debug mode, the logger. A panicking
// hook is logged and otherwise ignored.
func (r *Registry) emit(event Event, key Key) {
	r.mu.Lock()
	hook, debugOn := r.hook, r.debug
	r.mu.Unlock()

	if debugOn {
		r.logger.Debug("registry event", "event", event.String(), "key", key.String())
	}
	if hook == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("registry hook panic",
				"event", event.String(),
				"key", key.String(),
				"panic", p,
				"stack", string(debug.Stack()))
		}
	}()
	hook(event, key)
}

func (r *Registry) debugEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.debug
}

// construct runs f, converting an error or a panic into a ConstructionError.
func construct(key Key, f factory) (instance any, err error) {
	defer func() {
		if p := recover(); p != nil {
			cause, ok := p.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", p)
			}
			instance, err = nil, &ConstructionError{Key: key, Cause: cause}
		}
	}()

	instance, err = f()
	if err != nil {
		return nil, &ConstructionError{Key: key, Cause: err}
	}
	return instance, nil
}

func sortedKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func keyNames(keys []Key) []string {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.String()
	}
	return names
}
