package ecskern

// EventBus is a general out-of-band pub/sub channel, independent of the
// per-component on_set/on_remove registry in callbacks.go — SPEC_FULL.md
// §5's supplemented feature, adapted from the teacher's
// (edwinsyarief-lazyecs) eventbus.go. Unlike the teacher's version, which
// keys handlers by reflect.Type, this one dispatches on TypeID so it
// shares the same interning path as every component and resource type
// instead of running a second, reflect-driven registry alongside it.
type EventBus struct {
	handlers map[TypeID][]any
}

func newEventBus() *EventBus {
	return &EventBus{handlers: make(map[TypeID][]any)}
}

// Subscribe registers handler to be called whenever an event of type T is
// published on bus.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	id := idOf[T]()
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Unsubscribe removes a previously subscribed handler, matched by function
// identity (see callbacks.go's funcPointer).
func Unsubscribe[T any](bus *EventBus, handler func(T)) {
	id, ok := tryIDOf[T]()
	if !ok {
		return
	}
	bus.handlers[id] = removeByPointer(bus.handlers[id], handler)
}

// Publish sends event to every handler subscribed to T. A no-op if T was
// never registered (meaning nothing could possibly have subscribed to it).
func Publish[T any](bus *EventBus, event T) {
	id, ok := tryIDOf[T]()
	if !ok {
		return
	}
	for _, h := range bus.handlers[id] {
		h.(func(T))(event)
	}
}

// --- world lifecycle notifications published on w.Events ---
//
// These let a caller react to "some entity died" or "an archetype
// appeared/disappeared" without registering a component-specific remove
// listener for every type that archetype might carry — useful for e.g. a
// scene-graph cleanup system that only cares that an entity is gone.

// EntityDestroyed is published after an entity has been fully removed from
// its world (version already bumped; the handle is already invalid by the
// time subscribers observe this).
type EntityDestroyed struct {
	Entity Entity
}

// ArchetypeCreated is published when a new signature is observed for the
// first time and a backing table is allocated for it.
type ArchetypeCreated struct {
	Archetype *Archetype
}

// ArchetypeDestroyed is published after an archetype's slot has been freed
// and every entity it held has been evicted.
type ArchetypeDestroyed struct {
	Signature Signature
}
