package ecskern

import "reflect"

// typeState is the per-type world state: listeners and the resource slot.
// It keeps no pending deferred-Set values; those travel inside the queued
// opSet[T] operations (events.go). A World keeps one of these per
// registered TypeID, created lazily on first use (typeForState).
//
// Listener slices hold type-erased func values; every slice element is
// downcast back to its concrete func(...) shape inside fireSet/fireRemove,
// where the generic T is still known at compile time — the column-hash
// dispatch never needs reflect (spec.md 9's callback-erasure note), except
// for the one place a listener must be found again to be unregistered,
// where reflect.Value.Pointer identity is the narrow, deliberate exception
// (see DESIGN.md).
type typeState struct {
	setFull  []any // func(Entity, old, new *T)
	setEnt   []any // func(Entity, new *T)
	setValue []any // func(new *T)

	removeFull  []any // func(Entity, old T)
	removeValue []any // func(old T)

	// hasSetListener / hasRemoveListener mirror spec.md 4.4's boolean
	// toggle used on the hot path to skip callback invocation entirely
	// when no listener is registered for this type.
	hasSetListener    bool
	hasRemoveListener bool

	// fireRemoveErased dispatches a remove notification for a row whose
	// static type is no longer known at the call site (destroyEntity and
	// destroyArchetype walk every column of an archetype generically).
	// It is installed when T goes from no remove listener to one, and
	// cleared when the last is unregistered, capturing T so the hot path
	// never needs reflect.
	fireRemoveErased func(e Entity, col *column, row int)

	// resource is this type's world-scoped resource slot (SPEC_FULL.md
	// §5's "World resource slots", adapted from the teacher's Resources
	// free-list, but folded into the per-type state instead of a second
	// parallel type->slot map).
	resource    any // *T
	hasResource bool
}

// funcPointer returns a comparable identity for a func value, used only to
// find a previously registered listener again on unregister. The key is
// the func's code pointer, so closures created from the same function
// literal share one key whatever state they capture; unregistering one of
// them removes the first registered listener with that key. It is not a
// general reflection escape hatch, just an identity key.
func funcPointer(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func removeByPointer(list []any, fn any) []any {
	target := funcPointer(fn)
	for i, h := range list {
		if funcPointer(h) == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// OnSetFull registers or unregisters (register=false) a listener invoked
// with the entity and pointers to both the old and new value whenever T is
// set, including the initial set on migration (old is T's zero value in
// that case). Matches spec.md 6's "full old/new for set" shape.
func OnSetFull[T any](w *World, fn func(Entity, *T, *T), register bool) {
	id := idOf[T]()
	ts := w.typeForState(id)
	if register {
		ts.setFull = append(ts.setFull, fn)
	} else {
		ts.setFull = removeByPointer(ts.setFull, fn)
	}
	ts.refreshSetFlag()
}

// OnSet registers or unregisters a listener invoked with the entity and a
// pointer to the new value. Matches spec.md 6's "entity+component" shape.
func OnSet[T any](w *World, fn func(Entity, *T), register bool) {
	id := idOf[T]()
	ts := w.typeForState(id)
	if register {
		ts.setEnt = append(ts.setEnt, fn)
	} else {
		ts.setEnt = removeByPointer(ts.setEnt, fn)
	}
	ts.refreshSetFlag()
}

// OnSetValue registers or unregisters a listener invoked with only a
// pointer to the new value. Matches spec.md 6's "component-only" shape.
func OnSetValue[T any](w *World, fn func(*T), register bool) {
	id := idOf[T]()
	ts := w.typeForState(id)
	if register {
		ts.setValue = append(ts.setValue, fn)
	} else {
		ts.setValue = removeByPointer(ts.setValue, fn)
	}
	ts.refreshSetFlag()
}

// OnRemoveFull registers or unregisters a listener invoked with the entity
// and the removed value (observed pre-mutation, per spec.md 6).
func OnRemoveFull[T any](w *World, fn func(Entity, T), register bool) {
	id := idOf[T]()
	ts := w.typeForState(id)
	if register {
		ts.removeFull = append(ts.removeFull, fn)
	} else {
		ts.removeFull = removeByPointer(ts.removeFull, fn)
	}
	ts.refreshRemoveFlag(func() { installRemoveErased[T](ts) })
}

// OnRemove registers or unregisters a listener invoked with only the
// removed value.
func OnRemove[T any](w *World, fn func(T), register bool) {
	id := idOf[T]()
	ts := w.typeForState(id)
	if register {
		ts.removeValue = append(ts.removeValue, fn)
	} else {
		ts.removeValue = removeByPointer(ts.removeValue, fn)
	}
	ts.refreshRemoveFlag(func() { installRemoveErased[T](ts) })
}

func (ts *typeState) refreshSetFlag() {
	ts.hasSetListener = len(ts.setFull) > 0 || len(ts.setEnt) > 0 || len(ts.setValue) > 0
}

// refreshRemoveFlag recomputes hasRemoveListener after a registration
// change and (re)installs fireRemoveErased — the one place a removed row's
// static type must be recovered without the caller having it in hand (bulk
// destroy of a whole archetype or entity walks every column generically).
// install is the caller's generic closure that knows T; it runs whenever
// this type goes from having no remove listener to having one.
func (ts *typeState) refreshRemoveFlag(install func()) {
	had := ts.hasRemoveListener
	ts.hasRemoveListener = len(ts.removeFull) > 0 || len(ts.removeValue) > 0
	if !ts.hasRemoveListener {
		ts.fireRemoveErased = nil
		return
	}
	if !had {
		install()
	}
}

func installRemoveErased[T any](ts *typeState) {
	ts.fireRemoveErased = func(e Entity, col *column, row int) {
		old := *getColumn[T](col, row)
		fireRemove[T](ts, e, old)
	}
}

// fireSet dispatches all three set-listener shapes for T, guarded by the
// caller checking ts.hasSetListener first so a type with no listeners
// never pays for the loop.
func fireSet[T any](ts *typeState, e Entity, old, newVal *T) {
	for _, h := range ts.setFull {
		h.(func(Entity, *T, *T))(e, old, newVal)
	}
	for _, h := range ts.setEnt {
		h.(func(Entity, *T))(e, newVal)
	}
	for _, h := range ts.setValue {
		h.(func(*T))(newVal)
	}
}

// fireRemove dispatches both remove-listener shapes for T.
func fireRemove[T any](ts *typeState, e Entity, old T) {
	for _, h := range ts.removeFull {
		h.(func(Entity, T))(e, old)
	}
	for _, h := range ts.removeValue {
		h.(func(T))(old)
	}
}

// --- per-type world resource slot (SPEC_FULL.md §5) ---

// SetResource stores value as the single instance of T held by the world,
// overwriting any previous one in place.
func SetResource[T any](w *World, value T) {
	id := idOf[T]()
	ts := w.typeForState(id)
	if ts.hasResource {
		*(ts.resource.(*T)) = value
		return
	}
	boxed := new(T)
	*boxed = value
	ts.resource = boxed
	ts.hasResource = true
}

// GetResource returns a live pointer to T's resource slot, or (nil, false)
// if none has been set.
func GetResource[T any](w *World) (*T, bool) {
	id, ok := tryIDOf[T]()
	if !ok {
		return nil, false
	}
	ts, ok := w.perType[id]
	if !ok || !ts.hasResource {
		return nil, false
	}
	return ts.resource.(*T), true
}

// RemoveResource clears T's resource slot, if set.
func RemoveResource[T any](w *World) {
	id, ok := tryIDOf[T]()
	if !ok {
		return
	}
	ts, ok := w.perType[id]
	if !ok {
		return
	}
	ts.resource = nil
	ts.hasResource = false
}
