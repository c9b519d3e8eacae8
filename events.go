package ecskern

// entityOperation is a recorded structural mutation, queued while
// deferral_depth > 0 and replayed in enqueue order on drain. Grounded in
// TheBitDrifter-warehouse's operation_queue.go EntityOperation interface
// (Apply(Storage) error): a slice of this interface is already a
// homogeneous, ordered, type-erased queue, so unlike the byte-FIFO model
// spec.md 4.5 sketches for a non-generic host language, a generic struct
// per operation kind (opSet[T], opRemove[T]) carries its typed payload
// directly — Go's interface dispatch *is* the type erasure at the queue
// boundary spec.md asks for, with no separate per-type value FIFO
// needed. See DESIGN.md for the full rationale.
type entityOperation interface {
	apply(w *World)
}

type opCreate struct {
	prealloc    Entity
	archIdx     int
	archVersion uint32
}

func (op opCreate) apply(w *World) {
	if w.archetypeVersions[op.archIdx] != op.archVersion {
		// Target archetype was destroyed or recycled for a different
		// signature while this Create sat in the queue: drop the
		// pre-allocated entity and skip, per spec.md 9's resolved Open
		// Question. Bump the slot's version again so the handle the
		// caller already observed is unambiguously invalid, and return
		// the index to the free pool.
		w.entities[op.prealloc.index].version++
		w.freeEntityIndices = append(w.freeEntityIndices, op.prealloc.index)
		w.DroppedDeferredOps++
		return
	}
	target := w.archetypes[op.archIdx]
	row := target.appendRow(op.prealloc)
	w.entities[op.prealloc.index] = entityMeta{archetype: target, row: row, version: op.prealloc.version}
	w.entityCount++
}

type opSet[T any] struct {
	e     Entity
	value T
}

func (op opSet[T]) apply(w *World) {
	setComponentImmediate(w, op.e, op.value)
}

type opRemove[T any] struct {
	e Entity
}

func (op opRemove[T]) apply(w *World) {
	removeComponentImmediate[T](w, op.e)
}

type opDestroyEntity struct{ e Entity }

func (op opDestroyEntity) apply(w *World) {
	w.destroyEntityImmediate(op.e)
}

type opDestroyArchetype struct {
	archIdx     int
	archVersion uint32
}

func (op opDestroyArchetype) apply(w *World) {
	if w.archetypeVersions[op.archIdx] != op.archVersion {
		return
	}
	w.destroyArchetypeImmediate(op.archIdx, op.archVersion)
}

type opResizeBacking struct {
	archIdx     int
	archVersion uint32
}

func (op opResizeBacking) apply(w *World) {
	if w.archetypeVersions[op.archIdx] != op.archVersion {
		return
	}
	w.archetypes[op.archIdx].shrinkToFit()
}

// CacheStructuralEvents increments or decrements the world's deferral
// depth (spec.md 6's cache_structural_events toggle). It is a reference
// count, not a flag, so nested enable/disable pairs compose; the queue
// drains synchronously the moment depth returns to zero.
func (w *World) CacheStructuralEvents(enable bool) {
	if enable {
		w.deferralDepth++
		return
	}
	if w.deferralDepth == 0 {
		return
	}
	w.deferralDepth--
	if w.deferralDepth == 0 {
		w.drainQueue()
	}
}

// drainQueue replays queued operations in enqueue order. Every apply()
// touches World's *Immediate entry points directly, never the deferral
// check, so a drained operation can never itself re-enqueue (spec.md
// 4.5: "drained...at deferral_depth = 0").
func (w *World) drainQueue() {
	pending := w.queue
	w.queue = nil
	for _, op := range pending {
		op.apply(w)
	}
}

// --- structural engine entry points: each defers or executes immediately ---

func (w *World) createEntity(target *Archetype) Entity {
	if w.deferralDepth > 0 {
		idx, ver := w.allocEntityIndex()
		e := Entity{worldID: w.id, index: idx, version: ver}
		w.queue = append(w.queue, opCreate{prealloc: e, archIdx: target.selfIdx, archVersion: target.version})
		return e
	}
	return w.createEntityImmediate(target)
}

func (w *World) createEntityImmediate(target *Archetype) Entity {
	idx, ver := w.allocEntityIndex()
	e := Entity{worldID: w.id, index: idx, version: ver}
	row := target.appendRow(e)
	w.entities[idx] = entityMeta{archetype: target, row: row, version: ver}
	w.entityCount++
	return e
}

// createEntities is the bulk sibling: it grows target's columns once for
// n rows instead of n times, then attaches each entity. Participates in
// deferral like the single-entity path, by deferring n independent
// Creates (simplicity over micro-optimizing the deferred path, which is
// not the hot path this bulk primitive targets).
func (w *World) createEntities(target *Archetype, n int) []Entity {
	if n <= 0 {
		return nil
	}
	out := make([]Entity, n)
	if w.deferralDepth > 0 {
		for i := 0; i < n; i++ {
			out[i] = w.createEntity(target)
		}
		return out
	}
	target.ensureCapacity(target.count + n)
	for i := 0; i < n; i++ {
		out[i] = w.createEntityImmediate(target)
	}
	return out
}

// setComponentOp is Set[T]'s structural entry point.
func setComponentOp[T any](w *World, e Entity, value T) {
	if w.deferralDepth > 0 {
		w.queue = append(w.queue, opSet[T]{e: e, value: value})
		return
	}
	setComponentImmediate(w, e, value)
}

// setComponentImmediate implements spec.md 4.5's Set: overwrite in place
// if the archetype already carries T, otherwise migrate to
// current ∪ {T}. Being generic over T (rather than boxing value into
// any) means listener dispatch never needs reflect: the per-type
// listener slice is type-asserted back to one of the three known
// func(...) T shapes right here, where T is still a compile-time type.
func setComponentImmediate[T any](w *World, e Entity, value T) {
	meta, ok := w.entityMetaIfValid(e)
	if !ok {
		return
	}
	id := idOf[T]()
	ts := w.typeForState(id)

	if meta.archetype != nil {
		if c := meta.archetype.columnFor(id); c != nil {
			old := *getColumn[T](c, meta.row)
			setColumn[T](c, meta.row, value)
			if ts.hasSetListener {
				fireSet[T](ts, e, &old, getColumn[T](c, meta.row))
			}
			return
		}
	}

	w.scratch.Clear()
	if meta.archetype != nil {
		w.scratch.CopyFrom(&meta.archetype.sig)
	}
	w.scratch.Add(id)
	target := w.getOrCreateArchetype(&w.scratch)

	targetRow := target.appendRow(e)
	if meta.archetype != nil {
		migrateRow(meta.archetype, meta.row, target, targetRow, w)
	} else {
		w.entityCount++
	}
	c := target.columnFor(id)
	setColumn[T](c, targetRow, value)
	w.entities[e.index] = entityMeta{archetype: target, row: targetRow, version: meta.version}
	if ts.hasSetListener {
		var zero T
		fireSet[T](ts, e, &zero, getColumn[T](c, targetRow))
	}
}

// removeComponentOp is RemoveComponent[T]'s structural entry point.
func removeComponentOp[T any](w *World, e Entity) {
	if w.deferralDepth > 0 {
		w.queue = append(w.queue, opRemove[T]{e: e})
		return
	}
	removeComponentImmediate[T](w, e)
}

// removeComponentImmediate implements spec.md 4.5's Remove: symmetric
// migration to current \ {T}. No-op if T is absent (the Remove
// idempotence law in spec.md 8).
func removeComponentImmediate[T any](w *World, e Entity) {
	meta, ok := w.entityMetaIfValid(e)
	if !ok || meta.archetype == nil {
		return
	}
	id, ok := tryIDOf[T]()
	if !ok {
		return
	}
	src := meta.archetype
	c := src.columnFor(id)
	if c == nil {
		return
	}
	old := *getColumn[T](c, meta.row)

	w.scratch.Clear()
	w.scratch.CopyFrom(&src.sig)
	w.scratch.Remove(id)
	target := w.getOrCreateArchetype(&w.scratch)

	targetRow := target.appendRow(e)
	migrateRow(src, meta.row, target, targetRow, w)
	w.entities[e.index] = entityMeta{archetype: target, row: targetRow, version: meta.version}

	if ts, ok := w.perType[id]; ok && ts.hasRemoveListener {
		fireRemove[T](ts, e, old)
	}
}

// migrateRow copies every column src shares with dst from srcRow into
// dstRow (matched by type id), then swap-removes srcRow out of src,
// fixing up whichever entity got swapped into srcRow's place. dstRow must
// already exist — the caller has already called dst.appendRow(e), which
// reserved (and zero-initialized) dstRow in every one of dst's columns;
// this only overwrites the columns src and dst actually share.
func migrateRow(src *Archetype, srcRow int, dst *Archetype, dstRow int, w *World) {
	for i := range src.slots {
		id := src.slots[i].typeID
		if id == 0 {
			continue
		}
		if dc := dst.columnFor(id); dc != nil {
			dc.copyRowInto(dstRow, &src.slots[i].col, srcRow)
		}
	}
	swappedIn, moved := src.swapRemoveRow(srcRow)
	if moved {
		sm := w.entities[swappedIn.index]
		sm.row = srcRow
		w.entities[swappedIn.index] = sm
	}
}

func (w *World) destroyEntity(e Entity) {
	if w.deferralDepth > 0 {
		w.queue = append(w.queue, opDestroyEntity{e: e})
		return
	}
	w.destroyEntityImmediate(e)
}

// destroyEntityImmediate implements spec.md 4.5's Destroy entity: fire
// remove listeners for every component that has one, swap-remove the
// row, version-bump, and return the index to the free pool.
func (w *World) destroyEntityImmediate(e Entity) {
	meta, ok := w.entityMetaIfValid(e)
	if !ok {
		return
	}
	if meta.archetype != nil {
		a := meta.archetype
		for i := range a.slots {
			id := a.slots[i].typeID
			if id == 0 {
				continue
			}
			if ts, ok := w.perType[id]; ok && ts.hasRemoveListener {
				ts.fireRemoveErased(e, &a.slots[i].col, meta.row)
			}
		}
		swappedIn, moved := a.swapRemoveRow(meta.row)
		if moved {
			sm := w.entities[swappedIn.index]
			sm.row = meta.row
			w.entities[swappedIn.index] = sm
		}
		w.entityCount--
	}
	w.entities[e.index] = entityMeta{version: meta.version + 1}
	w.freeEntityIndices = append(w.freeEntityIndices, e.index)
	Publish(w.Events, EntityDestroyed{Entity: e})
}

func (w *World) destroyArchetype(a *Archetype) {
	if w.deferralDepth > 0 {
		w.queue = append(w.queue, opDestroyArchetype{archIdx: a.selfIdx, archVersion: a.version})
		return
	}
	w.destroyArchetypeImmediate(a.selfIdx, a.version)
}

// destroyArchetypeImmediate implements spec.md 4.5's Destroy archetype.
func (w *World) destroyArchetypeImmediate(idx int, version uint32) {
	a := w.archetypes[idx]
	if a == nil || a.version != version {
		return
	}

	for row := 0; row < a.count; row++ {
		e := a.entities[row]
		for i := range a.slots {
			id := a.slots[i].typeID
			if id == 0 {
				continue
			}
			if ts, ok := w.perType[id]; ok && ts.hasRemoveListener {
				ts.fireRemoveErased(e, &a.slots[i].col, row)
			}
		}
	}

	w.entityCount -= a.count
	h := a.sig.Hash()
	bucket := w.sigIndex[h]
	for i, cand := range bucket {
		if cand == a {
			w.sigIndex[h] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}

	for row := 0; row < a.count; row++ {
		e := a.entities[row]
		w.entities[e.index] = entityMeta{version: w.entities[e.index].version + 1}
		w.freeEntityIndices = append(w.freeEntityIndices, e.index)
	}

	w.archetypeVersions[idx]++
	w.archetypes[idx] = nil
	w.freeArchetypeIndices = append(w.freeArchetypeIndices, idx)
	w.structureCounter++
	Publish(w.Events, ArchetypeDestroyed{Signature: a.sig})
}

func (w *World) resizeBacking(a *Archetype) {
	if w.deferralDepth > 0 {
		w.queue = append(w.queue, opResizeBacking{archIdx: a.selfIdx, archVersion: a.version})
		return
	}
	a.shrinkToFit()
}
