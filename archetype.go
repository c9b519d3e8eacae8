package ecskern

// minArchetypeCapacity is the floor power of two a table's row capacity
// never shrinks below (spec.md 4.3's shrink_to_fit floor).
const minArchetypeCapacity = 8

// columnSlot is one cell of an archetype's column-index hash table:
// spec.md 4.3's "{ type_id, next, buffer }" forming intra-array chains.
// An empty slot has typeID == 0 (id 0 is never issued by the registry)
// and next == -1.
type columnSlot struct {
	typeID TypeID
	next   int
	col    column
}

// Archetype is a columnar table for every entity sharing one Signature:
// a dense entity column plus one dense column per component type, and the
// open-addressed hash table that maps a type id to its column slot in
// O(1) expected time (spec.md 4.3).
type Archetype struct {
	world    *World
	selfIdx  int // this archetype's slot in world.archetypes
	version  uint32
	sig      Signature
	slots    []columnSlot
	entities []Entity
	count    int
	capacity int
}

// newArchetype builds the column-index hash for sig via the two-pass
// placement spec.md 4.3 specifies: ids that don't collide at id mod size
// land directly; collisions are chained off the tail of the bucket they
// collided with, linked into the first free slot found anywhere in the
// table.
func newArchetype(w *World, sig Signature) *Archetype {
	size := sig.Len()
	if size < 1 {
		size = 1
	}
	slots := make([]columnSlot, size)
	for i := range slots {
		slots[i].next = -1
	}

	placed := make([]bool, sig.Len())
	for i, id := range sig.ids {
		h := int(id) % size
		if slots[h].typeID == 0 {
			slots[h] = columnSlot{typeID: id, next: -1, col: newColumn(id, minArchetypeCapacity)}
			placed[i] = true
		}
	}
	for i, id := range sig.ids {
		if placed[i] {
			continue
		}
		h := int(id) % size
		tail := h
		for slots[tail].next != -1 {
			tail = slots[tail].next
		}
		empty := -1
		for j := range slots {
			if slots[j].typeID == 0 {
				empty = j
				break
			}
		}
		if empty == -1 {
			panic(framework("column index table exhausted during archetype construction"))
		}
		slots[empty] = columnSlot{typeID: id, next: -1, col: newColumn(id, minArchetypeCapacity)}
		slots[tail].next = empty
	}

	a := &Archetype{
		world:    w,
		sig:      sig,
		slots:    slots,
		entities: make([]Entity, 0, minArchetypeCapacity),
		capacity: minArchetypeCapacity,
	}
	return a
}

// columnFor probes id mod size and follows the next chain to find id's
// column, returning nil if the table does not carry that type.
func (a *Archetype) columnFor(id TypeID) *column {
	if len(a.slots) == 0 {
		return nil
	}
	idx := int(id) % len(a.slots)
	for idx != -1 {
		if a.slots[idx].typeID == id {
			return &a.slots[idx].col
		}
		if a.slots[idx].typeID == 0 {
			return nil
		}
		idx = a.slots[idx].next
	}
	return nil
}

// has is columnFor's boolean form, spec.md 4.3.
func (a *Archetype) has(id TypeID) bool {
	return a.columnFor(id) != nil
}

// ensureCapacity doubles the table's row capacity (entity column plus
// every component column) until it can hold n rows.
func (a *Archetype) ensureCapacity(n int) {
	if n <= a.capacity {
		return
	}
	newCap := nextPow2(n)
	if newCap < minArchetypeCapacity {
		newCap = minArchetypeCapacity
	}
	a.capacity = newCap
	a.entities = reallocCap(a.entities, newCap)
	for i := range a.slots {
		if a.slots[i].typeID != 0 {
			a.slots[i].col.ensure(newCap)
		}
	}
}

// appendRow grows the table by one row holding e, appending a matching
// zero-valued row to every component column so each column's own length
// stays in lockstep with a.count — the invariant swapRemoveRow depends on
// to index col.len()-1 as "the last live row" instead of panicking on a
// column that never grew past its initial zero length. Returns the row
// index the entity (and every column) was written to.
func (a *Archetype) appendRow(e Entity) int {
	a.ensureCapacity(a.count + 1)
	row := a.count
	a.entities = a.entities[:row+1]
	a.entities[row] = e
	for i := range a.slots {
		if a.slots[i].typeID != 0 {
			a.slots[i].col.append()
		}
	}
	a.count++
	return row
}

// swapRemoveRow removes row by overwriting it with the last row and
// shrinking count by one (spec.md glossary: swap-remove). Reports the
// entity that used to occupy the last row, if a swap actually happened,
// so the caller can fix up that entity's directory record.
func (a *Archetype) swapRemoveRow(row int) (swappedIn Entity, moved bool) {
	last := a.count - 1
	if row < 0 || row > last {
		panic(framework("swapRemoveRow: row out of range"))
	}
	if row != last {
		a.entities[row] = a.entities[last]
		swappedIn = a.entities[row]
		moved = true
	}
	a.entities = a.entities[:last]
	for i := range a.slots {
		if a.slots[i].typeID != 0 {
			a.slots[i].col.swapRemove(row)
		}
	}
	a.count--
	return swappedIn, moved
}

// shrinkToFit reduces the table's capacity to the smallest power of two
// at least max(8, count), truncating every column (spec.md 4.5's
// resize_backing / 4.3's shrink_to_fit).
func (a *Archetype) shrinkToFit() {
	newCap := nextPow2(a.count)
	if newCap < minArchetypeCapacity {
		newCap = minArchetypeCapacity
	}
	if newCap == a.capacity {
		return
	}
	a.capacity = newCap
	a.entities = reallocCap(a.entities, newCap)
	for i := range a.slots {
		if a.slots[i].typeID != 0 {
			a.slots[i].col.truncate(newCap)
		}
	}
}

// --- public read surface (spec.md 4.7) ---

// IsValid reports whether this *Archetype pointer still refers to a live
// slot in its world (not freed and reused for a different signature).
func (a *Archetype) IsValid() bool {
	return a.world != nil && a.world.archetypeVersion(a.selfIdx) == a.version
}

// EntityCount returns the number of entities currently stored.
func (a *Archetype) EntityCount() int { return a.count }

// GetTypes returns the archetype's signature's type ids, in the
// signature's canonical (descending) order. The slice is a copy.
func (a *Archetype) GetTypes() []TypeID {
	out := make([]TypeID, len(a.sig.ids))
	copy(out, a.sig.ids)
	return out
}

// GetEntities returns a copy of the entity handles currently stored.
func (a *Archetype) GetEntities() []Entity {
	out := make([]Entity, a.count)
	copy(out, a.entities[:a.count])
	return out
}

// TryGetEntityBuffer returns a live view (length == EntityCount) over the
// entity column, or false if the archetype is no longer valid. Mutating
// this slice's contents is not meaningful; it exists for iteration.
func (a *Archetype) TryGetEntityBuffer() ([]Entity, bool) {
	if !a.IsValid() {
		return nil, false
	}
	return a.entities[:a.count], true
}

// TryGetComponentBuffer returns a live, typed view (length ==
// EntityCount) over T's column, or false if the archetype is invalid or
// does not carry T.
func TryGetComponentBuffer[T any](a *Archetype) ([]T, bool) {
	if !a.IsValid() {
		return nil, false
	}
	id, ok := tryIDOf[T]()
	if !ok {
		return nil, false
	}
	c := a.columnFor(id)
	if c == nil {
		return nil, false
	}
	return columnSliceView[T](c, a.count), true
}

// ResizeBackingArrays is the public spelling of resize_backing / shrink.
// Goes through the structural-event engine, so it defers like Destroy.
func (a *Archetype) ResizeBackingArrays() {
	a.world.resizeBacking(a)
}

// Destroy tears the archetype down through the structural-event engine
// (so it participates in deferral like every other structural op).
func (a *Archetype) Destroy() {
	if !a.IsValid() {
		return
	}
	a.world.destroyArchetype(a)
}

// CreateEntity allocates one entity directly in this archetype (bulk
// sibling: CreateEntities). Goes through the structural-event engine.
func (a *Archetype) CreateEntity() Entity {
	return a.world.createEntity(a)
}

// CreateEntities allocates n entities in this archetype in one call,
// growing the backing columns once instead of n times. This is the bulk
// primitive spec.md's Supplemented Features calls for (SPEC_FULL.md §5),
// grounded in the teacher's Batch[T1]/CreateBatch[T1].
func (a *Archetype) CreateEntities(n int) []Entity {
	return a.world.createEntities(a, n)
}
