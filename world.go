package ecskern

// entityMeta is the world-internal record behind an Entity handle:
// spec.md 3's "{ version, archetype_ref, row }". archetype is nil for an
// entity that was pre-allocated by a deferred Create and has not yet been
// attached to its target archetype by the drain.
type entityMeta struct {
	archetype *Archetype
	row       int
	version   uint32
}

// WorldOptions configures a new World, mirroring the teacher's
// WorldOptions{InitialCapacity}.
type WorldOptions struct {
	// InitialCapacity sizes the entity directory up front to avoid the
	// first few doublings. Zero means defaultInitialCapacity.
	InitialCapacity int
}

const defaultInitialCapacity = 1024

// World is the top-level container: the entity directory, the archetype
// directory and its signature index, the structural-event queue, and the
// per-type callback/resource state (spec.md 3).
type World struct {
	id   uint32
	Name string

	entities          []entityMeta
	freeEntityIndices []uint32

	archetypes           []*Archetype
	archetypeVersions    []uint32
	freeArchetypeIndices []int
	sigIndex             map[uint64][]*Archetype

	structureCounter uint64
	entityCount      int

	scratch Signature

	perType map[TypeID]*typeState

	deferralDepth int
	queue         []entityOperation

	// DroppedDeferredOps counts pre-allocated entities dropped during
	// drain because their target archetype was destroyed in the
	// meantime (spec.md 9's resolved Open Question).
	DroppedDeferredOps int

	// Events is a general out-of-band pub/sub channel, independent of
	// the per-component on_set/on_remove registry — SPEC_FULL.md §5's
	// supplemented feature, adapted from the teacher's EventBus.
	Events *EventBus
}

// NewWorld creates a world with the default initial capacity.
func NewWorld() *World {
	return NewWorldWithOptions(WorldOptions{})
}

// NewWorldWithOptions creates a world, reserving index 0 as the
// permanently-invalid sentinel handle (spec.md 4.4).
func NewWorldWithOptions(opts WorldOptions) *World {
	cap := opts.InitialCapacity
	if cap <= 0 {
		cap = defaultInitialCapacity
	}
	w := &World{
		entities: make([]entityMeta, 1, cap),
		sigIndex: make(map[uint64][]*Archetype),
		perType:  make(map[TypeID]*typeState),
		Events:   newEventBus(),
	}
	w.entities[0] = entityMeta{version: 1}
	process.register(w)
	return w
}

// Destroy releases the world: every archetype is torn down (version-
// bumping its entities and firing remove listeners), then the world's id
// is returned to the process pool. Per spec.md 5, resource release is
// guaranteed on every exit path — callers that wrap this in defer get
// that for free from Go's own defer semantics.
func (w *World) Destroy() {
	for _, a := range w.archetypes {
		if a != nil {
			w.destroyArchetypeImmediate(a.selfIdx, a.version)
		}
	}
	w.entityCount = 0
	process.unregister(w.id)
}

// EntityCount returns the total live entity count across all archetypes.
func (w *World) EntityCount() int { return w.entityCount }

// CreateEntity creates a new entity with no components, in the world's
// empty archetype (the archetype whose signature is the empty set). Use
// Set[T] to attach components one at a time, migrating the entity into
// successively richer archetypes, or call CreateEntity/CreateEntities on
// an existing non-empty *Archetype (spec.md 4.7) to create directly into
// it — e.g. e.Archetype().CreateEntity() after seeding one entity gives a
// second entity in the same archetype with every component defaulted.
func (w *World) CreateEntity() Entity {
	w.scratch.Clear()
	target := w.getOrCreateArchetype(&w.scratch)
	return w.createEntity(target)
}

func (w *World) entityVersion(index uint32) uint32 {
	if int(index) >= len(w.entities) {
		return 0
	}
	return w.entities[index].version
}

func (w *World) entityMetaIfValid(e Entity) (entityMeta, bool) {
	if int(e.index) >= len(w.entities) {
		return entityMeta{}, false
	}
	m := w.entities[e.index]
	if m.version != e.version {
		return entityMeta{}, false
	}
	return m, true
}

func (w *World) archetypeVersion(idx int) uint32 {
	if idx < 0 || idx >= len(w.archetypeVersions) {
		return 0
	}
	return w.archetypeVersions[idx]
}

// allocEntityIndex pops a free directory slot or extends the directory
// (doubling), per spec.md 4.4. It does not touch entityCount or attach
// any archetype; callers finish wiring the record.
func (w *World) allocEntityIndex() (uint32, uint32) {
	if n := len(w.freeEntityIndices); n > 0 {
		idx := w.freeEntityIndices[n-1]
		w.freeEntityIndices = w.freeEntityIndices[:n-1]
		return idx, w.entities[idx].version
	}
	idx := uint32(len(w.entities))
	w.entities = extendLen(w.entities, 1)
	w.entities[idx] = entityMeta{version: 1}
	return idx, 1
}

// getOrCreateArchetype resolves sig to its archetype, creating one if no
// existing archetype matches (spec.md 4.4). sig is consumed by value into
// a freshly owned copy; the caller's own scratch signature is never
// aliased into long-lived storage.
func (w *World) getOrCreateArchetype(sig *Signature) *Archetype {
	h := sig.Hash()
	for _, a := range w.sigIndex[h] {
		if a.sig.Equal(sig) {
			return a
		}
	}

	owned := sig.Clone()
	a := newArchetype(w, owned)

	var idx int
	if n := len(w.freeArchetypeIndices); n > 0 {
		idx = w.freeArchetypeIndices[n-1]
		w.freeArchetypeIndices = w.freeArchetypeIndices[:n-1]
		w.archetypes[idx] = a
	} else {
		idx = len(w.archetypes)
		w.archetypes = append(w.archetypes, a)
		w.archetypeVersions = append(w.archetypeVersions, 0)
	}
	a.selfIdx = idx
	a.version = w.archetypeVersions[idx]
	w.sigIndex[h] = append(w.sigIndex[h], a)
	w.structureCounter++
	Publish(w.Events, ArchetypeCreated{Archetype: a})
	return a
}

// typeForState returns (creating if needed) the per-type world state for
// id: listeners and resource slot. Deferred-Set values are not kept here;
// they ride in the queued opSet[T] operations.
func (w *World) typeForState(id TypeID) *typeState {
	ts, ok := w.perType[id]
	if !ok {
		ts = &typeState{}
		w.perType[id] = ts
	}
	return ts
}
