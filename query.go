package ecskern

// Query is spec.md 4.6's filtered view over archetypes: a pair of
// include/exclude Signatures plus an incrementally maintained list of
// matching archetypes. Building a Query never itself allocates a match
// list eagerly — the first access (ForEach, EntityCount, DestroyMatching)
// triggers checkQueryChanges, which is also where a stale cache gets
// rebuilt after structural mutations elsewhere in the world.
//
// Grounded on TheBitDrifter-warehouse's query.go (its QueryNode tree
// evaluates the same include/exclude shape against an archetype's bitset
// every call) and edwinsyarief-lazyecs's deleted bitmask256 Filter[T]
// snapshot, whose updateMatching/lastVersion pair is the direct model for
// the structure-counter-driven invalidation below — the kept snapshot
// this module is built from has no query cache of its own to adapt, so
// this is SPEC_FULL.md's own synthesis from those two, not a straight
// port of either.
type Query struct {
	world   *World
	include Signature
	exclude Signature

	matching                 []*Archetype
	lastScannedIndex         int
	observedStructureCounter uint64
}

// NewQuery creates an empty query against w. Chain Include[T]/Exclude[T]
// to build up the filter before iterating.
func NewQuery(w *World) *Query {
	return &Query{world: w}
}

// Include adds T to the query's include set: only archetypes carrying T
// (among everything else already required) match. A repeat Include[T] for
// an already-included type is a no-op per spec.md 4.2's Add idempotence.
func Include[T any](q *Query) *Query {
	id := idOf[T]()
	if !q.include.Contains(id) {
		q.include.Add(id)
		q.invalidate()
	}
	return q
}

// Exclude adds T to the query's exclude set: archetypes carrying T never
// match, regardless of what else they carry.
func Exclude[T any](q *Query) *Query {
	id := idOf[T]()
	if !q.exclude.Contains(id) {
		q.exclude.Add(id)
		q.invalidate()
	}
	return q
}

// Clear empties both the include and exclude sets, per spec.md 4.6's
// builder surface.
func (q *Query) Clear() {
	q.include.Clear()
	q.exclude.Clear()
	q.invalidate()
}

// invalidate resets the match cache; any builder mutation (Include,
// Exclude, Clear) must call this, per spec.md 4.6: "Any mutation of the
// filter resets matching_archetypes, last_scanned_index, and
// observed_structure_counter." Forcing lastScannedIndex back to 0 makes
// the next checkQueryChanges re-derive the full match set regardless of
// whether the structure counter happens to already agree.
func (q *Query) invalidate() {
	q.matching = q.matching[:0]
	q.lastScannedIndex = 0
}

// checkQueryChanges is spec.md 4.6's materialization step. If the world
// structurally changed since the last scan, the cache is dropped and
// rebuilt from archetype 0; otherwise the scan resumes from
// lastScannedIndex through the current archetype directory length (the
// "arch_terminator"), appending any newly created archetype that matches.
// Archetype-destruction reuse (a freed slot given a new signature) also
// bumps the world's structure counter, which is why a full rescan from
// zero — not just an incremental append — is the correct response to any
// counter change: a stale entry already in matching may no longer match.
func checkQueryChanges(q *Query) {
	w := q.world
	if w.structureCounter != q.observedStructureCounter {
		q.matching = q.matching[:0]
		q.lastScannedIndex = 0
	}
	for ; q.lastScannedIndex < len(w.archetypes); q.lastScannedIndex++ {
		a := w.archetypes[q.lastScannedIndex]
		if a == nil {
			continue
		}
		if matchesQuery(q, a) {
			q.matching = append(q.matching, a)
		}
	}
	q.observedStructureCounter = w.structureCounter
}

func matchesQuery(q *Query, a *Archetype) bool {
	return a.sig.HasAll(&q.include) && !a.sig.HasAny(&q.exclude)
}

// EntityCount sums EntityCount() over every matching archetype.
func (q *Query) EntityCount() int {
	checkQueryChanges(q)
	total := 0
	for _, a := range q.matching {
		total += a.count
	}
	return total
}

// DestroyMatching destroys every entity in every matching archetype by
// destroying the archetypes themselves (spec.md 4.6). Each Destroy is
// itself structural and so participates in deferral like any other
// structural call — inside a CacheStructuralEvents(true) region this
// enqueues rather than executing immediately.
func (q *Query) DestroyMatching() {
	checkQueryChanges(q)
	for _, a := range q.matching {
		a.Destroy()
	}
}

// ForEach is the single-component primitive the generated arity-N
// Foreach wrappers spec.md Section 1 excludes from scope would fan out
// from. It increments the world's deferral depth for the span of the
// loop (spec.md 6: structural mutations inside for_each are deferred
// automatically) and resolves T's column pointer once per archetype,
// matching the "no vtable walks on the hot iteration path" design note in
// spec.md 9.
//
// T must already be part of q's include set (via Include[T]) for every
// matched archetype to carry it; ForEach still guards defensively against
// a missing column, mirroring the generated variants' own defensive
// guard, but that path is unreachable when the query was built correctly.
func ForEach[T any](q *Query, fn func(e Entity, c *T)) {
	w := q.world
	w.deferralDepth++
	defer func() {
		w.deferralDepth--
		if w.deferralDepth == 0 {
			w.drainQueue()
		}
	}()

	checkQueryChanges(q)
	id := idOf[T]()
	for _, a := range q.matching {
		n := a.count
		if n == 0 {
			continue
		}
		c := a.columnFor(id)
		if c == nil {
			continue
		}
		view := columnSliceView[T](c, n)
		entities := a.entities[:n]
		for i := 0; i < n; i++ {
			fn(entities[i], &view[i])
		}
	}
}

// ForEachEntity iterates the entity handles of every matching archetype
// without binding any component column — useful for queries built purely
// from Exclude, or when the callback only needs Has/Get on specific
// components rather than every row of one column. Participates in
// deferral identically to ForEach.
func ForEachEntity(q *Query, fn func(e Entity)) {
	w := q.world
	w.deferralDepth++
	defer func() {
		w.deferralDepth--
		if w.deferralDepth == 0 {
			w.drainQueue()
		}
	}()

	checkQueryChanges(q)
	for _, a := range q.matching {
		n := a.count
		entities := a.entities[:n]
		for i := 0; i < n; i++ {
			fn(entities[i])
		}
	}
}
