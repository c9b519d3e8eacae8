package ecskern

import "testing"

type qPosition struct{ X, Y float32 }
type qVelocity struct{ DX, DY float32 }
type qDead struct{}

func TestQueryIncludeMatchesOnlyQualifyingArchetypes(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	onlyPos := w.CreateEntity()
	Set(onlyPos, qPosition{X: 1, Y: 1})

	both := w.CreateEntity()
	Set(both, qPosition{X: 2, Y: 2})
	Set(both, qVelocity{DX: 1, DY: 1})

	q := NewQuery(w)
	Include[qPosition](q)
	Include[qVelocity](q)

	if q.EntityCount() != 1 {
		t.Errorf("expected 1 matching entity, got %d", q.EntityCount())
	}

	visited := 0
	ForEach(q, func(e Entity, v *qVelocity) {
		visited++
		if e != both {
			t.Errorf("expected only the dual-component entity to match")
		}
	})
	if visited != 1 {
		t.Errorf("expected ForEach to visit exactly 1 entity, got %d", visited)
	}
}

func TestQueryExcludeFiltersOut(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	alive := w.CreateEntity()
	Set(alive, qPosition{X: 1, Y: 1})

	dead := w.CreateEntity()
	Set(dead, qPosition{X: 2, Y: 2})
	Set(dead, qDead{})

	q := NewQuery(w)
	Include[qPosition](q)
	Exclude[qDead](q)

	if q.EntityCount() != 1 {
		t.Errorf("expected 1 matching entity after exclude, got %d", q.EntityCount())
	}
	ForEachEntity(q, func(e Entity) {
		if e != alive {
			t.Error("expected only the non-dead entity to match")
		}
	})
}

func TestQueryRepeatIncludeIsIdempotent(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	e := w.CreateEntity()
	Set(e, qPosition{X: 1, Y: 1})

	q := NewQuery(w)
	Include[qPosition](q)
	_ = q.EntityCount() // populate the match cache

	Include[qPosition](q) // repeat: no-op per Signature.Add idempotence
	if q.EntityCount() != 1 {
		t.Errorf("expected repeat Include to remain a no-op, got count %d", q.EntityCount())
	}
}

func TestQueryPicksUpArchetypesCreatedAfterFirstScan(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	q := NewQuery(w)
	Include[qPosition](q)

	if q.EntityCount() != 0 {
		t.Fatalf("expected 0 before any matching entity exists, got %d", q.EntityCount())
	}

	e := w.CreateEntity()
	Set(e, qPosition{X: 5, Y: 5})

	if q.EntityCount() != 1 {
		t.Errorf("expected query to observe the newly created archetype, got %d", q.EntityCount())
	}
}

func TestQueryClearResetsFilter(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	e := w.CreateEntity()
	Set(e, qPosition{X: 1, Y: 1})

	q := NewQuery(w)
	Include[qVelocity](q)
	if q.EntityCount() != 0 {
		t.Fatalf("expected 0 matches for velocity-only filter, got %d", q.EntityCount())
	}

	q.Clear()
	Include[qPosition](q)
	if q.EntityCount() != 1 {
		t.Errorf("expected 1 match after Clear and rebuilding the filter, got %d", q.EntityCount())
	}
}

func TestQueryDestroyMatching(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	for i := 0; i < 3; i++ {
		e := w.CreateEntity()
		Set(e, qDead{})
	}
	survivor := w.CreateEntity()
	Set(survivor, qPosition{X: 1, Y: 1})

	q := NewQuery(w)
	Include[qDead](q)
	q.DestroyMatching()

	if w.EntityCount() != 1 {
		t.Errorf("expected only the survivor left, got count %d", w.EntityCount())
	}
	if !survivor.IsValid() {
		t.Error("expected survivor entity to remain valid")
	}
}

func TestForEachMutatesComponentInPlace(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	e := w.CreateEntity()
	Set(e, qPosition{X: 0, Y: 0})
	Set(e, qVelocity{DX: 2, DY: 3})

	q := NewQuery(w)
	Include[qPosition](q)
	Include[qVelocity](q)

	ForEach(q, func(ent Entity, v *qVelocity) {
		pos := Get[qPosition](ent)
		pos.X += v.DX
		pos.Y += v.DY
	})

	got := Get[qPosition](e)
	if got.X != 2 || got.Y != 3 {
		t.Errorf("expected position updated to {2 3}, got %+v", *got)
	}
}
