package ecskern

import "testing"

type cbHealth struct{ HP int }
type cbPosition struct{ X, Y float32 }

func TestOnSetFullReceivesOldAndNew(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	var oldSeen, newSeen int
	fn := func(e Entity, old, newVal *cbHealth) {
		oldSeen = old.HP
		newSeen = newVal.HP
	}
	OnSetFull(w, fn, true)

	e := w.CreateEntity()
	Set(e, cbHealth{HP: 10})
	if oldSeen != 0 || newSeen != 10 {
		t.Errorf("expected old=0 new=10 on initial set, got old=%d new=%d", oldSeen, newSeen)
	}

	Set(e, cbHealth{HP: 7})
	if oldSeen != 10 || newSeen != 7 {
		t.Errorf("expected old=10 new=7 on overwrite, got old=%d new=%d", oldSeen, newSeen)
	}
}

func TestOnSetValueShape(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	var seen float32
	OnSetValue(w, func(p *cbPosition) { seen = p.X }, true)

	e := w.CreateEntity()
	Set(e, cbPosition{X: 42})
	if seen != 42 {
		t.Errorf("expected listener to observe X=42, got %v", seen)
	}
}

func TestOnRemoveFullFiresOnEntityDestroy(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	var removedHP int
	var removedEntity Entity
	OnRemoveFull(w, func(e Entity, old cbHealth) {
		removedEntity = e
		removedHP = old.HP
	}, true)

	e := w.CreateEntity()
	Set(e, cbHealth{HP: 3})
	e.Destroy()

	if removedEntity != e || removedHP != 3 {
		t.Errorf("expected remove listener to fire with (e, 3), got (%v, %d)", removedEntity, removedHP)
	}
}

func TestOnRemoveFiresOnExplicitRemoveComponent(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	var fired int
	OnRemove(w, func(old cbHealth) { fired++ }, true)

	e := w.CreateEntity()
	Set(e, cbHealth{HP: 5})
	RemoveComponent[cbHealth](e)

	if fired != 1 {
		t.Errorf("expected remove listener to fire exactly once, got %d", fired)
	}

	RemoveComponent[cbHealth](e) // idempotent: no second fire
	if fired != 1 {
		t.Errorf("expected no additional fire on redundant remove, got %d", fired)
	}
}

func TestUnregisterListenerStopsDelivery(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	fired := 0
	fn := func(e Entity, p *cbPosition) { fired++ }
	OnSet(w, fn, true)
	OnSet(w, fn, false)

	e := w.CreateEntity()
	Set(e, cbPosition{X: 1})
	if fired != 0 {
		t.Errorf("expected unregistered listener to not fire, got %d calls", fired)
	}
}

func TestOnRemoveFiresOnArchetypeDestroy(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	fired := 0
	OnRemove(w, func(old cbHealth) { fired++ }, true)

	e1 := w.CreateEntity()
	Set(e1, cbHealth{HP: 1})
	e2 := w.CreateEntity()
	Set(e2, cbHealth{HP: 2})

	e1.Archetype().Destroy()
	if fired != 2 {
		t.Errorf("expected remove listener fired for every entity in the destroyed archetype, got %d", fired)
	}
}

func TestWorldResourceSlot(t *testing.T) {
	w := NewWorld()
	defer w.Destroy()

	type config struct{ MaxEntities int }

	if _, ok := GetResource[config](w); ok {
		t.Fatal("expected no resource set initially")
	}

	SetResource(w, config{MaxEntities: 100})
	got, ok := GetResource[config](w)
	if !ok || got.MaxEntities != 100 {
		t.Errorf("expected resource {100}, got %+v ok=%v", got, ok)
	}

	SetResource(w, config{MaxEntities: 200})
	got2, _ := GetResource[config](w)
	if got2.MaxEntities != 200 {
		t.Errorf("expected overwritten resource value 200, got %d", got2.MaxEntities)
	}

	RemoveResource[config](w)
	if _, ok := GetResource[config](w); ok {
		t.Error("expected resource cleared after RemoveResource")
	}
}
