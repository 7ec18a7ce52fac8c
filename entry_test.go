package strata

import "testing"

func TestEntryVacantOrInsert(t *testing.T) {
	as := NewArchetypes()
	loc := mapLocator{}
	posComp := NewComponent[Position](NewEntity(1, 0, EntityKindComponent))

	e := NewEntity(1, 0, EntityKindRegular)
	rootArch := as.Get(as.Root())
	slot := rootArch.Push(e, 0)
	loc.SetLocation(e, EntityLocation{ArchID: as.Root(), Slot: slot})

	entry, err := EntryFor(as, loc, e, posComp, 0)
	if err != nil {
		t.Fatalf("EntryFor() error = %v", err)
	}
	if _, ok := entry.(*occupiedEntry[Position]); ok {
		t.Fatal("expected a vacant entry for a component the entity doesn't carry")
	}

	got := entry.OrInsert(Position{X: 1, Y: 2})
	if got.X != 1 || got.Y != 2 {
		t.Errorf("OrInsert() = %+v, want {1 2}", *got)
	}

	l, _ := loc.Location(e)
	arch := as.Get(l.ArchID)
	if !arch.Has(posComp.Desc.Key) {
		t.Fatal("expected entity to carry the component after OrInsert")
	}
}

func TestEntryOccupiedAndModify(t *testing.T) {
	as := NewArchetypes()
	loc := mapLocator{}
	posComp := NewComponent[Position](NewEntity(1, 0, EntityKindComponent))

	e := NewEntity(2, 0, EntityKindRegular)
	rootArch := as.Get(as.Root())
	slot := rootArch.Push(e, 0)
	loc.SetLocation(e, EntityLocation{ArchID: as.Root(), Slot: slot})

	r, err := RefMut(loc, as, e, 0)
	if err != nil {
		t.Fatalf("RefMut() error = %v", err)
	}
	if _, err := SetOn(r, posComp, Position{X: 5, Y: 5}); err != nil {
		t.Fatalf("SetOn() error = %v", err)
	}

	entry, err := EntryOn(r, posComp)
	if err != nil {
		t.Fatalf("EntryOn() error = %v", err)
	}
	if _, ok := entry.(*occupiedEntry[Position]); !ok {
		t.Fatal("expected an occupied entry for a component the entity already carries")
	}

	entry.AndModify(func(p *Position) { p.X += 1 })

	l, _ := loc.Location(e)
	arch := as.Get(l.ArchID)
	cell, _ := arch.CellFor(posComp.Desc.Key)
	got := posComp.Get(cell, l.Slot)
	if got.X != 6 || got.Y != 5 {
		t.Errorf("after AndModify = %+v, want {6 5}", *got)
	}
}
