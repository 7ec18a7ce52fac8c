package strata

import "testing"

func TestOrMatchesEitherBranchAcrossArchetypes(t *testing.T) {
	as := NewArchetypes()
	loc := mapLocator{}

	posComp := NewComponent[Position](NewEntity(1, 0, EntityKindComponent))
	velComp := NewComponent[Velocity](NewEntity(2, 0, EntityKindComponent))

	ePos := NewEntity(10, 0, EntityKindRegular)
	spawnWith(t, as, loc, ePos, func(r EntityRefMut) {
		SetOn(r, posComp, Position{X: 1, Y: 1})
	})

	eVel := NewEntity(11, 0, EntityKindRegular)
	spawnWith(t, as, loc, eVel, func(r EntityRefMut) {
		SetOn(r, velComp, Velocity{DX: 1, DY: 1})
	})

	eNeither := NewEntity(12, 0, EntityKindRegular)
	spawnWith(t, as, loc, eNeither, func(EntityRefMut) {})

	pq, err := as.PrepareFetch(Or(Read[Position](posComp), Read[Velocity](velComp)))
	if err != nil {
		t.Fatalf("PrepareFetch() error = %v", err)
	}
	defer pq.Close()

	count := 0
	for batch := range pq.IterBatches() {
		count += batch.Len()
	}
	if count != 2 {
		t.Errorf("Or(Position,Velocity) matched %d rows, want 2 (ePos and eVel, not eNeither)", count)
	}
}

func TestOrFilterSlotsTakesEarliestShortestBranch(t *testing.T) {
	left := sliceFetch{result: Slice{Start: 5, End: 10}}
	right := sliceFetch{result: Slice{Start: 0, End: 3}}

	prepared := []PreparedFetch{left, right}
	got := minFilterSlots(prepared, Slice{Start: 0, End: 10})
	want := Slice{Start: 0, End: 3}
	if got != want {
		t.Errorf("minFilterSlots() = %+v, want %+v", got, want)
	}
}

func TestUnionRequiresAllBranchesMatchButUnionsSlots(t *testing.T) {
	as := NewArchetypes()
	loc := mapLocator{}

	posComp := NewComponent[Position](NewEntity(1, 0, EntityKindComponent))
	velComp := NewComponent[Velocity](NewEntity(2, 0, EntityKindComponent))

	eBoth := NewEntity(20, 0, EntityKindRegular)
	spawnWith(t, as, loc, eBoth, func(r EntityRefMut) {
		SetOn(r, posComp, Position{X: 1, Y: 1})
		SetOn(r, velComp, Velocity{DX: 1, DY: 1})
	})

	ePosOnly := NewEntity(21, 0, EntityKindRegular)
	spawnWith(t, as, loc, ePosOnly, func(r EntityRefMut) {
		SetOn(r, posComp, Position{X: 2, Y: 2})
	})

	pq, err := as.PrepareFetch(Union(Read[Position](posComp), Read[Velocity](velComp)))
	if err != nil {
		t.Fatalf("PrepareFetch() error = %v", err)
	}
	defer pq.Close()

	count := 0
	for batch := range pq.IterBatches() {
		count += batch.Len()
	}
	if count != 1 {
		t.Errorf("Union(Position,Velocity) matched %d rows, want 1 (only eBoth carries both)", count)
	}
}

type sliceFetch struct{ result Slice }

func (f sliceFetch) FilterSlots(Slice) Slice { return f.result }
func (f sliceFetch) Fetch(Slot) any          { return struct{}{} }
func (f sliceFetch) SetVisited(Slice)        {}
func (f sliceFetch) Release()                {}

// TestMinFilterSlotsIgnoresEmptyBranch guards the bug where a
// non-participating branch's Slice{} zero value (Start=0,End=0) beat a
// real, later-starting match on raw (Start,End) comparison.
func TestMinFilterSlotsIgnoresEmptyBranch(t *testing.T) {
	noMatch := sliceFetch{result: Slice{}}
	realMatch := sliceFetch{result: Slice{Start: 5, End: 8}}

	got := minFilterSlots([]PreparedFetch{noMatch, realMatch}, Slice{Start: 0, End: 10})
	want := Slice{Start: 5, End: 8}
	if got != want {
		t.Errorf("minFilterSlots() = %+v, want %+v (empty branch must not win)", got, want)
	}
}

// TestUnionOfChangedSurfacesSoleChangedBranch reproduces the scenario
// the bug above broke: Union(Changed(a), Changed(b)) over a row where
// only a changed must still yield a's range, not an empty batch.
func TestUnionOfChangedSurfacesSoleChangedBranch(t *testing.T) {
	as := NewArchetypes()

	posComp := NewComponent[Position](NewEntity(1, 0, EntityKindComponent))
	velComp := NewComponent[Velocity](NewEntity(2, 0, EntityKindComponent))

	_, arch := as.FindCreate(sortedDescs([]ComponentDesc{posComp.Desc, velComp.Desc}))
	for i := 0; i < 8; i++ {
		arch.Push(NewEntity(uint32(i), 0, EntityKindRegular), 0)
	}

	posCell, _ := arch.CellFor(posComp.Desc.Key)
	posComp.Set(posCell, 5, Position{X: 1, Y: 1}, 10)
	// velCell is deliberately left untouched past its tick-0 insert: the
	// Velocity branch of the Union has nothing to report.

	pq, err := as.PrepareFetch(Union(Changed(posComp.Desc.Key, 9), Changed(velComp.Desc.Key, 9)))
	if err != nil {
		t.Fatalf("PrepareFetch() error = %v", err)
	}
	defer pq.Close()

	count := 0
	for batch := range pq.IterBatches() {
		if !batch.Slots().Equal(NewSlice(5, 6)) {
			t.Errorf("batch slots = %+v, want [5,6)", batch.Slots())
		}
		count += batch.Len()
	}
	if count != 1 {
		t.Errorf("Union(Changed(pos),Changed(vel)) matched %d rows, want 1 (pos changed at slot 5)", count)
	}
}
