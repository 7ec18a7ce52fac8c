package strata

import (
	"testing"
	"unsafe"
)

func TestArchetypePushAndHas(t *testing.T) {
	descA := testDesc(1)
	descB := testDesc(2)
	a := NewArchetype([]ComponentDesc{descA, descB})

	e := NewEntity(100, 0, EntityKindRegular)
	slot := a.Push(e, 0)

	if !a.Has(descA.Key) || !a.Has(descB.Key) {
		t.Fatal("expected archetype to carry both components after Push")
	}
	if a.EntityAt(slot) != e {
		t.Errorf("EntityAt(%d) = %v, want %v", slot, a.EntityAt(slot), e)
	}
	if a.Len() != 1 {
		t.Errorf("Len() = %d, want 1", a.Len())
	}
}

func TestArchetypeMoveToSharedAndDroppedColumns(t *testing.T) {
	descShared := testDesc(1)
	descOnlySrc := testDesc(2)
	descOnlyDst := testDesc(3)

	src := NewArchetype([]ComponentDesc{descShared, descOnlySrc})
	dst := NewArchetype([]ComponentDesc{descShared, descOnlyDst})

	e0 := NewEntity(1, 0, EntityKindRegular)
	e1 := NewEntity(2, 0, EntityKindRegular)
	slot0 := src.Push(e0, 0)
	_ = src.Push(e1, 0)

	sharedCell, _ := src.CellFor(descShared.Key)
	var v int64 = 42
	memcopy(sharedCell.Get(slot0), unsafe.Pointer(&v), descShared.Size)

	res := src.MoveTo(dst, slot0, 1)

	if !res.Moved || res.MovedEntity != e1 {
		t.Fatalf("expected e1 to backfill slot0, got Moved=%v MovedEntity=%v", res.Moved, res.MovedEntity)
	}
	if src.Len() != 1 {
		t.Fatalf("src.Len() = %d, want 1 after move", src.Len())
	}
	if src.EntityAt(0) != e1 {
		t.Errorf("src slot 0 after move = %v, want %v (backfilled)", src.EntityAt(0), e1)
	}
	if dst.Len() != 1 || dst.EntityAt(res.NewSlot) != e0 {
		t.Fatalf("expected e0 at dst slot %d", res.NewSlot)
	}

	dstSharedCell, _ := dst.CellFor(descShared.Key)
	got := *(*int64)(dstSharedCell.Get(res.NewSlot))
	if got != 42 {
		t.Errorf("shared component value = %d, want 42 (carried across MoveTo)", got)
	}

	if dst.Has(descOnlySrc.Key) {
		t.Error("dst should not gain a component only src had")
	}
	if !dst.Has(descOnlyDst.Key) {
		t.Error("dst should keep its own component")
	}
}

func TestArchetypeRemoveFromRootCompactsInPlace(t *testing.T) {
	root := NewArchetype(nil)

	e0 := NewEntity(1, 0, EntityKindRegular)
	e1 := NewEntity(2, 0, EntityKindRegular)
	root.Push(e0, 0)
	root.Push(e1, 0)

	res := root.Remove(root, 0, 0)

	if !res.Moved || res.MovedEntity != e1 {
		t.Fatalf("expected e1 to backfill slot0, got Moved=%v MovedEntity=%v", res.Moved, res.MovedEntity)
	}
	if root.Len() != 1 {
		t.Fatalf("root.Len() = %d, want 1 after removing e0", root.Len())
	}
	if root.EntityAt(0) != e1 {
		t.Errorf("root slot 0 after remove = %v, want %v (backfilled)", root.EntityAt(0), e1)
	}
}

func TestArchetypeRelationCells(t *testing.T) {
	relID := NewEntity(9, 0, EntityKindRelation)
	obj1 := NewEntity(1, 0, EntityKindRegular)
	obj2 := NewEntity(2, 0, EntityKindRegular)
	plain := testDesc(1)

	descRel1 := ComponentDesc{Key: ComponentKey{ID: relID, Object: Some(obj1)}, Size: 8, Align: 8}
	descRel2 := ComponentDesc{Key: ComponentKey{ID: relID, Object: Some(obj2)}, Size: 8, Align: 8}

	descs := []ComponentDesc{plain, descRel1, descRel2}
	a := NewArchetype(sortedDescs(descs))

	indices := a.RelationCells(relID)
	if len(indices) != 2 {
		t.Fatalf("RelationCells() returned %d indices, want 2", len(indices))
	}
	for _, i := range indices {
		if a.descs[i].Key.ID != relID {
			t.Errorf("relation cell %d has ID %v, want %v", i, a.descs[i].Key.ID, relID)
		}
	}
}
