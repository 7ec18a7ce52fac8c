package strata

import (
	"sort"

	"github.com/TheBitDrifter/mask"
)

// ArchetypeID identifies an Archetype within an Archetypes graph. It is
// a dense 1-based index into the graph's backing slice; 0 is never
// issued and is reserved as "no id".
type ArchetypeID uint32

// MoveResult reports the side effects of Archetype.MoveTo: the new slot
// the moved entity occupies in the destination, and, if the vacated row
// wasn't already the last one, which entity got swapped into its place
// in the source (so the caller can fix up its own entity→location
// bookkeeping).
type MoveResult struct {
	NewSlot     Slot
	Moved       bool
	MovedEntity Entity
}

// Archetype stores every entity that carries exactly one multiset of
// component kinds, one column (Cell) per component, plus the graph
// edges linking it to neighboring archetypes that differ by exactly one
// component.
type Archetype struct {
	descs    []ComponentDesc // canonical ascending order by ComponentKey
	cells    []*Cell         // cells[i] backs descs[i]
	entities []Entity

	outgoing map[ComponentKey]ArchetypeID
	incoming map[ComponentKey]ArchetypeID

	subscribers []EventSubscriber

	mask mask.Mask
}

// NewArchetype builds an archetype for the given canonically-sorted
// component set. Callers within this package always pass an
// already-sorted slice; NewArchetype itself does not re-sort, mirroring
// the "components must be sorted" caller contract on find_create.
func NewArchetype(descs []ComponentDesc) *Archetype {
	a := &Archetype{
		descs:    descs,
		cells:    make([]*Cell, len(descs)),
		outgoing: make(map[ComponentKey]ArchetypeID),
		incoming: make(map[ComponentKey]ArchetypeID),
	}
	for i, d := range descs {
		a.cells[i] = NewCell(d)
	}
	return a
}

// Components returns the archetype's canonical component list.
func (a *Archetype) Components() []ComponentDesc {
	return a.descs
}

// Len returns the number of entities stored.
func (a *Archetype) Len() int {
	return len(a.entities)
}

// IsEmpty reports whether the archetype has no entities.
func (a *Archetype) IsEmpty() bool {
	return len(a.entities) == 0
}

// Slots returns the full occupied slot range, [0, Len()).
func (a *Archetype) Slots() Slice {
	return Slice{Start: 0, End: Slot(len(a.entities))}
}

// EntityAt returns the entity occupying slot.
func (a *Archetype) EntityAt(slot Slot) Entity {
	return a.entities[slot]
}

func (a *Archetype) indexOf(key ComponentKey) (int, bool) {
	i := sort.Search(len(a.descs), func(i int) bool { return !a.descs[i].Key.Less(key) })
	if i < len(a.descs) && a.descs[i].Key == key {
		return i, true
	}
	return 0, false
}

// Has reports whether the archetype carries the given component.
func (a *Archetype) Has(key ComponentKey) bool {
	_, ok := a.indexOf(key)
	return ok
}

// CellFor returns the cell backing key, if the archetype has it.
func (a *Archetype) CellFor(key ComponentKey) (*Cell, bool) {
	i, ok := a.indexOf(key)
	if !ok {
		return nil, false
	}
	return a.cells[i], true
}

// DescFor returns the descriptor for key, if the archetype has it.
func (a *Archetype) DescFor(key ComponentKey) (ComponentDesc, bool) {
	i, ok := a.indexOf(key)
	if !ok {
		return ComponentDesc{}, false
	}
	return a.descs[i], true
}

// RelationCells returns the indices, in ascending Object order, of
// every cell whose key is a relation with the given relation id.
func (a *Archetype) RelationCells(relationID Entity) []int {
	lo := sort.Search(len(a.descs), func(i int) bool { return a.descs[i].Key.ID >= relationID })
	var out []int
	for i := lo; i < len(a.descs) && a.descs[i].Key.ID == relationID; i++ {
		if a.descs[i].Key.IsRelation() {
			out = append(out, i)
		}
	}
	return out
}

// Push allocates a new row for entity, zero-filling every column and
// recording an Inserted change on each at tick.
func (a *Archetype) Push(entity Entity, tick uint32) Slot {
	slot := Slot(len(a.entities))
	a.entities = append(a.entities, entity)
	for _, c := range a.cells {
		c.PushZero(tick)
	}
	a.notifyInsert(SliceSingle(slot))
	return slot
}

// HasAll reports whether the archetype carries every component keyed
// in m, using the registry's bitset instead of the canonical ordered
// scan indexOf does. Cheaper when rejecting most of a large candidate
// set before the precise per-key FilterArch pass.
func (a *Archetype) HasAll(m mask.Mask) bool {
	return a.mask.ContainsAll(m)
}

// MoveTo relocates the row at slot into dst: components shared between
// the two archetypes are copied across and their change history
// migrated; components only this archetype has are destroyed (their
// Drop invoked, if any); components only dst has get a zero-filled row.
// The vacated row in a is then compacted via swap-remove.
func (a *Archetype) MoveTo(dst *Archetype, slot Slot, tick uint32) MoveResult {
	e := a.entities[slot]
	newSlot := Slot(len(dst.entities))
	dst.entities = append(dst.entities, e)

	i, j := 0, 0
	for i < len(a.descs) || j < len(dst.descs) {
		switch {
		case j >= len(dst.descs) || (i < len(a.descs) && a.descs[i].Key.Less(dst.descs[j].Key)):
			a.cells[i].DestroyValue(slot)
			i++
		case i >= len(a.descs) || (j < len(dst.descs) && dst.descs[j].Key.Less(a.descs[i].Key)):
			dst.cells[j].PushZero(tick)
			j++
		default:
			dst.cells[j].CopyAppendFrom(a.cells[i], slot)
			a.cells[i].changes.MigrateTo(dst.cells[j].changes, slot, newSlot)
			i++
			j++
		}
	}

	last := Slot(len(a.entities) - 1)
	moved := slot != last
	var movedEntity Entity
	if moved {
		movedEntity = a.entities[last]
	}
	for _, c := range a.cells {
		c.SwapRemove(slot)
		c.changes.SwapOut(slot, last)
	}
	if moved {
		a.entities[slot] = a.entities[last]
	}
	a.entities = a.entities[:last]

	a.notifyRemove(SliceSingle(slot))
	dst.notifyInsert(SliceSingle(newSlot))

	return MoveResult{NewSlot: newSlot, Moved: moved, MovedEntity: movedEntity}
}

// Remove vacates slot entirely by moving it into root (an archetype
// with no components), destroying every value it held. It is MoveTo's
// degenerate case, not a distinct algorithm.
func (a *Archetype) Remove(root *Archetype, slot Slot, tick uint32) MoveResult {
	if a == root {
		return a.vacate(slot)
	}
	return a.MoveTo(root, slot, tick)
}

// vacate destroys the row at slot in place, without relocating it to
// any other archetype. Remove delegates here when a is already root: a
// row already in root moving to root has nowhere to go, and appending
// a "new" row onto a.entities while reading from the same slice would
// corrupt the compaction below (dst.entities and a.entities alias).
func (a *Archetype) vacate(slot Slot) MoveResult {
	for _, c := range a.cells {
		c.DestroyValue(slot)
	}

	last := Slot(len(a.entities) - 1)
	moved := slot != last
	var movedEntity Entity
	if moved {
		movedEntity = a.entities[last]
	}
	for _, c := range a.cells {
		c.SwapRemove(slot)
		c.changes.SwapOut(slot, last)
	}
	if moved {
		a.entities[slot] = a.entities[last]
	}
	a.entities = a.entities[:last]

	a.notifyRemove(SliceSingle(slot))

	return MoveResult{NewSlot: 0, Moved: moved, MovedEntity: movedEntity}
}

// AddOutgoing records that adding key moves an entity here to dst.
func (a *Archetype) AddOutgoing(key ComponentKey, dst ArchetypeID) {
	a.outgoing[key] = dst
}

// AddIncoming records that src reaches this archetype by adding key.
func (a *Archetype) AddIncoming(key ComponentKey, src ArchetypeID) {
	a.incoming[key] = src
}

// RemoveLink drops the outgoing edge for key, used when the archetype
// on the far end of that edge is pruned away.
func (a *Archetype) RemoveLink(key ComponentKey) {
	delete(a.outgoing, key)
}

// AddHandler registers a subscriber as interested in this archetype's
// row events.
func (a *Archetype) AddHandler(s EventSubscriber) {
	a.subscribers = append(a.subscribers, s)
}

func (a *Archetype) notifyInsert(slots Slice) {
	for _, s := range a.subscribers {
		s.OnInsert(a, slots)
	}
}

func (a *Archetype) notifyRemove(slots Slice) {
	for _, s := range a.subscribers {
		s.OnRemove(a, slots)
	}
}

func (a *Archetype) notifyModified(slots Slice) {
	for _, s := range a.subscribers {
		s.OnModified(a, slots)
	}
}
