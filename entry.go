package strata

import "unsafe"

// Entry borrows a single component slot for one entity, either already
// populated (Occupied) or not (Vacant), so insert-if-missing and
// read-modify-write patterns don't need a separate Has check plus a
// second lookup. Grounded on original_source/src/entity_ref.rs's
// entry()/Entry and src/entry.rs's OccupiedEntry/VacantEntry.
type Entry[T any] interface {
	// OrInsert returns the current value, first setting it to value if
	// the entry was vacant.
	OrInsert(value T) *T
	// OrInsertWith is OrInsert, computing the value lazily.
	OrInsertWith(f func() T) *T
	// AndModify calls f against the current value if the entry is
	// occupied, and returns the same Entry either way.
	AndModify(f func(*T)) Entry[T]
}

// EntryFor builds an Entry for entity's comp, reporting which kind it
// is by checking the entity's current archetype.
func EntryFor[T any](as *Archetypes, loc EntityLocator, entity Entity, comp Component[T], tick uint32) (Entry[T], error) {
	l, ok := loc.Location(entity)
	if !ok {
		return nil, NoSuchEntityError{Entity: entity}
	}
	arch := as.Get(l.ArchID)
	if cell, ok := arch.CellFor(comp.Desc.Key); ok {
		return &occupiedEntry[T]{comp: comp, cell: cell, slot: l.Slot}, nil
	}
	return &vacantEntry[T]{as: as, loc: loc, entity: entity, comp: comp, tick: tick}, nil
}

type occupiedEntry[T any] struct {
	comp Component[T]
	cell *Cell
	slot Slot
}

func (e *occupiedEntry[T]) OrInsert(T) *T            { return e.comp.Get(e.cell, e.slot) }
func (e *occupiedEntry[T]) OrInsertWith(func() T) *T { return e.comp.Get(e.cell, e.slot) }
func (e *occupiedEntry[T]) AndModify(f func(*T)) Entry[T] {
	f(e.comp.Get(e.cell, e.slot))
	return e
}

type vacantEntry[T any] struct {
	as     *Archetypes
	loc    EntityLocator
	entity Entity
	comp   Component[T]
	tick   uint32
}

func (e *vacantEntry[T]) OrInsert(value T) *T        { return e.insert(value) }
func (e *vacantEntry[T]) OrInsertWith(f func() T) *T { return e.insert(f()) }
func (e *vacantEntry[T]) AndModify(func(*T)) Entry[T] { return e }

func (e *vacantEntry[T]) insert(value T) *T {
	newLoc, err := e.as.SetComponent(e.loc, e.entity, e.comp.Desc, unsafe.Pointer(&value), e.tick)
	if err != nil {
		panic(err)
	}
	arch := e.as.Get(newLoc.ArchID)
	cell, _ := arch.CellFor(e.comp.Desc.Key)
	return e.comp.Get(cell, newLoc.Slot)
}
