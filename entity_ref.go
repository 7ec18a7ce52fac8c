package strata

import "unsafe"

// EntityRef borrows an entity's current archetype and slot once, so a
// caller doing several reads doesn't re-resolve its location each
// time. Grounded on original_source/src/entity_ref.rs's EntityRef.
type EntityRef struct {
	arch   *Archetype
	slot   Slot
	entity Entity
}

// Ref resolves entity's current location into an EntityRef.
func Ref(loc EntityLocator, as *Archetypes, entity Entity) (EntityRef, error) {
	l, ok := loc.Location(entity)
	if !ok {
		return EntityRef{}, NoSuchEntityError{Entity: entity}
	}
	return EntityRef{arch: as.Get(l.ArchID), slot: l.Slot, entity: entity}, nil
}

// ID returns the referenced entity.
func (r EntityRef) ID() Entity { return r.entity }

// Has reports whether the entity currently carries key.
func (r EntityRef) Has(key ComponentKey) bool { return r.arch.Has(key) }

// GetRef reads comp's current value for r's entity.
func GetRef[T any](r EntityRef, comp Component[T]) (*T, error) {
	cell, ok := r.arch.CellFor(comp.Desc.Key)
	if !ok {
		return nil, MissingComponentError{Entity: r.entity, Key: comp.Desc.Key}
	}
	return comp.Get(cell, r.slot), nil
}

// EntityRefMut borrows an entity for a sequence of mutations
// (Set/Remove/Retain/Despawn), saving the caller from re-looking up its
// location between each one's own call to Location. Grounded on
// original_source/src/entity_ref.rs's EntityRefMut.
type EntityRefMut struct {
	as     *Archetypes
	loc    EntityLocator
	entity Entity
	tick   uint32
}

// RefMut begins a mutation sequence against entity at the given tick.
func RefMut(loc EntityLocator, as *Archetypes, entity Entity, tick uint32) (EntityRefMut, error) {
	if _, ok := loc.Location(entity); !ok {
		return EntityRefMut{}, NoSuchEntityError{Entity: entity}
	}
	return EntityRefMut{as: as, loc: loc, entity: entity, tick: tick}, nil
}

// ID returns the referenced entity.
func (r EntityRefMut) ID() Entity { return r.entity }

func (r EntityRefMut) location() EntityLocation {
	l, _ := r.loc.Location(r.entity)
	return l
}

// Has reports whether the entity currently carries key.
func (r EntityRefMut) Has(key ComponentKey) bool {
	return r.as.Get(r.location().ArchID).Has(key)
}

// Remove drops a component from the entity.
func (r EntityRefMut) Remove(desc ComponentDesc) error {
	_, err := r.as.RemoveComponent(r.loc, r.entity, desc, r.tick)
	return err
}

// Retain keeps only the components for which keep returns true.
func (r EntityRefMut) Retain(keep func(ComponentKey) bool) error {
	_, err := r.as.Retain(r.loc, r.entity, keep, r.tick)
	return err
}

// Clear removes every component from the entity without despawning it.
func (r EntityRefMut) Clear() error {
	return r.Retain(func(ComponentKey) bool { return false })
}

// Despawn removes the entity's row entirely. r must not be used
// afterward.
func (r EntityRefMut) Despawn() error {
	return r.as.DespawnEntity(r.loc, r.entity)
}

// Downgrade resolves r's current location into a read-only EntityRef.
func (r EntityRefMut) Downgrade() (EntityRef, error) {
	return Ref(r.loc, r.as, r.entity)
}

// SetOn writes comp's value for r's entity, moving it to a neighboring
// archetype first if it doesn't already carry comp.
func SetOn[T any](r EntityRefMut, comp Component[T], value T) (*T, error) {
	newLoc, err := r.as.SetComponent(r.loc, r.entity, comp.Desc, unsafe.Pointer(&value), r.tick)
	if err != nil {
		return nil, err
	}
	arch := r.as.Get(newLoc.ArchID)
	cell, _ := arch.CellFor(comp.Desc.Key)
	return comp.Get(cell, newLoc.Slot), nil
}

// EntryOn builds an Entry for comp against r's entity.
func EntryOn[T any](r EntityRefMut, comp Component[T]) (Entry[T], error) {
	return EntryFor(r.as, r.loc, r.entity, comp, r.tick)
}
