package strata

import "unsafe"

// Mutator is the row-mutation surface the archetype graph exposes to an
// external World: every call that can move an entity between
// archetypes. *Archetypes implements it.
type Mutator interface {
	SetComponent(loc EntityLocator, e Entity, desc ComponentDesc, value unsafe.Pointer, tick uint32) (EntityLocation, error)
	RemoveComponent(loc EntityLocator, e Entity, desc ComponentDesc, tick uint32) (EntityLocation, error)
	Retain(loc EntityLocator, e Entity, keep func(ComponentKey) bool, tick uint32) (EntityLocation, error)
	DespawnEntity(loc EntityLocator, e Entity) error
	MigrateRow(loc EntityLocator, e Entity, newComponents []ComponentDesc, tick uint32) (EntityLocation, error)
}

var _ Mutator = (*Archetypes)(nil)
