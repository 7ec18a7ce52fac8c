package strata

import "fmt"

// MissingComponentError is returned when an operation addresses a
// component an entity's archetype does not carry.
type MissingComponentError struct {
	Entity Entity
	Key    ComponentKey
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("entity %s has no component %s", e.Entity, e.Key)
}

// BorrowConflictError is returned when a read or write borrow on a Cell
// could not be acquired because of a conflicting live borrow.
type BorrowConflictError struct {
	Key ComponentKey
}

func (e BorrowConflictError) Error() string {
	return fmt.Sprintf("borrow conflict on component %s", e.Key)
}

// NoSuchEntityError is returned when an entity has no known location,
// either because it was never spawned or has already been despawned.
type NoSuchEntityError struct {
	Entity Entity
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("no such entity %s", e.Entity)
}

// InvalidArchetypeError marks a broken graph invariant: an archetype id
// that does not resolve to a live archetype. Callers never construct
// one of these on purpose; it is only ever raised by a panic inside the
// core itself, wrapped with bark.AddTrace at the panic site.
type InvalidArchetypeError struct {
	ID ArchetypeID
}

func (e InvalidArchetypeError) Error() string {
	return fmt.Sprintf("invalid archetype: %d", e.ID)
}
