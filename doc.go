// Package strata is an archetype-based entity-component storage core.
//
// Entities that share the exact same multiset of component kinds are
// grouped into an archetype, and each component column is stored
// contiguously (a Cell) for cache locality. Archetypes are linked into a
// graph by single-component edges so that adding or removing one
// component moves an entity to a neighboring archetype instead of
// rebuilding storage from scratch.
//
// strata only implements the storage core: the archetype graph, its
// change tracking, its index, and the query/filter pipeline that reads
// it. Entity id allocation, a scheduler, and a public façade tying
// everything together are left to the caller.
package strata
