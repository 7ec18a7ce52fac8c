package strata

import "errors"

// ErrNoMatch is returned by Fetch.Prepare when the archetype passed to
// it does not satisfy the fetch (missing a required component). It is
// a normal, expected result, not a failure: callers filter candidate
// archetypes with FilterArch first, but combinators like Or and Union
// still probe fetches that may legitimately not apply.
var ErrNoMatch = errors.New("strata: fetch does not match archetype")

// ArchetypeSearcher collects the component keys a Fetch requires, so
// Archetypes.CandidateArchetypes can narrow the set of archetypes
// considered before any per-archetype Prepare call runs.
type ArchetypeSearcher struct {
	keys []ComponentKey
}

// Require adds a component key every matching archetype must carry.
func (s *ArchetypeSearcher) Require(key ComponentKey) {
	s.keys = append(s.keys, key)
}

// Fetch describes how to read or filter an archetype's rows. It is
// prepared once per matching archetype into a PreparedFetch, which does
// the actual per-slot work.
type Fetch interface {
	// Searcher contributes this fetch's required components to s.
	Searcher(s *ArchetypeSearcher)
	// FilterArch reports whether arch satisfies this fetch at all.
	FilterArch(arch *Archetype) bool
	// Prepare readies the fetch against a specific archetype, acquiring
	// any cell borrows it needs. Returns ErrNoMatch if arch doesn't
	// satisfy the fetch, or a BorrowConflictError if a needed cell is
	// already borrowed incompatibly.
	Prepare(arch *Archetype) (PreparedFetch, error)
}

// PreparedFetch does the per-slot work of an already-matched
// archetype: narrowing which slots are currently relevant, reading
// their values, and recording that they were visited.
type PreparedFetch interface {
	// FilterSlots returns the next contiguous sub-slice of slots (which
	// must start at or after slots.Start) this fetch actually matches,
	// or an empty slice if none of slots matches.
	FilterSlots(slots Slice) Slice
	// Fetch returns this fetch's item for slot.
	Fetch(slot Slot) any
	// SetVisited is called once per yielded chunk; fetches that hold a
	// write borrow use it to record a Modified change over slots.
	SetVisited(slots Slice)
	// Release gives up any cell borrows this fetch acquired in Prepare.
	Release()
}

// Read builds a Fetch yielding read-only pointers (*T) to a component's
// values.
func Read[T any](c Component[T]) Fetch {
	return readFetch[T]{comp: c}
}

type readFetch[T any] struct{ comp Component[T] }

func (f readFetch[T]) Searcher(s *ArchetypeSearcher) { s.Require(f.comp.Desc.Key) }
func (f readFetch[T]) FilterArch(arch *Archetype) bool {
	return arch.Has(f.comp.Desc.Key)
}
func (f readFetch[T]) Prepare(arch *Archetype) (PreparedFetch, error) {
	cell, ok := arch.CellFor(f.comp.Desc.Key)
	if !ok {
		return nil, ErrNoMatch
	}
	if !cell.AcquireRead() {
		return nil, BorrowConflictError{Key: f.comp.Desc.Key}
	}
	return &preparedRead[T]{cell: cell}, nil
}

type preparedRead[T any] struct{ cell *Cell }

func (p *preparedRead[T]) FilterSlots(slots Slice) Slice { return slots }
func (p *preparedRead[T]) Fetch(slot Slot) any           { return (*T)(p.cell.Get(slot)) }
func (p *preparedRead[T]) SetVisited(Slice)              {}
func (p *preparedRead[T]) Release()                      { p.cell.ReleaseRead() }

// Write builds a Fetch yielding writable pointers (*T) to a component's
// values. Every chunk a query yields is marked Modified at tick when it
// is handed out (IterBatches calls SetVisited before yielding it).
func Write[T any](c Component[T], tick uint32) Fetch {
	return writeFetch[T]{comp: c, tick: tick}
}

type writeFetch[T any] struct {
	comp Component[T]
	tick uint32
}

func (f writeFetch[T]) Searcher(s *ArchetypeSearcher) { s.Require(f.comp.Desc.Key) }
func (f writeFetch[T]) FilterArch(arch *Archetype) bool {
	return arch.Has(f.comp.Desc.Key)
}
func (f writeFetch[T]) Prepare(arch *Archetype) (PreparedFetch, error) {
	cell, ok := arch.CellFor(f.comp.Desc.Key)
	if !ok {
		return nil, ErrNoMatch
	}
	if !cell.AcquireWrite() {
		return nil, BorrowConflictError{Key: f.comp.Desc.Key}
	}
	return &preparedWrite[T]{cell: cell, tick: f.tick}, nil
}

type preparedWrite[T any] struct {
	cell *Cell
	tick uint32
}

func (p *preparedWrite[T]) FilterSlots(slots Slice) Slice { return slots }
func (p *preparedWrite[T]) Fetch(slot Slot) any           { return (*T)(p.cell.Get(slot)) }
func (p *preparedWrite[T]) SetVisited(slots Slice)        { p.cell.MarkModified(slots, p.tick) }
func (p *preparedWrite[T]) Release()                      { p.cell.ReleaseWrite() }
