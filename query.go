package strata

import "iter"

// preparedArchetype pairs one matched archetype with the PreparedFetch
// built against it.
type preparedArchetype struct {
	id       ArchetypeID
	arch     *Archetype
	prepared PreparedFetch
}

// PreparedQuery is the result of Archetypes.PrepareFetch: every
// archetype a Fetch matched, each with its own prepared cell borrows.
// It must be Closed once the caller is done iterating, to release
// those borrows.
type PreparedQuery struct {
	archetypes []preparedArchetype
}

// Close releases every cell borrow this query's fetches acquired.
func (q *PreparedQuery) Close() {
	for _, pa := range q.archetypes {
		pa.prepared.Release()
	}
	q.archetypes = nil
}

// Len returns the number of archetypes this query matched.
func (q *PreparedQuery) Len() int { return len(q.archetypes) }

// Batch is one contiguous chunk of matching slots within a single
// matched archetype.
type Batch struct {
	archID   ArchetypeID
	arch     *Archetype
	prepared PreparedFetch
	slots    Slice
}

// ArchID returns the archetype this batch's slots belong to.
func (b *Batch) ArchID() ArchetypeID { return b.archID }

// Slots returns the batch's slot range.
func (b *Batch) Slots() Slice { return b.slots }

// Len returns the number of rows in the batch.
func (b *Batch) Len() int { return b.slots.Len() }

// Fetch returns the fetch item for slot, which must lie within b.Slots().
func (b *Batch) Fetch(slot Slot) any { return b.prepared.Fetch(slot) }

// Iter yields every slot's item in order.
func (b *Batch) Iter() iter.Seq[any] {
	return func(yield func(any) bool) {
		for s := b.slots.Start; s < b.slots.End; s++ {
			if !yield(b.prepared.Fetch(s)) {
				return
			}
		}
	}
}

// IterBatches yields every matching chunk across every matched
// archetype. Within an archetype, a fetch's FilterSlots is re-applied
// after each chunk so a Not or Changed filter only ever needs to
// describe the next contiguous sub-range, not the whole remainder at
// once. Each chunk's SetVisited runs before it's yielded, mirroring the
// teacher's cursor advancing its watermark ahead of the caller reading
// the batch.
func (q *PreparedQuery) IterBatches() iter.Seq[*Batch] {
	return func(yield func(*Batch) bool) {
		for _, pa := range q.archetypes {
			remaining := pa.arch.Slots()
			for !remaining.IsEmpty() {
				cur := pa.prepared.FilterSlots(remaining)
				if cur.IsEmpty() {
					break
				}
				pa.prepared.SetVisited(cur)
				b := &Batch{archID: pa.id, arch: pa.arch, prepared: pa.prepared, slots: cur}
				if !yield(b) {
					return
				}
				remaining = Slice{Start: cur.End, End: remaining.End}
			}
		}
	}
}
