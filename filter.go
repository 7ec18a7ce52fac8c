package strata

import "sort"

// And combines fetches, matching only archetypes every branch matches.
// Its item is the []any of each branch's item, in order, and its slot
// filter is the branches narrowing one another in sequence: the second
// branch only ever sees the sub-range the first branch already passed.
func And(items ...Fetch) Fetch {
	return andFetch{items: items}
}

type andFetch struct{ items []Fetch }

func (f andFetch) Searcher(s *ArchetypeSearcher) {
	for _, it := range f.items {
		it.Searcher(s)
	}
}

func (f andFetch) FilterArch(arch *Archetype) bool {
	for _, it := range f.items {
		if !it.FilterArch(arch) {
			return false
		}
	}
	return true
}

func (f andFetch) Prepare(arch *Archetype) (PreparedFetch, error) {
	prepared := make([]PreparedFetch, 0, len(f.items))
	for _, it := range f.items {
		p, err := it.Prepare(arch)
		if err != nil {
			for _, done := range prepared {
				done.Release()
			}
			return nil, err
		}
		prepared = append(prepared, p)
	}
	return &preparedAnd{items: prepared}, nil
}

type preparedAnd struct{ items []PreparedFetch }

func (p *preparedAnd) FilterSlots(slots Slice) Slice {
	cur := slots
	for _, it := range p.items {
		cur = it.FilterSlots(cur)
		if cur.IsEmpty() {
			return cur
		}
	}
	return cur
}

func (p *preparedAnd) Fetch(slot Slot) any {
	out := make([]any, len(p.items))
	for i, it := range p.items {
		out[i] = it.Fetch(slot)
	}
	return out
}

func (p *preparedAnd) SetVisited(slots Slice) {
	for _, it := range p.items {
		it.SetVisited(slots)
	}
}

func (p *preparedAnd) Release() {
	for _, it := range p.items {
		it.Release()
	}
}

// Or matches an archetype if any branch does, and its item is always
// the empty struct (it only restricts which slots match; to read
// component data alongside an Or, wrap the read in the same And as the
// Or). Its slot filter takes the minimum (earliest-starting, then
// shortest) of every branch's own filter result, ported from flax's
// `filter/set.rs` tuple_impl.
func Or(items ...Fetch) Fetch {
	return orFetch{items: items}
}

type orFetch struct{ items []Fetch }

func (f orFetch) Searcher(*ArchetypeSearcher) {
	// Deliberately contributes nothing: matching archetypes can't be
	// narrowed by intersection when any single branch is enough.
}

func (f orFetch) FilterArch(arch *Archetype) bool {
	for _, it := range f.items {
		if it.FilterArch(arch) {
			return true
		}
	}
	return false
}

func (f orFetch) Prepare(arch *Archetype) (PreparedFetch, error) {
	prepared := make([]PreparedFetch, 0, len(f.items))
	for _, it := range f.items {
		if !it.FilterArch(arch) {
			prepared = append(prepared, nil)
			continue
		}
		p, err := it.Prepare(arch)
		if err != nil {
			for _, done := range prepared {
				if done != nil {
					done.Release()
				}
			}
			return nil, err
		}
		prepared = append(prepared, p)
	}
	return &preparedOr{items: prepared}, nil
}

type preparedOr struct{ items []PreparedFetch }

func (p *preparedOr) FilterSlots(slots Slice) Slice {
	return minFilterSlots(p.items, slots)
}

// minFilterSlots picks the earliest-starting, then shortest, non-empty
// result among items. A branch that is absent (nil, didn't match the
// archetype) or whose FilterSlots comes back empty (matched the
// archetype but has nothing to report in this range) doesn't
// participate: Slice{} must never win the comparison just because its
// zero Start sorts first, or a real match from another branch would be
// silently dropped.
func minFilterSlots(items []PreparedFetch, slots Slice) Slice {
	var best Slice
	found := false
	for _, it := range items {
		if it == nil {
			continue
		}
		s := it.FilterSlots(slots)
		if s.IsEmpty() {
			continue
		}
		if !found || s.Less(best) {
			best = s
			found = true
		}
	}
	if !found {
		return Slice{}
	}
	return best
}

func (p *preparedOr) Fetch(Slot) any { return struct{}{} }

func (p *preparedOr) SetVisited(slots Slice) {
	for _, it := range p.items {
		if it != nil {
			it.SetVisited(slots)
		}
	}
}

func (p *preparedOr) Release() {
	for _, it := range p.items {
		if it != nil {
			it.Release()
		}
	}
}

// Not matches an archetype only if its wrapped fetch does not. Its item
// is always the empty struct. Its slot filter is only meaningful (and
// only computed) when the wrapped fetch's FilterArch is true but it
// still restricts by sub-range (e.g. wrapping a change filter); the
// common case — negating plain component presence — is resolved
// entirely at FilterArch and the wrapped Prepare never even runs.
func Not(inner Fetch) Fetch {
	return notFetch{inner: inner}
}

type notFetch struct{ inner Fetch }

func (f notFetch) Searcher(*ArchetypeSearcher) {}

func (f notFetch) FilterArch(arch *Archetype) bool {
	return !f.inner.FilterArch(arch)
}

func (f notFetch) Prepare(arch *Archetype) (PreparedFetch, error) {
	if !f.inner.FilterArch(arch) {
		return &preparedNot{inner: nil}, nil
	}
	p, err := f.inner.Prepare(arch)
	if err != nil {
		return nil, err
	}
	return &preparedNot{inner: p}, nil
}

type preparedNot struct{ inner PreparedFetch }

func (p *preparedNot) FilterSlots(slots Slice) Slice {
	if p.inner == nil {
		return slots
	}
	v := p.inner.FilterSlots(slots)
	diff, ok := slots.Difference(v)
	if !ok {
		panic("strata: Not's inner filter result is not a valid complement of the requested range")
	}
	return diff
}

func (p *preparedNot) Fetch(Slot) any { return struct{}{} }
func (p *preparedNot) SetVisited(Slice) {
	// Not wraps a read-only presence/range check; it never holds a
	// write borrow of its own to mark Modified against.
}
func (p *preparedNot) Release() {
	if p.inner != nil {
		p.inner.Release()
	}
}

// Union wraps a list of fetches that must all still match (like And),
// but whose slot filter takes the union — in practice the same
// min-of-branches rule Or uses — of the branches' ranges instead of
// narrowing each one through the last. This is for "any of these
// changed, but read them all" queries: And(Changed(a), Changed(b))
// would require both to change in the exact same sub-range; Union
// requires only that each fetch still matches the archetype, while
// surfacing any sub-range at least one of them changed in.
func Union(items ...Fetch) Fetch {
	return unionFetch{items: items}
}

type unionFetch struct{ items []Fetch }

func (f unionFetch) Searcher(s *ArchetypeSearcher) {
	for _, it := range f.items {
		it.Searcher(s)
	}
}

func (f unionFetch) FilterArch(arch *Archetype) bool {
	for _, it := range f.items {
		if !it.FilterArch(arch) {
			return false
		}
	}
	return true
}

func (f unionFetch) Prepare(arch *Archetype) (PreparedFetch, error) {
	prepared := make([]PreparedFetch, 0, len(f.items))
	for _, it := range f.items {
		p, err := it.Prepare(arch)
		if err != nil {
			for _, done := range prepared {
				done.Release()
			}
			return nil, err
		}
		prepared = append(prepared, p)
	}
	return &preparedUnion{items: prepared}, nil
}

type preparedUnion struct{ items []PreparedFetch }

func (p *preparedUnion) FilterSlots(slots Slice) Slice {
	return minFilterSlots(p.items, slots)
}

func (p *preparedUnion) Fetch(slot Slot) any {
	out := make([]any, len(p.items))
	for i, it := range p.items {
		out[i] = it.Fetch(slot)
	}
	return out
}

func (p *preparedUnion) SetVisited(slots Slice) {
	for _, it := range p.items {
		it.SetVisited(slots)
	}
}

func (p *preparedUnion) Release() {
	for _, it := range p.items {
		it.Release()
	}
}

// Changed builds a read-only filter matching slots where key was
// Modified or Inserted strictly after since. It is typically combined
// with Read/Write on the same component via And, or with Union across
// several components.
func Changed(key ComponentKey, since uint32) Fetch {
	return changeFilter{key: key, since: since}
}

type changeFilter struct {
	key   ComponentKey
	since uint32
}

func (f changeFilter) Searcher(s *ArchetypeSearcher) { s.Require(f.key) }
func (f changeFilter) FilterArch(arch *Archetype) bool {
	return arch.Has(f.key)
}
func (f changeFilter) Prepare(arch *Archetype) (PreparedFetch, error) {
	cell, ok := arch.CellFor(f.key)
	if !ok {
		return nil, ErrNoMatch
	}
	return &preparedChangeFilter{cell: cell, since: f.since}, nil
}

type preparedChangeFilter struct {
	cell  *Cell
	since uint32
}

func (p *preparedChangeFilter) Fetch(Slot) any    { return struct{}{} }
func (p *preparedChangeFilter) SetVisited(Slice)  {}
func (p *preparedChangeFilter) Release()          {}
func (p *preparedChangeFilter) FilterSlots(slots Slice) Slice {
	candidates := make([]Slice, 0, p.cell.changes.Len())
	for i := 0; i < p.cell.changes.Len(); i++ {
		c := p.cell.changes.At(i)
		if c.Tick <= p.since {
			continue
		}
		if c.Kind != ChangeModified && c.Kind != ChangeInserted {
			continue
		}
		candidates = append(candidates, c.Slice)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
	for _, s := range candidates {
		inter := s.Intersect(slots)
		if !inter.IsEmpty() {
			return inter
		}
	}
	return Slice{}
}
