package strata

import (
	"sort"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// componentRegistry hands out a dense bit index to each distinct
// component key the first time it's seen, so Archetype.mask can do a
// cheap bitset membership pre-check ahead of the canonical ordered
// scan (indexOf) that remains the source of truth.
type componentRegistry struct {
	bits map[ComponentKey]int
	next int
}

func newComponentRegistry() componentRegistry {
	return componentRegistry{bits: make(map[ComponentKey]int)}
}

func (r *componentRegistry) bitFor(key ComponentKey) int {
	if b, ok := r.bits[key]; ok {
		return b
	}
	b := r.next
	r.bits[key] = b
	r.next++
	return b
}

// Archetypes owns the whole archetype graph: the root (zero components)
// and reserved (placeholder, pre-first-spawn) archetypes, the dense id
// space they and every derived archetype live in, the inverted
// ArchetypeIndex, and the generation counter external query caches use
// to know when the graph shape has changed under them.
type Archetypes struct {
	root     ArchetypeID
	reserved ArchetypeID
	gen      uint32

	list  []*Archetype // list[id-1], nil once despawned
	index *ArchetypeIndex

	subscribers []EventSubscriber
	registry    componentRegistry

	// locks mirrors the teacher's storage.locks: bits set here mark the
	// graph as busy to some external collaborator (e.g. a World mid
	// iteration), for that collaborator's own use. The core never reads
	// or acts on it itself.
	locks mask.Mask256
}

// NewArchetypes builds a fresh graph with its root and reserved
// archetypes.
func NewArchetypes() *Archetypes {
	as := &Archetypes{
		index:    NewArchetypeIndex(),
		registry: newComponentRegistry(),
	}
	as.root = as.appendArchetype(NewArchetype(nil))
	as.reserved = as.appendArchetype(NewArchetype(nil))
	as.gen = 2
	as.index.Register(as.root, as.list[as.root-1])
	as.index.Register(as.reserved, as.list[as.reserved-1])
	return as
}

// Root returns the id of the zero-component archetype.
func (as *Archetypes) Root() ArchetypeID { return as.root }

// Reserved returns the id of the placeholder archetype used for
// entities pending their first spawn-into-archetype.
func (as *Archetypes) Reserved() ArchetypeID { return as.reserved }

// Gen returns the graph's generation counter, bumped on every
// structural mutation (archetype created, pruned, or despawned). It
// wraps on overflow and exists purely so an external query cache can
// tell "has the shape of the graph changed since I last looked".
func (as *Archetypes) Gen() uint32 { return as.gen }

func (as *Archetypes) bumpGen() { as.gen = as.gen + 1 }

func (as *Archetypes) appendArchetype(a *Archetype) ArchetypeID {
	as.list = append(as.list, a)
	return ArchetypeID(len(as.list))
}

// Get resolves id to its archetype, panicking with InvalidArchetypeError
// (wrapped via bark.AddTrace) if id is out of range or has been
// despawned. A broken archetype id is a programmer error in the
// caller, not a recoverable condition.
func (as *Archetypes) Get(id ArchetypeID) *Archetype {
	if id == 0 || int(id) > len(as.list) {
		panic(bark.AddTrace(InvalidArchetypeError{ID: id}))
	}
	a := as.list[id-1]
	if a == nil {
		panic(bark.AddTrace(InvalidArchetypeError{ID: id}))
	}
	return a
}

// Locked reports whether any external lock bit is set.
func (as *Archetypes) Locked() bool { return !as.locks.IsEmpty() }

// AddLock sets a lock bit.
func (as *Archetypes) AddLock(bit uint32) { as.locks.Mark(bit) }

// RemoveLock clears a lock bit.
func (as *Archetypes) RemoveLock(bit uint32) { as.locks.Unmark(bit) }

func (as *Archetypes) computeMask(descs []ComponentDesc) mask.Mask {
	var m mask.Mask
	for _, d := range descs {
		m.Mark(as.registry.bitFor(d.Key))
	}
	return m
}

// buildChildComponents combines parent's components with head, honoring
// the exclusive-relation rule: adding an exclusive relation drops any
// existing component sharing head's relation id but pointing at a
// different object. The result is sorted into canonical order.
func buildChildComponents(parent []ComponentDesc, head ComponentDesc) []ComponentDesc {
	out := make([]ComponentDesc, 0, len(parent)+1)
	if head.IsRelation() && head.HasMeta(MetaExclusive) {
		for _, d := range parent {
			if d.Key.ID == head.Key.ID && d.Key != head.Key {
				continue
			}
			out = append(out, d)
		}
	} else {
		out = append(out, parent...)
	}
	out = append(out, head)
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// FindCreate walks from root following (or creating) one outgoing edge
// per descriptor in components, and returns the archetype at the far
// end. components must already be in canonical ascending order: two
// calls with the same final set but different call orders would
// otherwise build two distinct archetypes for it, breaking the
// one-archetype-per-set invariant the rest of the core relies on.
func (as *Archetypes) FindCreate(components []ComponentDesc) (ArchetypeID, *Archetype) {
	cursor := as.root
	for _, head := range components {
		cur := as.Get(cursor)
		next, ok := cur.outgoing[head.Key]
		if !ok {
			childDescs := buildChildComponents(cur.descs, head)
			child := NewArchetype(childDescs)
			child.mask = as.computeMask(childDescs)

			for _, s := range as.subscribers {
				if s.MatchesArch(child) {
					child.AddHandler(s)
				}
			}

			as.bumpGen()
			newID := as.appendArchetype(child)
			cur.AddOutgoing(head.Key, newID)
			child.AddIncoming(head.Key, cursor)
			as.index.Register(newID, child)
			next = newID
		}
		cursor = next
	}
	return cursor, as.Get(cursor)
}

// PruneArch removes arch_id and recursively prunes any ancestor that
// becomes empty and leaf as a result. It no-ops on root, reserved, a
// non-empty archetype, or one that still has outgoing edges.
func (as *Archetypes) PruneArch(id ArchetypeID) bool {
	a := as.Get(id)
	if id == as.root || id == as.reserved || !a.IsEmpty() || len(a.outgoing) > 0 {
		return false
	}

	as.list[id-1] = nil
	as.index.Unregister(id, a)

	for key, dstID := range a.incoming {
		dst := as.Get(dstID)
		dst.RemoveLink(key)
		as.PruneArch(dstID)
	}

	as.bumpGen()
	return true
}

// Despawn removes an archetype, leaving a hole in the graph: its
// children are detached but still reachable by id. The caller is
// responsible for any further cleanup of those children.
func (as *Archetypes) Despawn(id ArchetypeID) *Archetype {
	a := as.Get(id)
	as.list[id-1] = nil

	for key, dstID := range a.incoming {
		dst := as.Get(dstID)
		dst.RemoveLink(key)
	}

	as.bumpGen()
	as.index.Unregister(id, a)
	return a
}

// AddSubscriber registers s against every existing matching archetype
// and keeps it for future archetypes created by FindCreate. Previously
// registered but now-disconnected subscribers are pruned first.
func (as *Archetypes) AddSubscriber(s EventSubscriber) {
	kept := as.subscribers[:0]
	for _, sub := range as.subscribers {
		if sub.IsConnected() {
			kept = append(kept, sub)
		}
	}
	as.subscribers = kept

	for _, a := range as.list {
		if a != nil && s.MatchesArch(a) {
			a.AddHandler(s)
		}
	}
	as.subscribers = append(as.subscribers, s)
}

// Index returns the graph's inverted component index.
func (as *Archetypes) Index() *ArchetypeIndex { return as.index }

// CandidateArchetypes returns the ids of every archetype that could
// possibly satisfy a Fetch built with the given required keys: the
// intersection of the index's per-key archetype sets, walked smallest
// first. A Fetch with no required keys (e.g. a bare Or) matches every
// live archetype.
func (as *Archetypes) CandidateArchetypes(keys []ComponentKey) []ArchetypeID {
	if len(keys) == 0 {
		out := make([]ArchetypeID, 0, len(as.list))
		for id := range as.list {
			if as.list[id] != nil {
				out = append(out, ArchetypeID(id+1))
			}
		}
		return out
	}

	sets := make([][]ArchetypeID, len(keys))
	for i, k := range keys {
		sets[i] = as.index.CandidateArchetypes(k)
	}
	sort.Slice(sets, func(i, j int) bool { return len(sets[i]) < len(sets[j]) })

	result := sets[0]
	for _, s := range sets[1:] {
		result = intersectSortedIDs(result, s)
		if len(result) == 0 {
			break
		}
	}
	return result
}

func intersectSortedIDs(a, b []ArchetypeID) []ArchetypeID {
	out := make([]ArchetypeID, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// PrepareFetch narrows the graph down to the archetypes f matches and
// prepares f against each of them, acquiring whatever cell borrows f
// needs. The returned PreparedQuery must be Closed to release them.
func (as *Archetypes) PrepareFetch(f Fetch) (*PreparedQuery, error) {
	var s ArchetypeSearcher
	f.Searcher(&s)

	searchMask := as.computeMask(keysToDescs(s.keys))
	candidates := as.CandidateArchetypes(s.keys)

	pq := &PreparedQuery{}
	for _, id := range candidates {
		arch := as.Get(id)
		if !arch.HasAll(searchMask) {
			continue
		}
		if !f.FilterArch(arch) {
			continue
		}
		prepared, err := f.Prepare(arch)
		if err == ErrNoMatch {
			continue
		}
		if err != nil {
			pq.Close()
			return nil, err
		}
		pq.archetypes = append(pq.archetypes, preparedArchetype{id: id, arch: arch, prepared: prepared})
	}
	return pq, nil
}

func keysToDescs(keys []ComponentKey) []ComponentDesc {
	out := make([]ComponentDesc, len(keys))
	for i, k := range keys {
		out[i] = ComponentDesc{Key: k}
	}
	return out
}

// EntityLocation pins an entity to a slot within an archetype.
type EntityLocation struct {
	ArchID ArchetypeID
	Slot   Slot
}

// EntityLocator is the external collaborator's entity→location map.
// The core never allocates or frees entity ids; it only reads and
// updates where a given id currently lives.
type EntityLocator interface {
	Location(e Entity) (EntityLocation, bool)
	SetLocation(e Entity, loc EntityLocation)
}

func sortedDescs(descs []ComponentDesc) []ComponentDesc {
	out := append([]ComponentDesc(nil), descs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

func (as *Archetypes) relocate(loc EntityLocator, e Entity, cur EntityLocation, destDescs []ComponentDesc, tick uint32) EntityLocation {
	curArch := as.Get(cur.ArchID)
	destID, dest := as.FindCreate(destDescs)
	if dest == curArch {
		return cur
	}
	res := curArch.MoveTo(dest, cur.Slot, tick)
	if res.Moved {
		loc.SetLocation(res.MovedEntity, EntityLocation{ArchID: cur.ArchID, Slot: cur.Slot})
	}
	newLoc := EntityLocation{ArchID: destID, Slot: res.NewSlot}
	loc.SetLocation(e, newLoc)
	as.PruneArch(cur.ArchID)
	return newLoc
}

// SetComponent writes value into e's copy of the component described by
// desc, moving e to a neighboring archetype first if it doesn't already
// carry that component.
func (as *Archetypes) SetComponent(loc EntityLocator, e Entity, desc ComponentDesc, value unsafe.Pointer, tick uint32) (EntityLocation, error) {
	cur, ok := loc.Location(e)
	if !ok {
		return EntityLocation{}, NoSuchEntityError{Entity: e}
	}
	curArch := as.Get(cur.ArchID)

	if cell, ok := curArch.CellFor(desc.Key); ok {
		memcopy(cell.Get(cur.Slot), value, desc.Size)
		cell.MarkModified(SliceSingle(cur.Slot), tick)
		curArch.notifyModified(SliceSingle(cur.Slot))
		return cur, nil
	}

	newDescs := sortedDescs(append(append([]ComponentDesc(nil), curArch.descs...), desc))
	newLoc := as.relocate(loc, e, cur, newDescs, tick)

	dest := as.Get(newLoc.ArchID)
	cell, _ := dest.CellFor(desc.Key)
	memcopy(cell.Get(newLoc.Slot), value, desc.Size)
	return newLoc, nil
}

// RemoveComponent drops the component described by desc from e, moving
// it to a neighboring archetype that lacks it.
func (as *Archetypes) RemoveComponent(loc EntityLocator, e Entity, desc ComponentDesc, tick uint32) (EntityLocation, error) {
	cur, ok := loc.Location(e)
	if !ok {
		return EntityLocation{}, NoSuchEntityError{Entity: e}
	}
	curArch := as.Get(cur.ArchID)
	if _, ok := curArch.CellFor(desc.Key); !ok {
		return EntityLocation{}, MissingComponentError{Entity: e, Key: desc.Key}
	}

	newDescs := make([]ComponentDesc, 0, len(curArch.descs)-1)
	for _, d := range curArch.descs {
		if d.Key != desc.Key {
			newDescs = append(newDescs, d)
		}
	}
	return as.relocate(loc, e, cur, newDescs, tick), nil
}

// Retain keeps only the components of e for which keep returns true,
// moving it to the archetype for the resulting set.
func (as *Archetypes) Retain(loc EntityLocator, e Entity, keep func(ComponentKey) bool, tick uint32) (EntityLocation, error) {
	cur, ok := loc.Location(e)
	if !ok {
		return EntityLocation{}, NoSuchEntityError{Entity: e}
	}
	curArch := as.Get(cur.ArchID)

	kept := make([]ComponentDesc, 0, len(curArch.descs))
	for _, d := range curArch.descs {
		if keep(d.Key) {
			kept = append(kept, d)
		}
	}
	return as.relocate(loc, e, cur, kept, tick), nil
}

// MigrateRow moves e to the archetype matching newComponents exactly,
// regardless of what it currently has.
func (as *Archetypes) MigrateRow(loc EntityLocator, e Entity, newComponents []ComponentDesc, tick uint32) (EntityLocation, error) {
	cur, ok := loc.Location(e)
	if !ok {
		return EntityLocation{}, NoSuchEntityError{Entity: e}
	}
	return as.relocate(loc, e, cur, sortedDescs(newComponents), tick), nil
}

// DespawnEntity vacates e's row entirely, invoking every component's
// drop function, and compacting the archetype. It does not update loc
// for e itself (the entity no longer exists); the backfilled entity, if
// any, has its location updated as usual.
func (as *Archetypes) DespawnEntity(loc EntityLocator, e Entity) error {
	cur, ok := loc.Location(e)
	if !ok {
		return NoSuchEntityError{Entity: e}
	}
	curArch := as.Get(cur.ArchID)
	root := as.Get(as.root)

	res := curArch.Remove(root, cur.Slot, 0)
	if res.Moved {
		loc.SetLocation(res.MovedEntity, EntityLocation{ArchID: cur.ArchID, Slot: cur.Slot})
	}
	as.PruneArch(cur.ArchID)
	return nil
}
