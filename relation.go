package strata

// RelationItem pairs a relation's target object with a pointer to the
// value stored for that (relation, object) edge on the current slot.
type RelationItem[T any] struct {
	Object Entity
	Value  *T
}

// Relations builds a Fetch yielding every relation of the given kind an
// entity carries, regardless of target: where Read/Write need a
// specific ComponentKey (relation id + object), Relations only needs
// the id and walks every cell the archetype happens to have for it.
// Unlike Read/Write, it matches every archetype (an entity with no
// such relation simply yields none), mirroring
// original_source/src/fetch/relations.rs's `relations_like`.
func Relations[T any](relationID Entity) Fetch {
	return relationsFetch[T]{relationID: relationID}
}

type relationsFetch[T any] struct{ relationID Entity }

func (f relationsFetch[T]) Searcher(*ArchetypeSearcher) {
	// Intentionally contributes no required key: candidate narrowing by
	// the ArchetypeIndex only works for a specific ComponentKey, and
	// this fetch matches archetypes with zero matching relations too.
}

func (f relationsFetch[T]) FilterArch(*Archetype) bool { return true }

func (f relationsFetch[T]) Prepare(arch *Archetype) (PreparedFetch, error) {
	indices := arch.RelationCells(f.relationID)
	cells := make([]*Cell, 0, len(indices))
	objects := make([]Entity, 0, len(indices))
	for _, i := range indices {
		cell := arch.cells[i]
		if !cell.AcquireRead() {
			for _, done := range cells {
				done.ReleaseRead()
			}
			return nil, BorrowConflictError{Key: arch.descs[i].Key}
		}
		cells = append(cells, cell)
		objects = append(objects, arch.descs[i].Key.Object.Value)
	}
	return &preparedRelations[T]{cells: cells, objects: objects}, nil
}

type preparedRelations[T any] struct {
	cells   []*Cell
	objects []Entity
}

func (p *preparedRelations[T]) FilterSlots(slots Slice) Slice { return slots }

func (p *preparedRelations[T]) Fetch(slot Slot) any {
	out := make([]RelationItem[T], len(p.cells))
	for i, cell := range p.cells {
		out[i] = RelationItem[T]{Object: p.objects[i], Value: (*T)(cell.Get(slot))}
	}
	return out
}

func (p *preparedRelations[T]) SetVisited(Slice) {}

func (p *preparedRelations[T]) Release() {
	for _, cell := range p.cells {
		cell.ReleaseRead()
	}
}
