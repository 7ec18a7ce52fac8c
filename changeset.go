package strata

import "sort"

// ChangeSet is a per-component, self-compacting list of change events.
// Events of the same kind are kept sorted ascending by (Start, End). A
// new event is merged into a same-tick, same-kind record that starts
// before it and touches or overlaps it; a record starting at or after
// the new event is not merged with it. A newer event trims an older
// same-kind record only when the remainder stays one contiguous slice:
// a newer event strictly inside an older record leaves that record
// whole. In the last two cases same-kind records can overlap.
type ChangeSet struct {
	key   ComponentKey
	inner []Change
}

// NewChangeSet creates an empty change set for the given component.
func NewChangeSet(key ComponentKey) *ChangeSet {
	return &ChangeSet{key: key}
}

// Len returns the number of stored change records (not the number of
// slots they cover).
func (cs *ChangeSet) Len() int {
	return len(cs.inner)
}

// At returns the change record at index i, in ascending storage order.
func (cs *ChangeSet) At(i int) Change {
	return cs.inner[i]
}

// Set records a change, merging it with and trimming overlapping older
// same-kind records as needed.
func (cs *ChangeSet) Set(change Change) {
	if Config.DebugAssertions {
		cs.assertOrdered()
	}

	result := make([]Change, 0, len(cs.inner)+1)
	insertPoint := 0
	joined := false

	for _, v := range cs.inner {
		// Trim older same-kind records that the new change supersedes.
		if v.Kind == change.Kind && v.Tick < change.Tick {
			if diff, ok := v.Slice.Difference(change.Slice); ok {
				v.Slice = diff
			}
		}

		// Merge into an already-existing same-tick, same-kind record
		// that starts before this one. Start is never moved, to keep
		// ordering intact.
		if v.Slice.Start < change.Slice.Start && v.Tick == change.Tick && v.Kind == change.Kind {
			if u, ok := v.Slice.Union(change.Slice); ok {
				joined = true
				v.Slice = u
			}
		}

		if v.Slice.IsEmpty() {
			continue
		}

		result = append(result, v)
		if v.Kind == change.Kind && v.Slice.Less(change.Slice) {
			insertPoint = len(result)
		}
	}

	if !joined {
		result = insertChange(result, insertPoint, change)
	}
	cs.inner = result

	if Config.DebugAssertions {
		cs.assertOrdered()
	}
}

// Remove strips slot out of every stored slice, splitting any slice
// that contains it, and returns one Change per overlapping record
// describing the removal (slice = {slot}, same tick/kind as the
// record it was cut from).
func (cs *ChangeSet) Remove(slot Slot) []Change {
	if Config.DebugAssertions {
		cs.assertOrdered()
	}

	target := SliceSingle(slot)
	result := make([]Change, 0, len(cs.inner))
	var right []Change
	var removed []Change

	for _, v := range cs.inner {
		left, _, rightPart, ok := v.Slice.SplitWith(target)
		if ok {
			if !left.IsEmpty() {
				if len(right) > 0 && right[0].Slice.Less(left) {
					result = append(result, right...)
					right = right[:0]
				}
				result = append(result, Change{Slice: left, Tick: v.Tick, Kind: v.Kind})
			}
			if !rightPart.IsEmpty() {
				right = append(right, Change{Slice: rightPart, Tick: v.Tick, Kind: v.Kind})
			}
			removed = append(removed, Change{Slice: target, Tick: v.Tick, Kind: v.Kind})
			continue
		}

		if len(right) > 0 && right[0].Slice.Less(v.Slice) {
			result = append(result, right...)
			right = right[:0]
		}
		result = append(result, v)
	}
	result = append(result, right...)
	cs.inner = result

	if Config.DebugAssertions {
		cs.assertOrdered()
	}
	return removed
}

// MigrateTo moves every change record touching src over to other,
// recorded against dst, leaving no trace of src in cs.
func (cs *ChangeSet) MigrateTo(other *ChangeSet, src, dst Slot) {
	for _, c := range cs.Remove(src) {
		c.Slice = SliceSingle(dst)
		other.Set(c)
	}
}

// SwapOut is called when src is freed by swapping the last row, dst,
// into its place: dst's change records are relocated onto src, and the
// records that were at src are returned to the caller (who typically
// either discards them, if the component was dropped, or forwards them
// to another ChangeSet via Set, if the component migrated elsewhere).
func (cs *ChangeSet) SwapOut(src, dst Slot) []Change {
	srcChanges := cs.Remove(src)
	dstChanges := cs.Remove(dst)

	for _, v := range dstChanges {
		if !v.Slice.Equal(SliceSingle(dst)) {
			panic("strata: swap_out got a non-singleton change for dst")
		}
		v.Slice = SliceSingle(src)
		cs.Set(v)
	}

	return srcChanges
}

func (cs *ChangeSet) assertOrdered() {
	var modified, inserted, removed []Slice
	for _, c := range cs.inner {
		switch c.Kind {
		case ChangeModified:
			modified = append(modified, c.Slice)
		case ChangeInserted:
			inserted = append(inserted, c.Slice)
		case ChangeRemoved:
			removed = append(removed, c.Slice)
		}
	}
	if !slicesSorted(modified) {
		panic("strata: modified changes not sorted")
	}
	if !slicesSorted(inserted) {
		panic("strata: inserted changes not sorted")
	}
	if !slicesSorted(removed) {
		panic("strata: removed changes not sorted")
	}
}

func slicesSorted(s []Slice) bool {
	return sort.SliceIsSorted(s, func(i, j int) bool { return s[i].Less(s[j]) })
}

func insertChange(s []Change, i int, c Change) []Change {
	s = append(s, Change{})
	copy(s[i+1:], s[i:])
	s[i] = c
	return s
}
