package strata

import "fmt"

// Slot is a row index within an archetype's columns.
type Slot uint32

// Slice is a half-open range of slots, [Start, End).
type Slice struct {
	Start Slot
	End   Slot
}

// NewSlice builds a Slice, requiring start <= end.
func NewSlice(start, end Slot) Slice {
	if start > end {
		panic(fmt.Sprintf("strata: invalid slice [%d, %d)", start, end))
	}
	return Slice{Start: start, End: end}
}

// SliceSingle builds the single-slot slice [slot, slot+1).
func SliceSingle(slot Slot) Slice {
	return Slice{Start: slot, End: slot + 1}
}

// Len returns the number of slots the slice spans.
func (s Slice) Len() int {
	if s.End < s.Start {
		return 0
	}
	return int(s.End - s.Start)
}

// IsEmpty reports whether the slice spans no slots.
func (s Slice) IsEmpty() bool {
	return s.Start >= s.End
}

// Contains reports whether slot lies within the slice.
func (s Slice) Contains(slot Slot) bool {
	return slot >= s.Start && slot < s.End
}

// Less orders slices lexicographically on (Start, End), matching the
// ordering ChangeSet relies on for per-kind ascending storage.
func (s Slice) Less(o Slice) bool {
	if s.Start != o.Start {
		return s.Start < o.Start
	}
	return s.End < o.End
}

// Equal reports structural equality.
func (s Slice) Equal(o Slice) bool {
	return s.Start == o.Start && s.End == o.End
}

// Intersect returns the overlap of s and o, or an empty slice if they
// don't overlap.
func (s Slice) Intersect(o Slice) Slice {
	start := s.Start
	if o.Start > start {
		start = o.Start
	}
	end := s.End
	if o.End < end {
		end = o.End
	}
	if start >= end {
		return Slice{}
	}
	return Slice{Start: start, End: end}
}

// Union returns the smallest slice covering both s and o, and true, if
// they overlap or touch; otherwise it returns the zero Slice and false.
func (s Slice) Union(o Slice) (Slice, bool) {
	if s.End < o.Start || o.End < s.Start {
		return Slice{}, false
	}
	start := s.Start
	if o.Start < start {
		start = o.Start
	}
	end := s.End
	if o.End > end {
		end = o.End
	}
	return Slice{Start: start, End: end}, true
}

// Difference returns s with o removed, and true, when the remainder is
// a single contiguous slice (o does not fall strictly inside s without
// touching either edge). It returns (zero, false) when removing o would
// split s into two pieces.
func (s Slice) Difference(o Slice) (Slice, bool) {
	inter := s.Intersect(o)
	if inter.IsEmpty() {
		return s, true
	}
	if inter.Equal(s) {
		return Slice{}, true
	}
	if inter.Start == s.Start {
		return Slice{Start: inter.End, End: s.End}, true
	}
	if inter.End == s.End {
		return Slice{Start: s.Start, End: inter.Start}, true
	}
	return Slice{}, false
}

// SplitWith splits s around o, requiring o to be a sub-slice of s. It
// returns the portion of s before o, o itself, and the portion of s
// after o.
func (s Slice) SplitWith(o Slice) (left, mid, right Slice, ok bool) {
	if o.Start < s.Start || o.End > s.End {
		return Slice{}, Slice{}, Slice{}, false
	}
	return Slice{Start: s.Start, End: o.Start}, o, Slice{Start: o.End, End: s.End}, true
}

func (s Slice) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
