package strata

import "unsafe"

// Cell is a single component column: a type-erased, densely packed
// byte buffer plus the ChangeSet tracking what happened to it and the
// borrow guard serializing concurrent access.
//
// The column is a raw []byte sized len*desc.Size and addressed through
// unsafe.Pointer arithmetic rather than a Go slice of a concrete type,
// since the concrete type is only known to the caller, not to the
// storage core.
type Cell struct {
	desc    ComponentDesc
	data    []byte
	len     int
	changes *ChangeSet
	borrow  borrowState
}

// NewCell allocates an empty column for desc.
func NewCell(desc ComponentDesc) *Cell {
	return &Cell{desc: desc, changes: NewChangeSet(desc.Key)}
}

// Len returns the number of rows currently stored.
func (c *Cell) Len() int {
	return c.len
}

// Desc returns the cell's component descriptor.
func (c *Cell) Desc() ComponentDesc {
	return c.desc
}

// Changes returns the cell's change-tracking set.
func (c *Cell) Changes() *ChangeSet {
	return c.changes
}

// AcquireRead attempts to take a read borrow; ok is false on conflict.
func (c *Cell) AcquireRead() bool {
	return c.borrow.tryRead()
}

// ReleaseRead releases a previously acquired read borrow.
func (c *Cell) ReleaseRead() {
	c.borrow.releaseRead()
}

// AcquireWrite attempts to take the exclusive write borrow; ok is false
// on conflict.
func (c *Cell) AcquireWrite() bool {
	return c.borrow.tryWrite()
}

// ReleaseWrite releases the write borrow.
func (c *Cell) ReleaseWrite() {
	c.borrow.releaseWrite()
}

func (c *Cell) ensureCap(rows int) {
	need := rows * int(c.desc.Size)
	if cap(c.data) >= need {
		return
	}
	grown := need
	floor := Config.InitialCellCapacity * int(c.desc.Size)
	if grown < floor {
		grown = floor
	}
	if doubled := cap(c.data) * 2; doubled > grown {
		grown = doubled
	}
	buf := make([]byte, len(c.data), grown)
	copy(buf, c.data)
	c.data = buf
}

func (c *Cell) ptr(slot Slot) unsafe.Pointer {
	if c.desc.Size == 0 {
		// A zero-sized component (a tag declared via NewComponent[struct{}])
		// never grows c.data past length 0, so there's no byte to address.
		// Any non-nil pointer is a valid *T for a zero-sized T: reading or
		// copying through it touches no memory.
		return unsafe.Pointer(c)
	}
	base := unsafe.Pointer(&c.data[0])
	return unsafe.Add(base, uintptr(slot)*c.desc.Size)
}

// Get returns a pointer to the value stored at slot.
func (c *Cell) Get(slot Slot) unsafe.Pointer {
	return c.ptr(slot)
}

// Push appends value as a new row, recording an Inserted change at
// tick, and returns the slot it landed in.
func (c *Cell) Push(value unsafe.Pointer, tick uint32) Slot {
	slot := c.growOne()
	memcopy(c.ptr(slot), value, c.desc.Size)
	c.changes.Set(Change{Slice: SliceSingle(slot), Tick: tick, Kind: ChangeInserted})
	return slot
}

// PushZero appends a zero-valued row, recording an Inserted change at
// tick, and returns the slot it landed in. Used when an archetype grows
// a column for a row whose value hasn't been supplied yet (e.g. a
// shared-component migration where the destination gained a component
// the source didn't have).
func (c *Cell) PushZero(tick uint32) Slot {
	slot := c.growOne()
	zeroMemory(c.ptr(slot), c.desc.Size)
	c.changes.Set(Change{Slice: SliceSingle(slot), Tick: tick, Kind: ChangeInserted})
	return slot
}

// CopyAppendFrom appends a new row copied byte-for-byte from src's
// srcSlot, without recording an Inserted change: the value's change
// history is expected to be carried over separately, via the cell's own
// ChangeSet.MigrateTo.
func (c *Cell) CopyAppendFrom(src *Cell, srcSlot Slot) Slot {
	dst := c.growOne()
	memcopy(c.ptr(dst), src.ptr(srcSlot), c.desc.Size)
	return dst
}

func (c *Cell) growOne() Slot {
	slot := Slot(c.len)
	c.ensureCap(c.len + 1)
	c.data = c.data[:(c.len+1)*int(c.desc.Size)]
	c.len++
	return slot
}

// Take copies the value at slot into out and records a Removed change
// at tick.
func (c *Cell) Take(slot Slot, out unsafe.Pointer, tick uint32) {
	memcopy(out, c.ptr(slot), c.desc.Size)
	c.changes.Set(Change{Slice: SliceSingle(slot), Tick: tick, Kind: ChangeRemoved})
}

// DestroyValue invokes the component's drop function, if any, on the
// value at slot, without touching the backing storage.
func (c *Cell) DestroyValue(slot Slot) {
	if c.desc.Drop != nil {
		c.desc.Drop(c.ptr(slot))
	}
}

// SwapRemove moves the last row's bytes into slot (unless slot is
// already the last row) and truncates the column by one row. It does
// not touch the ChangeSet; callers reconcile that separately via
// ChangeSet.SwapOut, since the two operations can legitimately happen
// at different points relative to a drop/migrate.
func (c *Cell) SwapRemove(slot Slot) {
	last := Slot(c.len - 1)
	if slot != last {
		memcopy(c.ptr(slot), c.ptr(last), c.desc.Size)
	}
	c.len--
	c.data = c.data[:c.len*int(c.desc.Size)]
}

// MarkModified records a Modified change covering slots at tick. Used
// both by explicit typed writes (Component[T].Set) and by the query
// pipeline's set_visited step when a write-borrowed fetch hands out a
// chunk.
func (c *Cell) MarkModified(slots Slice, tick uint32) {
	c.changes.Set(Change{Slice: slots, Tick: tick, Kind: ChangeModified})
}

func memcopy(dst, src unsafe.Pointer, size uintptr) {
	copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
}

func zeroMemory(ptr unsafe.Pointer, size uintptr) {
	b := unsafe.Slice((*byte)(ptr), size)
	for i := range b {
		b[i] = 0
	}
}
