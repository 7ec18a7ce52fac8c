package strata

import "sync/atomic"

// borrowState implements read-many-xor-write-one borrow checking with a
// single atomic counter: zero is free, a positive count is that many
// live readers, -1 is one live writer. Every acquire is a fail-fast CAS
// loop; there is no blocking or suspension here, only a true/false
// result the caller turns into a BorrowConflictError.
type borrowState struct {
	state atomic.Int32
}

func (b *borrowState) tryRead() bool {
	for {
		cur := b.state.Load()
		if cur < 0 {
			return false
		}
		if b.state.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (b *borrowState) releaseRead() {
	b.state.Add(-1)
}

func (b *borrowState) tryWrite() bool {
	return b.state.CompareAndSwap(0, -1)
}

func (b *borrowState) releaseWrite() {
	b.state.Store(0)
}
