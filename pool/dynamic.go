package pool

import (
	"sync/atomic"

	"github.com/justapithecus/tracecore/ringslice"
)

// DynamicOptions configures a DynamicPool.
type DynamicOptions struct {
	MaxSliceCapacity  int
	Capacity          int
	BorrowCASAttempts int
}

// DynamicPool heap-allocates a fresh ringslice.Slice per Borrow, bounded by
// a shared event-capacity budget. Every lent slice is tagged with this pool
// as its owner (see ownedSlice), so Return can tell a slice it lent apart
// from one lent by some other pool instead of absorbing it unconditionally.
//
// Size reports REMAINING (unborrowed) capacity, not the amount currently on
// loan; Full means fully available, matching the accounting used throughout
// this pool's borrow loop.
type DynamicPool struct {
	options           DynamicOptions
	borrowedItemsSize atomic.Int64
}

var _ Pool = (*DynamicPool)(nil)

// NewDynamicPool returns a DynamicPool with no events currently on loan.
func NewDynamicPool(options DynamicOptions) *DynamicPool {
	return &DynamicPool{options: options}
}

// ownedSlice tags a heap-allocated slice with the DynamicPool instance that
// lent it, the Go equivalent of spoor's OwnedPtr::Owner() back-reference, so
// Return can reject a slice it did not lend.
type ownedSlice struct {
	ringslice.Slice
	owner *DynamicPool
}

func min3(a, b, c, d int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}

// Borrow lends a slice sized at most preferredCapacity, bounded by
// MaxSliceCapacity and remaining capacity. It retries a compare-and-swap on
// the shared budget up to BorrowCASAttempts times.
func (p *DynamicPool) Borrow(preferredCapacity int) (ringslice.Slice, error) {
	for attempt := 0; attempt < p.options.BorrowCASAttempts; attempt++ {
		borrowed := p.borrowedItemsSize.Load()
		bufferSize := min3(preferredCapacity, p.options.MaxSliceCapacity, p.Capacity(), p.Capacity()-int(borrowed))
		newBorrowed := borrowed + int64(bufferSize)
		if p.borrowedItemsSize.CompareAndSwap(borrowed, newBorrowed) {
			if bufferSize < 1 {
				return nil, ErrNoSlicesAvailable
			}
			return &ownedSlice{Slice: ringslice.NewOwned(bufferSize), owner: p}, nil
		}
	}
	return nil, ErrCASAttemptsExhausted
}

// Return releases slice's capacity back to the budget only if this pool
// lent it. Slices this pool did not lend (including ones lent by a
// different DynamicPool instance) are returned unchanged.
func (p *DynamicPool) Return(slice ringslice.Slice) ringslice.Slice {
	owned, ok := slice.(*ownedSlice)
	if !ok || owned.owner != p {
		return slice
	}
	p.borrowedItemsSize.Add(-int64(slice.Capacity()))
	return nil
}

func (p *DynamicPool) Size() int     { return p.Capacity() - int(p.borrowedItemsSize.Load()) }
func (p *DynamicPool) Capacity() int { return p.options.Capacity }
func (p *DynamicPool) Empty() bool   { return p.Size() == 0 }
func (p *DynamicPool) Full() bool    { return p.Capacity() <= p.Size() }
