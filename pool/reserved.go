package pool

import (
	"sync/atomic"

	"github.com/justapithecus/tracecore/ringslice"
	"github.com/justapithecus/tracecore/trace"
)

// ReservedOptions configures a ReservedPool.
type ReservedOptions struct {
	// MaxSliceCapacity bounds the event capacity of any single carved slice.
	MaxSliceCapacity int
	// Capacity is the total event capacity reserved across all slices.
	Capacity int
}

// ReservedPool allocates one contiguous arena up front and carves it into a
// fixed number of unowned ringslice.Slice values. Borrow/Return are
// lock-free: a CAS scan over a per-slice atomic.Bool flags which slices are
// currently lent out.
type ReservedPool struct {
	arena    []trace.Event
	slices   []ringslice.Slice
	borrowed []atomic.Bool
	size     atomic.Int64
}

var _ Pool = (*ReservedPool)(nil)

// NewReservedPool carves options.Capacity events worth of arena into slices
// of at most options.MaxSliceCapacity events each.
func NewReservedPool(options ReservedOptions) *ReservedPool {
	p := &ReservedPool{arena: make([]trace.Event, options.Capacity)}
	if options.MaxSliceCapacity <= 0 || options.Capacity <= 0 {
		return p
	}
	for offset := 0; offset < options.Capacity; offset += options.MaxSliceCapacity {
		end := offset + options.MaxSliceCapacity
		if end > options.Capacity {
			end = options.Capacity
		}
		p.slices = append(p.slices, ringslice.NewUnowned(p.arena[offset:end:end]))
	}
	p.borrowed = make([]atomic.Bool, len(p.slices))
	p.size.Store(int64(len(p.slices)))
	return p
}

// Borrow ignores preferredCapacity: every reserved slice has a fixed size
// determined at construction. It scans for the first unborrowed slice and
// CAS-claims it.
func (p *ReservedPool) Borrow(preferredCapacity int) (ringslice.Slice, error) {
	_ = preferredCapacity
	for i := range p.borrowed {
		if p.borrowed[i].CompareAndSwap(false, true) {
			p.size.Add(-1)
			return p.slices[i], nil
		}
	}
	return nil, ErrNoSlicesAvailable
}

// Return reclaims slice if it belongs to this pool's arena, clearing its
// Clear()'d state and marking it available again. Slices this pool did not
// lend are returned unchanged.
func (p *ReservedPool) Return(slice ringslice.Slice) ringslice.Slice {
	for i, s := range p.slices {
		if s == slice {
			s.Clear()
			if p.borrowed[i].CompareAndSwap(true, false) {
				p.size.Add(1)
			}
			return nil
		}
	}
	return slice
}

func (p *ReservedPool) Size() int     { return int(p.size.Load()) }
func (p *ReservedPool) Capacity() int { return len(p.slices) }
func (p *ReservedPool) Empty() bool   { return p.Size() == 0 }
func (p *ReservedPool) Full() bool    { return p.Size() == len(p.slices) }
