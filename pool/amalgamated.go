package pool

import "github.com/justapithecus/tracecore/ringslice"

// AmalgamatedOptions configures an AmalgamatedPool.
type AmalgamatedOptions struct {
	Reserved ReservedOptions
	Dynamic  DynamicOptions
}

// AmalgamatedPool composes a ReservedPool and a DynamicPool. Borrow tries
// the reserved pool first and falls back to the dynamic pool only when the
// reserved pool reports ErrNoSlicesAvailable (a genuine CAS-attempts
// exhaustion on the reserved pool is not retried against dynamic, since it
// signals contention rather than exhaustion).
type AmalgamatedPool struct {
	reserved *ReservedPool
	dynamic  *DynamicPool
}

var _ Pool = (*AmalgamatedPool)(nil)

// NewAmalgamatedPool builds the reserved and dynamic tiers from options.
func NewAmalgamatedPool(options AmalgamatedOptions) *AmalgamatedPool {
	return &AmalgamatedPool{
		reserved: NewReservedPool(options.Reserved),
		dynamic:  NewDynamicPool(options.Dynamic),
	}
}

func (p *AmalgamatedPool) Borrow(preferredCapacity int) (ringslice.Slice, error) {
	slice, err := p.reserved.Borrow(preferredCapacity)
	if err == nil {
		return slice, nil
	}
	if err != ErrNoSlicesAvailable {
		return nil, err
	}
	return p.dynamic.Borrow(preferredCapacity)
}

// Return routes slice back to whichever tier lent it: reserved slices are
// recognized by arena membership, dynamic slices by their owner tag. A
// slice neither tier recognizes (e.g. one lent by a different pool
// instance) is returned unchanged so the caller can route it elsewhere.
func (p *AmalgamatedPool) Return(slice ringslice.Slice) ringslice.Slice {
	if remainder := p.reserved.Return(slice); remainder == nil {
		return nil
	}
	return p.dynamic.Return(slice)
}

func (p *AmalgamatedPool) Size() int     { return p.reserved.Size() + p.dynamic.Size() }
func (p *AmalgamatedPool) Capacity() int { return p.reserved.Capacity() + p.dynamic.Capacity() }
func (p *AmalgamatedPool) Empty() bool   { return p.Size() == 0 }
func (p *AmalgamatedPool) Full() bool    { return p.Capacity() <= p.Size() }

// ReturnAll reclaims every slice, returning the subset neither tier
// recognized.
func (p *AmalgamatedPool) ReturnAll(slices []ringslice.Slice) []ringslice.Slice {
	var unrouted []ringslice.Slice
	for _, s := range slices {
		if remainder := p.Return(s); remainder != nil {
			unrouted = append(unrouted, remainder)
		}
	}
	return unrouted
}
