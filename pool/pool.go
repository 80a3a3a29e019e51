// Package pool implements the lock-free buffer-slice pools: a fixed
// "reserved" pool carved out of one contiguous arena, a heap-allocating
// "dynamic" pool bounded by a size budget, and an "amalgamated" pool that
// composes the two with reserved-first routing.
package pool

import (
	"errors"

	"github.com/justapithecus/tracecore/ringslice"
)

// ErrNoSlicesAvailable is returned when a pool is out of capacity to lend.
var ErrNoSlicesAvailable = errors.New("pool: no slices available")

// ErrCASAttemptsExhausted is returned when a bounded compare-and-swap borrow
// loop runs out of attempts under contention without succeeding.
var ErrCASAttemptsExhausted = errors.New("pool: cas attempts exhausted")

// Pool lends and reclaims ringslice.Slice values of a preferred size.
type Pool interface {
	// Borrow lends a slice. DynamicPool sizes it at most preferredCapacity;
	// ReservedPool ignores preferredCapacity and lends a slice of its
	// fixed carved size. It returns
	// ErrNoSlicesAvailable if the pool has no remaining capacity, or
	// ErrCASAttemptsExhausted if the bounded retry loop could not win a
	// compare-and-swap race.
	Borrow(preferredCapacity int) (ringslice.Slice, error)
	// Return reclaims a slice previously lent by this pool. Slices not
	// owned by this pool are returned unchanged so the caller can route
	// them elsewhere.
	Return(slice ringslice.Slice) ringslice.Slice
	Size() int
	Capacity() int
	Empty() bool
	Full() bool
}
