// Package ringslice implements a fixed-capacity ring buffer of trace.Event
// values, in an owned-backing-array variant and an unowned (borrowed-memory)
// variant sharing one implementation.
package ringslice

import "github.com/justapithecus/tracecore/trace"

// Slice is a fixed-capacity ring buffer of trace.Event. Push never errors;
// once full, the oldest element is overwritten.
type Slice interface {
	Push(event trace.Event)
	Clear()
	Size() int
	Capacity() int
	Empty() bool
	Full() bool
	// WillWrapOnNextPush reports whether the slice is full and its next
	// Push writes at the start of the backing array, i.e. wraps around the
	// array's end. It is always true for a zero-capacity slice.
	WillWrapOnNextPush() bool
	// ContiguousMemoryChunks returns the buffer's contents, oldest first,
	// as one or two contiguous spans (two only when the backing array has
	// wrapped around its end).
	ContiguousMemoryChunks() [][]trace.Event
}

type ring struct {
	buffer []trace.Event
	size   int
	// head is the index of the oldest element; cursor is the index the
	// next Push will write to.
	head, cursor int
}

// NewOwned returns a Slice backed by a freshly allocated array of the given
// capacity.
func NewOwned(capacity int) Slice {
	return &ring{buffer: make([]trace.Event, capacity)}
}

// NewUnowned returns a Slice that writes into backing, a caller-owned array.
// The returned Slice's capacity is len(backing); it never reallocates.
func NewUnowned(backing []trace.Event) Slice {
	return &ring{buffer: backing}
}

func (r *ring) Capacity() int { return len(r.buffer) }
func (r *ring) Size() int     { return r.size }
func (r *ring) Empty() bool   { return r.size == 0 }
func (r *ring) Full() bool    { return r.size == len(r.buffer) }

func (r *ring) WillWrapOnNextPush() bool {
	if len(r.buffer) == 0 {
		return true
	}
	return r.Full() && r.cursor == 0
}

func (r *ring) Push(event trace.Event) {
	if len(r.buffer) == 0 {
		return
	}
	r.buffer[r.cursor] = event
	r.cursor = (r.cursor + 1) % len(r.buffer)
	if r.size < len(r.buffer) {
		r.size++
	} else {
		// Overwrote the oldest element; the ring's logical start moves.
		r.head = r.cursor
	}
}

func (r *ring) Clear() {
	r.size = 0
	r.head = 0
	r.cursor = 0
}

// ContiguousMemoryChunks returns the live contents oldest-first as at most
// two spans: the tail from head to the end of the backing array, then the
// head of the backing array up to cursor, if the live region wraps.
func (r *ring) ContiguousMemoryChunks() [][]trace.Event {
	if r.size == 0 {
		return nil
	}
	if r.head+r.size <= len(r.buffer) {
		return [][]trace.Event{r.buffer[r.head : r.head+r.size]}
	}
	return [][]trace.Event{
		r.buffer[r.head:len(r.buffer)],
		r.buffer[0:r.cursor],
	}
}
