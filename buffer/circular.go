// Package buffer implements the Circular Slice Buffer: a logical ring
// composed of multiple borrowed ringslice.Slice values, lazily acquired
// from a pool as demand grows and wrapped back to the first slice when the
// pool can no longer lend more.
package buffer

import (
	"github.com/justapithecus/tracecore/pool"
	"github.com/justapithecus/tracecore/ringslice"
	"github.com/justapithecus/tracecore/trace"
)

// Options configures a CircularSliceBuffer.
type Options struct {
	Pool     pool.Pool
	Capacity int
}

// CircularSliceBuffer is a logical ring of events spread across a sequence
// of slices borrowed from a Pool. When the buffer needs more room than its
// current slices provide, it borrows another from the pool; when the pool
// refuses, it silently wraps back to the first slice and begins
// overwriting the oldest events.
type CircularSliceBuffer struct {
	options          Options
	slices           []ringslice.Slice
	insertionIndex   int
	size             int
	acquiredCapacity int
}

// New returns an empty CircularSliceBuffer with no slices yet acquired.
func New(options Options) *CircularSliceBuffer {
	return &CircularSliceBuffer{options: options}
}

func (b *CircularSliceBuffer) Capacity() int { return b.options.Capacity }
func (b *CircularSliceBuffer) Size() int     { return b.size }
func (b *CircularSliceBuffer) Empty() bool   { return b.size == 0 }
func (b *CircularSliceBuffer) Full() bool    { return b.size == b.options.Capacity }

// Push appends event, borrowing another slice from the pool first if
// needed and if the pool has room to grant one; otherwise it wraps to the
// first slice, silently overwriting the oldest events. If no slice has been
// acquired at all and the pool refuses, the event is dropped.
func (b *CircularSliceBuffer) Push(event trace.Event) {
	if b.Capacity() == 0 {
		return
	}
	b.prepareToPush()
	if b.insertionIndex >= len(b.slices) {
		return
	}
	b.slices[b.insertionIndex].Push(event)
	if b.size < b.acquiredCapacity {
		b.size++
	}
}

// Clear returns every acquired slice to the pool and resets the buffer to
// its initial, unacquired state.
func (b *CircularSliceBuffer) Clear() {
	for _, s := range b.slices {
		b.options.Pool.Return(s)
	}
	b.slices = nil
	b.insertionIndex = 0
	b.size = 0
	b.acquiredCapacity = 0
}

// WillWrapOnNextPush reports whether the next Push will wrap the whole
// buffer back to its first slice: slices covering the full capacity have
// been acquired, the insertion slice is the last one, and that slice is
// itself about to wrap. While capacity remains unacquired it reports false,
// even if the pool would refuse the next borrow.
func (b *CircularSliceBuffer) WillWrapOnNextPush() bool {
	if b.Capacity() == 0 {
		return true
	}
	if b.Capacity() > b.acquiredCapacity {
		return false
	}
	return b.insertionIndex == len(b.slices)-1 && b.slices[b.insertionIndex].WillWrapOnNextPush()
}

// ContiguousMemoryChunks returns the buffer's live contents, oldest first,
// as a sequence of contiguous spans: the insertion slice's own tail chunk
// (if it has itself wrapped), then every slice after the insertion slice,
// then every slice before it, and finally the insertion slice's head chunk.
func (b *CircularSliceBuffer) ContiguousMemoryChunks() [][]trace.Event {
	if len(b.slices) == 0 {
		return nil
	}
	chunks := make([][]trace.Event, 0, len(b.slices)+1)

	insertionChunks := b.slices[b.insertionIndex].ContiguousMemoryChunks()
	if len(insertionChunks) > 1 {
		chunks = append(chunks, insertionChunks[0])
	}
	for i := b.insertionIndex + 1; i < len(b.slices); i++ {
		chunks = append(chunks, b.slices[i].ContiguousMemoryChunks()...)
	}
	for i := 0; i < b.insertionIndex; i++ {
		chunks = append(chunks, b.slices[i].ContiguousMemoryChunks()...)
	}
	if len(insertionChunks) > 0 {
		chunks = append(chunks, insertionChunks[len(insertionChunks)-1])
	}
	return chunks
}

// prepareToPush advances the insertion cursor past any slice that is about
// to wrap, then either wraps the whole buffer back to its first slice or
// borrows a new one from the pool.
func (b *CircularSliceBuffer) prepareToPush() {
	if b.insertionIndex < len(b.slices) && b.slices[b.insertionIndex].WillWrapOnNextPush() {
		b.insertionIndex++
	}
	if b.insertionIndex < len(b.slices) {
		return
	}
	if b.Capacity() <= b.acquiredCapacity {
		b.insertionIndex = 0
		return
	}
	slice, err := b.options.Pool.Borrow(b.Capacity() - b.Size())
	if err != nil {
		b.insertionIndex = 0
		return
	}
	b.slices = append(b.slices, slice)
	b.acquiredCapacity += slice.Capacity()
	b.insertionIndex = len(b.slices) - 1
}
