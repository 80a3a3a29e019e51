package flushqueue

import "github.com/justapithecus/tracecore/buffer"

// record is one detached buffer waiting to be written to disk.
type record struct {
	id                uint64
	threadID          uint64
	buf               *buffer.CircularSliceBuffer
	enqueueTimestamp  int64
	remainingAttempts int
}
