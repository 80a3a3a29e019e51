// Package metrics provides process-lifetime counters for the runtime.
//
// Collector accumulates counters for one process. It is a leaf package with
// no internal dependencies. All increment methods are nil-receiver safe so
// call sites never need to check whether metrics collection is enabled.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters. Safe to read
// concurrently after creation.
type Snapshot struct {
	BorrowNoSlicesAvailable int64
	BorrowCASExhausted      int64

	FlushSuccess   int64
	FlushFailure   int64
	RetentionDrops int64
	QueueDepth     int64

	SessionID string
}

// Collector accumulates counters for one runtime session. Thread-safe via
// sync.Mutex.
type Collector struct {
	mu sync.Mutex

	borrowNoSlicesAvailable int64
	borrowCASExhausted      int64

	flushSuccess   int64
	flushFailure   int64
	retentionDrops int64
	queueDepth     int64

	sessionID string
}

// NewCollector creates a Collector labeled with sessionID.
func NewCollector(sessionID string) *Collector {
	return &Collector{sessionID: sessionID}
}

// IncBorrowNoSlicesAvailable records a pool.Borrow call that found no
// remaining capacity.
func (c *Collector) IncBorrowNoSlicesAvailable() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.borrowNoSlicesAvailable++
	c.mu.Unlock()
}

// IncBorrowCASExhausted records a pool.Borrow call that exhausted its
// bounded compare-and-swap retry loop.
func (c *Collector) IncBorrowCASExhausted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.borrowCASExhausted++
	c.mu.Unlock()
}

// IncFlushSuccess records a trace file successfully written to disk.
func (c *Collector) IncFlushSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.flushSuccess++
	c.mu.Unlock()
}

// IncFlushFailure records a flush record that exhausted its write attempts.
func (c *Collector) IncFlushFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.flushFailure++
	c.mu.Unlock()
}

// IncRetentionDrop records a record dropped for having aged past the
// retention window without being manually flushed.
func (c *Collector) IncRetentionDrop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retentionDrops++
	c.mu.Unlock()
}

// IncQueueDepth records one more record having entered the flush queue.
func (c *Collector) IncQueueDepth() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.queueDepth++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		BorrowNoSlicesAvailable: c.borrowNoSlicesAvailable,
		BorrowCASExhausted:      c.borrowCASExhausted,
		FlushSuccess:            c.flushSuccess,
		FlushFailure:            c.flushFailure,
		RetentionDrops:          c.retentionDrops,
		QueueDepth:              c.queueDepth,
		SessionID:               c.sessionID,
	}
}
