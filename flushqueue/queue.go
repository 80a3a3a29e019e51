// Package flushqueue implements the background flush worker: retention-
// window drop semantics, a manual-flush barrier with a completion callback
// fired exactly once, and bounded write-retry with re-enqueue-at-back on
// failure.
package flushqueue

import (
	"container/list"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justapithecus/tracecore/buffer"
	"github.com/justapithecus/tracecore/clock"
	"github.com/justapithecus/tracecore/log"
	"github.com/justapithecus/tracecore/metrics"
	"github.com/justapithecus/tracecore/trace"
)

// Options configures a FlushQueue.
type Options struct {
	TraceFileDirectory     string
	RetentionDuration      time.Duration
	SystemClock            clock.Clock
	SteadyClock            clock.Clock
	TraceWriter            Writer
	SessionID              uint64
	ProcessID              int64
	MaxBufferFlushAttempts int
	FlushAllEvents         bool
	Logger                 *log.Logger
	Metrics                *metrics.Collector
}

// FlushQueue is the background writer between per-goroutine Loggers and
// disk. Its worker loop runs in its own goroutine, started by Run and
// stopped by DrainAndStop; both are idempotent.
type FlushQueue struct {
	options Options

	running  atomic.Bool
	draining atomic.Bool

	mu                sync.Mutex
	queue             *list.List // of *record
	queueSize         atomic.Int64
	nextID            uint64
	lastFlushTimestamp int64
	manualFlushIDs     map[uint64]struct{}
	flushCompletion    func()

	workerDone chan struct{}
}

// New returns a FlushQueue that has not yet been started.
func New(options Options) *FlushQueue {
	return &FlushQueue{
		options:        options,
		queue:          list.New(),
		manualFlushIDs: make(map[uint64]struct{}),
	}
}

// Run starts the background worker goroutine. Calling Run again before
// DrainAndStop is a no-op.
func (q *FlushQueue) Run() {
	if q.running.Swap(true) {
		return
	}
	q.workerDone = make(chan struct{})
	go q.loop()
}

// DrainAndStop stops accepting new buffers and blocks until the worker
// goroutine has written or dropped every remaining record, then returns the
// queue to idle so Run can start it again. Calling it before Run, or more
// than once, is a no-op.
func (q *FlushQueue) DrainAndStop() {
	if !q.running.Load() || q.draining.Swap(true) {
		return
	}
	<-q.workerDone
	q.running.Store(false)
	q.draining.Store(false)
}

// Enqueue detaches buf for background writing. The buffer's events are
// serialized against a retention window measured from this call, not from
// whenever the worker eventually processes it. Enqueue silently drops buf
// if the queue is not running or is draining.
func (q *FlushQueue) Enqueue(buf *buffer.CircularSliceBuffer) {
	enqueueTimestamp := q.options.SteadyClock.NowNanos()
	if !q.running.Load() || q.draining.Load() {
		return
	}
	threadID := currentThreadID()

	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.queue.PushBack(&record{
		id:                id,
		threadID:          threadID,
		buf:               buf,
		enqueueTimestamp:  enqueueTimestamp,
		remainingAttempts: q.options.MaxBufferFlushAttempts,
	})
	q.mu.Unlock()
	q.queueSize.Add(1)
	if q.options.Metrics != nil {
		q.options.Metrics.IncQueueDepth()
	}
}

// Flush requests that every record currently in the queue be written
// before completion fires. completion may be nil. It fires on its own
// goroutine once every barrier-covered record has reached a terminal
// state (written, or retention-dropped, or retries exhausted).
func (q *FlushQueue) Flush(completion func()) {
	now := q.options.SteadyClock.NowNanos()

	q.mu.Lock()
	q.lastFlushTimestamp = now
	if completion != nil {
		q.flushCompletion = completion
		for e := q.queue.Front(); e != nil; e = e.Next() {
			r := e.Value.(*record)
			if r.enqueueTimestamp <= now {
				q.manualFlushIDs[r.id] = struct{}{}
			}
		}
		if len(q.manualFlushIDs) == 0 {
			cb := q.flushCompletion
			q.flushCompletion = nil
			q.mu.Unlock()
			go cb()
			return
		}
	}
	q.mu.Unlock()
}

// Clear discards every queued record without writing it and without
// invoking any pending completion callback. The discarded buffers' slices
// are returned to their pool.
func (q *FlushQueue) Clear() {
	q.mu.Lock()
	discarded := q.queue
	q.queue = list.New()
	q.manualFlushIDs = make(map[uint64]struct{})
	q.mu.Unlock()
	q.queueSize.Store(0)
	for e := discarded.Front(); e != nil; e = e.Next() {
		e.Value.(*record).buf.Clear()
	}
}

func (q *FlushQueue) Size() int  { return int(q.queueSize.Load()) }
func (q *FlushQueue) Empty() bool { return q.Size() == 0 }

func (q *FlushQueue) loop() {
	defer close(q.workerDone)
	for !q.draining.Load() || !q.Empty() {
		r, ok := q.popFront()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		now := q.options.SteadyClock.NowNanos()
		withinRetention := time.Duration(now-r.enqueueTimestamp) <= q.options.RetentionDuration
		if !q.options.FlushAllEvents && !withinRetention {
			q.dropRecord(r)
			if q.options.Metrics != nil {
				q.options.Metrics.IncRetentionDrop()
			}
			continue
		}

		q.mu.Lock()
		barrierSatisfied := q.options.FlushAllEvents || r.enqueueTimestamp <= q.lastFlushTimestamp
		q.mu.Unlock()
		if !barrierSatisfied {
			q.pushBack(r)
			continue
		}

		if err := q.write(r); err != nil {
			r.remainingAttempts--
			if q.options.Logger != nil {
				q.options.Logger.Warn("flush write failed", map[string]any{
					"error":     err.Error(),
					"record_id": r.id,
					"attempts":  r.remainingAttempts,
				})
			}
			if r.remainingAttempts > 0 {
				q.pushBack(r)
				continue
			}
			if q.options.Metrics != nil {
				q.options.Metrics.IncFlushFailure()
			}
		} else if q.options.Metrics != nil {
			q.options.Metrics.IncFlushSuccess()
		}
		q.dropRecord(r)
	}
}

func (q *FlushQueue) write(r *record) error {
	header := trace.Header{
		Version:                   trace.Version,
		SessionID:                 q.options.SessionID,
		ProcessID:                 q.options.ProcessID,
		ThreadID:                  r.threadID,
		SystemClockTimestampNanos: q.options.SystemClock.NowNanos(),
		SteadyClockTimestampNanos: q.options.SteadyClock.NowNanos(),
	}
	chunks := r.buf.ContiguousMemoryChunks()
	for _, c := range chunks {
		header.EventCount += int32(len(c))
	}
	path := filepath.Join(q.options.TraceFileDirectory, traceFileName(q.options.SessionID, r.threadID, header.SteadyClockTimestampNanos))
	return q.options.TraceWriter.Write(path, header, chunks)
}

// popFront removes and returns the record at the front of the deque, if any.
func (q *FlushQueue) popFront() (*record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.queue.Front()
	if e == nil {
		return nil, false
	}
	q.queue.Remove(e)
	return e.Value.(*record), true
}

// pushBack re-enqueues r at the back of the deque, e.g. because its
// barrier has not yet been satisfied or a write attempt failed.
func (q *FlushQueue) pushBack(r *record) {
	q.mu.Lock()
	q.queue.PushBack(r)
	q.mu.Unlock()
}

// dropRecord finalizes r: its buffer's slices are returned to the pool they
// were borrowed from, it is removed from the manual-flush barrier set, and
// the queue size is decremented, firing any now-satisfied completion
// callback on its own goroutine.
func (q *FlushQueue) dropRecord(r *record) {
	r.buf.Clear()

	q.mu.Lock()
	delete(q.manualFlushIDs, r.id)
	var cb func()
	if len(q.manualFlushIDs) == 0 && q.flushCompletion != nil {
		cb = q.flushCompletion
		q.flushCompletion = nil
	}
	q.mu.Unlock()
	q.queueSize.Add(-1)
	if cb != nil {
		go cb()
	}
}

func traceFileName(sessionID, threadID uint64, steadyClockNanos int64) string {
	return fmt.Sprintf("%016x-%016x-%016x.trace", sessionID, threadID, uint64(steadyClockNanos))
}
