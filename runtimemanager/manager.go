package runtimemanager

import (
	"sync"
	"sync/atomic"

	"github.com/justapithecus/tracecore/buffer"
	"github.com/justapithecus/tracecore/clock"
	"github.com/justapithecus/tracecore/collector"
	"github.com/justapithecus/tracecore/diag"
	"github.com/justapithecus/tracecore/flushqueue"
	"github.com/justapithecus/tracecore/log"
	"github.com/justapithecus/tracecore/metrics"
	"github.com/justapithecus/tracecore/pool"
	"github.com/justapithecus/tracecore/trace"
)

// Options constructs a RuntimeManager. Config is the finalized runtime
// configuration; everything else is an injectable collaborator so tests can
// substitute manual clocks and fake writers.
type Options struct {
	Config Config

	ProcessID   int64
	SteadyClock clock.Clock
	SystemClock clock.Clock
	TraceWriter flushqueue.Writer
	Logger      *log.Logger
	Metrics     *metrics.Collector
}

// RuntimeManager is the process-singleton-like entry point instrumented
// code calls into. It owns the buffer-slice pool and flush queue across
// Initialize/Deinitialize cycles and binds a per-goroutine collector.Logger
// on first use via LogEvent.
type RuntimeManager struct {
	options     Config
	processID   int64
	steadyClock clock.Clock
	systemClock clock.Clock
	writer      flushqueue.Writer
	log         *log.Logger
	metrics     *metrics.Collector

	registry    *collector.Registry
	queueHandle *queueHandle

	mu          sync.RWMutex
	pool        pool.Pool
	flushQueue  *flushqueue.FlushQueue
	initialized bool
	loggers     map[*collector.Logger]struct{}

	enabled atomic.Bool
}

var _ collector.Notifier = (*RuntimeManager)(nil)

// New returns a RuntimeManager that has not yet been initialized. Nil
// clocks/writer fall back to wall-clock time and the on-disk FileWriter.
func New(options Options) *RuntimeManager {
	if options.SteadyClock == nil {
		options.SteadyClock = clock.SystemClock{}
	}
	if options.SystemClock == nil {
		options.SystemClock = clock.SystemClock{}
	}
	if options.TraceWriter == nil {
		options.TraceWriter = flushqueue.FileWriter{}
	}

	m := &RuntimeManager{
		options:     options.Config,
		processID:   options.ProcessID,
		steadyClock: options.SteadyClock,
		systemClock: options.SystemClock,
		writer:      options.TraceWriter,
		log:         options.Logger,
		metrics:     options.Metrics,
		loggers:     make(map[*collector.Logger]struct{}),
		queueHandle: &queueHandle{},
	}
	m.registry = collector.NewRegistry(func() *collector.Logger {
		return collector.New(collector.Options{
			Notifier:            m,
			FlushQueue:          m.queueHandle,
			PreferredCapacity:   m.options.ThreadEventBufferCapacity,
			FlushBufferWhenFull: false,
		})
	})
	return m
}

// Initialize constructs the amalgamated pool and starts the flush queue,
// then binds every already-subscribed logger to the new pool. Idempotent.
func (m *RuntimeManager) Initialize() {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}

	p := pool.NewAmalgamatedPool(pool.AmalgamatedOptions{
		Reserved: pool.ReservedOptions{
			MaxSliceCapacity: m.options.MaxReservedEventBufferSliceCapacity,
			Capacity:         m.options.ReservedEventPoolCapacity,
		},
		Dynamic: pool.DynamicOptions{
			MaxSliceCapacity:  m.options.MaxDynamicEventBufferSliceCapacity,
			Capacity:          m.options.DynamicEventPoolCapacity,
			BorrowCASAttempts: m.options.DynamicEventSliceBorrowCASAttempts,
		},
	})
	q := flushqueue.New(flushqueue.Options{
		TraceFileDirectory:     m.options.TraceFilePath,
		RetentionDuration:      m.options.EventBufferRetentionDuration,
		SystemClock:            m.systemClock,
		SteadyClock:            m.steadyClock,
		TraceWriter:            m.writer,
		SessionID:              m.options.SessionID,
		ProcessID:              m.processID,
		MaxBufferFlushAttempts: m.options.MaxFlushBufferToFileAttempts,
		FlushAllEvents:         m.options.FlushAllEvents,
		Logger:                 m.log,
		Metrics:                m.metrics,
	})
	q.Run()

	m.pool = p
	m.flushQueue = q
	m.initialized = true
	m.queueHandle.set(q)
	loggers := m.snapshotLoggersLocked()
	m.mu.Unlock()

	for _, l := range loggers {
		l.SetPool(p)
	}
}

// Deinitialize disables logging, detaches every subscribed logger from the
// pool (flushing their pending buffers onto the queue), drains or clears
// the queue per FlushAllEvents, and drops the pool. Idempotent.
func (m *RuntimeManager) Deinitialize() {
	m.Disable()

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return
	}
	q := m.flushQueue
	loggers := m.snapshotLoggersLocked()
	m.mu.Unlock()

	for _, l := range loggers {
		l.SetPool(nil)
	}

	if m.options.FlushAllEvents {
		done := make(chan struct{})
		q.Flush(func() { close(done) })
		<-done
	} else {
		q.Clear()
	}
	q.DrainAndStop()

	m.mu.Lock()
	m.pool = nil
	m.flushQueue = nil
	m.initialized = false
	m.mu.Unlock()
	m.queueHandle.set(nil)
}

// Enable flips the hot-path gate on. No-op if not initialized.
func (m *RuntimeManager) Enable() {
	m.mu.RLock()
	initialized := m.initialized
	m.mu.RUnlock()
	if !initialized {
		return
	}
	m.enabled.Store(true)
}

// Disable flips the hot-path gate off.
func (m *RuntimeManager) Disable() { m.enabled.Store(false) }

// Enabled reports the current hot-path gate state.
func (m *RuntimeManager) Enabled() bool { return m.enabled.Load() }

// Initialized reports whether Initialize has run without a matching
// Deinitialize.
func (m *RuntimeManager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Subscribe registers logger so Initialize/Deinitialize can rebind its
// pool, and binds it to the current pool right away if the manager is
// already initialized. Implements collector.Notifier.
func (m *RuntimeManager) Subscribe(logger *collector.Logger) {
	m.mu.Lock()
	m.loggers[logger] = struct{}{}
	p := m.pool
	m.mu.Unlock()
	if p != nil {
		logger.SetPool(p)
	}
}

// Unsubscribe removes logger from the subscribed set. Implements
// collector.Notifier.
func (m *RuntimeManager) Unsubscribe(logger *collector.Logger) {
	m.mu.Lock()
	delete(m.loggers, logger)
	m.mu.Unlock()
}

func (m *RuntimeManager) snapshotLoggersLocked() []*collector.Logger {
	out := make([]*collector.Logger, 0, len(m.loggers))
	for l := range m.loggers {
		out = append(out, l)
	}
	return out
}

// LogEvent is the hot path: it resolves (creating on first use) the calling
// goroutine's Logger, then — only if enabled — pushes the event. Resolving
// the logger happens unconditionally so a goroutine is subscribed the first
// time it calls in, even while disabled.
func (m *RuntimeManager) LogEvent(eventType trace.EventType, steadyClockNanos int64, payload1 uint64, payload2 uint32) {
	logger := m.registry.LoggerFor()
	if !m.enabled.Load() {
		return
	}
	logger.LogEvent(trace.Event{
		SteadyClockTimestampNanos: steadyClockNanos,
		Payload1:                  payload1,
		Type:                      eventType,
		Payload2:                  payload2,
	})
}

// LogEventNow stamps the event with the current steady clock reading.
func (m *RuntimeManager) LogEventNow(eventType trace.EventType, payload1 uint64, payload2 uint32) {
	m.LogEvent(eventType, m.steadyClock.NowNanos(), payload1, payload2)
}

// LogFunctionEntry records a FunctionEntry event for functionID, timestamped
// now.
func (m *RuntimeManager) LogFunctionEntry(functionID uint64) {
	m.LogEventNow(trace.FunctionEntry, functionID, 0)
}

// LogFunctionExit records a FunctionExit event for functionID, timestamped
// now.
func (m *RuntimeManager) LogFunctionExit(functionID uint64) {
	m.LogEventNow(trace.FunctionExit, functionID, 0)
}

// Flush flushes every subscribed logger's current buffer onto the queue,
// then requests a barrier: completion fires exactly once, after every
// record enqueued on or before this call reaches a terminal state. It is a
// no-op (calling completion immediately, if non-nil) when uninitialized.
func (m *RuntimeManager) Flush(completion func()) {
	m.mu.RLock()
	q := m.flushQueue
	loggers := m.snapshotLoggersLocked()
	m.mu.RUnlock()

	if q == nil {
		if completion != nil {
			completion()
		}
		return
	}
	for _, l := range loggers {
		l.Flush()
	}
	q.Flush(completion)
}

// Clear discards every subscribed logger's pending buffer in place and
// empties the flush queue, without writing anything or invoking any
// pending completion callback.
func (m *RuntimeManager) Clear() {
	m.mu.RLock()
	q := m.flushQueue
	loggers := m.snapshotLoggersLocked()
	m.mu.RUnlock()

	for _, l := range loggers {
		l.Clear()
	}
	if q != nil {
		q.Clear()
	}
}

// Config returns the configuration the manager was constructed from.
func (m *RuntimeManager) Config() Config { return m.options }

// DiagSnapshot returns a point-in-time view of pool occupancy, flush queue
// depth, and the manager's metrics.Collector counters, suitable for
// diag.WriteFrame to an admin socket or sidecar. Zero-valued fields when
// uninitialized or when no metrics.Collector was configured.
func (m *RuntimeManager) DiagSnapshot() diag.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := diag.Snapshot{Metrics: m.metrics.Snapshot()}
	if m.pool != nil {
		snap.PoolSize = m.pool.Size()
		snap.PoolCapacity = m.pool.Capacity()
	}
	if m.flushQueue != nil {
		snap.FlushQueueSize = m.flushQueue.Size()
	}
	return snap
}

// queueHandle is a stable collector.Enqueuer that forwards to whichever
// FlushQueue is current, letting loggers created before or across
// Initialize/Deinitialize cycles hold one fixed reference. Enqueue is a
// silent no-op while no queue is bound (pre-Initialize or post-
// Deinitialize), matching a disabled/unbound logger's own drop semantics.
type queueHandle struct {
	mu sync.RWMutex
	q  *flushqueue.FlushQueue
}

var _ collector.Enqueuer = (*queueHandle)(nil)

func (h *queueHandle) Enqueue(buf *buffer.CircularSliceBuffer) {
	h.mu.RLock()
	q := h.q
	h.mu.RUnlock()
	if q != nil {
		q.Enqueue(buf)
	}
}

func (h *queueHandle) set(q *flushqueue.FlushQueue) {
	h.mu.Lock()
	h.q = q
	h.mu.Unlock()
}
