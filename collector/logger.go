// Package collector implements the per-goroutine Event Logger: a thin
// wrapper around one buffer.CircularSliceBuffer that knows how to flush
// itself to a queue and subscribes to a central notifier for pool rebinding.
package collector

import (
	"sync"

	"github.com/justapithecus/tracecore/buffer"
	"github.com/justapithecus/tracecore/pool"
	"github.com/justapithecus/tracecore/trace"
)

// Enqueuer accepts a detached buffer for background flushing. Implemented
// by *flushqueue.FlushQueue; declared here to avoid an import cycle.
type Enqueuer interface {
	Enqueue(buf *buffer.CircularSliceBuffer)
}

// Notifier is the one-directional subscription surface a Logger uses to
// register with its owning manager. Implemented by
// *runtimemanager.RuntimeManager; declared here (rather than imported) so
// collector has no dependency on runtimemanager, resolving what would
// otherwise be a cyclic import between "the manager owns loggers" and "the
// logger notifies the manager".
type Notifier interface {
	Subscribe(logger *Logger)
	Unsubscribe(logger *Logger)
}

// Options configures a Logger.
type Options struct {
	Notifier            Notifier
	FlushQueue          Enqueuer
	PreferredCapacity   int
	FlushBufferWhenFull bool
}

// Logger collects events for one goroutine into a buffer.CircularSliceBuffer
// and hands that buffer to the flush queue when it fills or is flushed
// explicitly. Go has no destructors, so flushing and unsubscribing happen
// only when Close is called; Registry never evicts or closes the Loggers it
// creates.
type Logger struct {
	options Options

	mu     sync.Mutex
	pool   pool.Pool
	buffer *buffer.CircularSliceBuffer
}

// New constructs a Logger with no pool bound and subscribes it to
// options.Notifier, if set; the notifier may bind a pool via SetPool during
// Subscribe.
func New(options Options) *Logger {
	l := &Logger{options: options}
	if options.Notifier != nil {
		options.Notifier.Subscribe(l)
	}
	return l
}

// Close flushes any pending events and unsubscribes from the notifier.
func (l *Logger) Close() {
	l.Flush()
	if l.options.Notifier != nil {
		l.options.Notifier.Unsubscribe(l)
	}
}

// SetPool rebinds the Logger to a new pool. A nil pool flushes any pending
// events and detaches the buffer entirely; a non-nil pool allocates a fresh
// buffer against it.
func (l *Logger) SetPool(p pool.Pool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p == nil {
		l.flushLocked()
		l.pool = nil
		l.buffer = nil
		return
	}
	l.pool = p
	l.buffer = buffer.New(buffer.Options{Pool: p, Capacity: l.options.PreferredCapacity})
}

// LogEvent pushes event into the current buffer, flushing immediately if
// FlushBufferWhenFull and the buffer is now full. It is a silent no-op when
// the Logger has no pool bound.
func (l *Logger) LogEvent(event trace.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool == nil || l.buffer == nil {
		return
	}
	l.buffer.Push(event)
	if l.options.FlushBufferWhenFull && l.buffer.Full() {
		l.flushLocked()
	}
}

// Flush detaches the current buffer (if non-empty) onto the flush queue and
// allocates a fresh one from the same pool. No-op when empty or unbound.
func (l *Logger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushLocked()
}

func (l *Logger) flushLocked() {
	if l.buffer == nil || l.buffer.Empty() {
		return
	}
	detached := l.buffer
	l.buffer = buffer.New(buffer.Options{Pool: l.pool, Capacity: l.options.PreferredCapacity})
	if l.options.FlushQueue != nil {
		l.options.FlushQueue.Enqueue(detached)
	}
}

// Clear discards pending events in place without enqueuing them.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buffer == nil {
		return
	}
	l.buffer.Clear()
}

func (l *Logger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buffer == nil {
		return 0
	}
	return l.buffer.Size()
}

func (l *Logger) Capacity() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buffer == nil {
		return 0
	}
	return l.buffer.Capacity()
}

func (l *Logger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer == nil || l.buffer.Empty()
}

func (l *Logger) Full() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer == nil || l.buffer.Full()
}
