package collector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/tracecore/buffer"
	"github.com/justapithecus/tracecore/pool"
	"github.com/justapithecus/tracecore/trace"
)

type fakeEnqueuer struct {
	enqueued []*buffer.CircularSliceBuffer
}

func (f *fakeEnqueuer) Enqueue(buf *buffer.CircularSliceBuffer) {
	f.enqueued = append(f.enqueued, buf)
}

type fakeNotifier struct {
	subscribed, unsubscribed []*Logger
}

func (f *fakeNotifier) Subscribe(l *Logger)   { f.subscribed = append(f.subscribed, l) }
func (f *fakeNotifier) Unsubscribe(l *Logger) { f.unsubscribed = append(f.unsubscribed, l) }

func testPool() pool.Pool {
	return pool.NewDynamicPool(pool.DynamicOptions{MaxSliceCapacity: 4, Capacity: 16, BorrowCASAttempts: 8})
}

func TestLoggerLogEventNoOpWithoutPool(t *testing.T) {
	l := New(Options{PreferredCapacity: 4})
	l.LogEvent(trace.Event{Type: trace.FunctionEntry})
	require.True(t, l.Empty())
}

func TestLoggerLogEventFlushesOnFullBuffer(t *testing.T) {
	enq := &fakeEnqueuer{}
	l := New(Options{FlushQueue: enq, PreferredCapacity: 2, FlushBufferWhenFull: true})
	l.SetPool(testPool())

	l.LogEvent(trace.Event{Type: trace.FunctionEntry})
	l.LogEvent(trace.Event{Type: trace.FunctionExit})

	require.Len(t, enq.enqueued, 1)
	require.True(t, l.Empty())
}

func TestLoggerSetPoolNilFlushesAndDetaches(t *testing.T) {
	enq := &fakeEnqueuer{}
	l := New(Options{FlushQueue: enq, PreferredCapacity: 4})
	l.SetPool(testPool())
	l.LogEvent(trace.Event{Type: trace.FunctionEntry})

	l.SetPool(nil)
	require.Len(t, enq.enqueued, 1)
	require.Equal(t, 0, l.Size())

	l.LogEvent(trace.Event{Type: trace.FunctionEntry})
	require.Len(t, enq.enqueued, 1, "logging with no pool bound must be a no-op")
}

func TestLoggerClearDoesNotEnqueue(t *testing.T) {
	enq := &fakeEnqueuer{}
	l := New(Options{FlushQueue: enq, PreferredCapacity: 4})
	l.SetPool(testPool())
	l.LogEvent(trace.Event{Type: trace.FunctionEntry})

	l.Clear()
	require.Empty(t, enq.enqueued)
	require.True(t, l.Empty())
}

func TestLoggerSubscribesAndUnsubscribes(t *testing.T) {
	n := &fakeNotifier{}
	l := New(Options{Notifier: n})
	require.Len(t, n.subscribed, 1)

	l.Close()
	require.Len(t, n.unsubscribed, 1)
}

func TestRegistryReusesLoggerForSameGoroutine(t *testing.T) {
	calls := 0
	r := NewRegistry(func() *Logger {
		calls++
		return New(Options{PreferredCapacity: 4})
	})

	first := r.LoggerFor()
	second := r.LoggerFor()
	require.Same(t, first, second)
	require.Equal(t, 1, calls)
}
