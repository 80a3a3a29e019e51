package flushqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/tracecore/buffer"
	"github.com/justapithecus/tracecore/clock"
	"github.com/justapithecus/tracecore/pool"
	"github.com/justapithecus/tracecore/trace"
)

type recordingWriter struct {
	mu        sync.Mutex
	failUntil int
	calls     int
	paths     []string
}

func (w *recordingWriter) Write(path string, header trace.Header, chunks [][]trace.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.calls <= w.failUntil {
		return errWriteFailed
	}
	w.paths = append(w.paths, path)
	return nil
}

var errWriteFailed = &writeError{"simulated write failure"}

type writeError struct{ msg string }

func (e *writeError) Error() string { return e.msg }

func testBuffer(t *testing.T) *buffer.CircularSliceBuffer {
	t.Helper()
	p := pool.NewDynamicPool(pool.DynamicOptions{MaxSliceCapacity: 4, Capacity: 8, BorrowCASAttempts: 4})
	b := buffer.New(buffer.Options{Pool: p, Capacity: 4})
	b.Push(trace.Event{Type: trace.FunctionEntry, Payload1: 1})
	b.Push(trace.Event{Type: trace.FunctionExit, Payload1: 1})
	return b
}

func TestFlushQueueEnqueueAndFlushWritesFile(t *testing.T) {
	steady := clock.NewManualClock(1000)
	writer := &recordingWriter{}
	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      time.Hour,
		SystemClock:            clock.NewManualClock(2000),
		SteadyClock:            steady,
		TraceWriter:            writer,
		MaxBufferFlushAttempts: 3,
	})
	q.Run()
	defer q.DrainAndStop()

	q.Enqueue(testBuffer(t))

	done := make(chan struct{})
	q.Flush(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flush completion never fired")
	}

	require.Len(t, writer.paths, 1)
}

func TestFlushQueueDropsRecordsOlderThanRetention(t *testing.T) {
	steady := clock.NewManualClock(0)
	writer := &recordingWriter{}
	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      10 * time.Nanosecond,
		SystemClock:            clock.NewManualClock(0),
		SteadyClock:            steady,
		TraceWriter:            writer,
		MaxBufferFlushAttempts: 3,
	})
	q.Run()
	defer q.DrainAndStop()

	q.Enqueue(testBuffer(t))
	steady.Advance(time.Second) // well past the retention window

	done := make(chan struct{})
	q.Flush(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flush completion never fired")
	}
	require.Empty(t, writer.paths, "record should have been retention-dropped, not written")
}

func TestFlushQueueClearDoesNotInvokeCompletion(t *testing.T) {
	steady := clock.NewManualClock(0)
	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      time.Hour,
		SystemClock:            clock.NewManualClock(0),
		SteadyClock:            steady,
		TraceWriter:            &recordingWriter{},
		MaxBufferFlushAttempts: 3,
	})
	q.Run()
	defer q.DrainAndStop()

	q.Enqueue(testBuffer(t))

	called := false
	q.Flush(func() { called = true })
	q.Clear()
	time.Sleep(50 * time.Millisecond)
	require.False(t, called)
	require.True(t, q.Empty())
}

func TestFlushQueueRetriesWriteFailureThenSucceeds(t *testing.T) {
	steady := clock.NewManualClock(0)
	writer := &recordingWriter{failUntil: 2}
	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      time.Hour,
		SystemClock:            clock.NewManualClock(0),
		SteadyClock:            steady,
		TraceWriter:            writer,
		MaxBufferFlushAttempts: 5,
	})
	q.Run()
	defer q.DrainAndStop()

	q.Enqueue(testBuffer(t))

	done := make(chan struct{})
	q.Flush(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush completion never fired")
	}
	require.Len(t, writer.paths, 1)
}

func TestFlushQueueFlushReturnsBufferSlicesToPool(t *testing.T) {
	steady := clock.NewManualClock(1000)
	p := pool.NewDynamicPool(pool.DynamicOptions{MaxSliceCapacity: 4, Capacity: 8, BorrowCASAttempts: 4})
	b := buffer.New(buffer.Options{Pool: p, Capacity: 4})
	b.Push(trace.Event{Type: trace.FunctionEntry, Payload1: 1})
	b.Push(trace.Event{Type: trace.FunctionExit, Payload1: 1})
	require.Less(t, p.Size(), p.Capacity(), "buffer should have borrowed from the pool")

	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      time.Hour,
		SystemClock:            clock.NewManualClock(2000),
		SteadyClock:            steady,
		TraceWriter:            &recordingWriter{},
		MaxBufferFlushAttempts: 3,
	})
	q.Run()
	defer q.DrainAndStop()

	q.Enqueue(b)

	done := make(chan struct{})
	q.Flush(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flush completion never fired")
	}

	require.Equal(t, p.Capacity(), p.Size(), "pool capacity should be fully reclaimed after flush")
}

func TestFlushQueueRetentionDropReturnsBufferSlicesToPool(t *testing.T) {
	steady := clock.NewManualClock(0)
	p := pool.NewDynamicPool(pool.DynamicOptions{MaxSliceCapacity: 4, Capacity: 8, BorrowCASAttempts: 4})
	b := buffer.New(buffer.Options{Pool: p, Capacity: 4})
	b.Push(trace.Event{Type: trace.FunctionEntry, Payload1: 1})

	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      10 * time.Nanosecond,
		SystemClock:            clock.NewManualClock(0),
		SteadyClock:            steady,
		TraceWriter:            &recordingWriter{},
		MaxBufferFlushAttempts: 3,
	})
	q.Run()
	defer q.DrainAndStop()

	q.Enqueue(b)
	steady.Advance(time.Second)

	done := make(chan struct{})
	q.Flush(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flush completion never fired")
	}

	require.Equal(t, p.Capacity(), p.Size(), "pool capacity should be reclaimed even when the record is retention-dropped")
}

func TestFlushQueueRunAndDrainAndStopAreIdempotent(t *testing.T) {
	q := New(Options{
		TraceFileDirectory:     t.TempDir(),
		RetentionDuration:      time.Hour,
		SystemClock:            clock.NewManualClock(0),
		SteadyClock:            clock.NewManualClock(0),
		TraceWriter:            &recordingWriter{},
		MaxBufferFlushAttempts: 1,
	})
	q.Run()
	q.Run()
	q.DrainAndStop()
	q.DrainAndStop()
}
