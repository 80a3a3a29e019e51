package runtimemanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/tracecore/trace"
)

// fakeArchiver records every path it was asked to archive and can be made
// to fail on demand, standing in for archive.S3Archiver in tests that don't
// want a real AWS dependency.
type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
	failOn   map[string]bool
}

func (a *fakeArchiver) Archive(_ context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failOn[path] {
		return fmt.Errorf("fakeArchiver: simulated failure for %s", path)
	}
	a.archived = append(a.archived, path)
	return nil
}

func writeTraceFile(t *testing.T, dir string, sessionID, threadID uint64, steadyNanos int64, systemNanos int64, payload []byte) string {
	t.Helper()
	name := filepath.Join(dir, fmt.Sprintf("%016x-%016x-%016x.trace", sessionID, threadID, uint64(steadyNanos)))
	header := trace.EncodeHeader(trace.Header{
		Version:                   trace.Version,
		SessionID:                 sessionID,
		ThreadID:                  threadID,
		SystemClockTimestampNanos: systemNanos,
		SteadyClockTimestampNanos: steadyNanos,
	})
	data := append(header[:], payload...)
	require.NoError(t, os.WriteFile(name, data, 0o644))
	return name
}

func TestFlushedTraceFilesListsMatchingNames(t *testing.T) {
	dir := t.TempDir()
	writeTraceFile(t, dir, 1, 2, 3, 0, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-a-trace.txt"), []byte("x"), 0o644))

	done := make(chan []string, 1)
	FlushedTraceFiles(dir, trace.FileReader{}, func(paths []string) { done <- paths })

	select {
	case paths := <-done:
		require.Len(t, paths, 1)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

// Scenario F: old-file GC.
func TestDeleteFlushedTraceFilesOlderThan(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTraceFile(t, dir, 1, 1, int64(1*time.Second), int64(1*time.Second), []byte("aaaa"))
	p2 := writeTraceFile(t, dir, 1, 2, int64(2*time.Second), int64(2*time.Second), []byte("bb"))
	p3 := writeTraceFile(t, dir, 1, 3, int64(3*time.Second), int64(3*time.Second), []byte("c"))

	info1, err := os.Stat(p1)
	require.NoError(t, err)
	info2, err := os.Stat(p2)
	require.NoError(t, err)

	done := make(chan DeletedFilesInfo, 1)
	DeleteFlushedTraceFilesOlderThan(2, dir, trace.FileReader{}, nil, func(info DeletedFilesInfo) { done <- info })

	select {
	case info := <-done:
		require.EqualValues(t, 2, info.DeletedFiles)
		require.EqualValues(t, info1.Size()+info2.Size(), info.DeletedBytes)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	_, err = os.Stat(p1)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(p2)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(p3)
	require.NoError(t, err)
}

func TestDeleteFlushedTraceFilesOlderThanArchivesBeforeRemoving(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTraceFile(t, dir, 1, 1, int64(1*time.Second), int64(1*time.Second), []byte("aaaa"))

	arc := &fakeArchiver{}
	done := make(chan DeletedFilesInfo, 1)
	DeleteFlushedTraceFilesOlderThan(2, dir, trace.FileReader{}, arc, func(info DeletedFilesInfo) { done <- info })

	select {
	case info := <-done:
		require.EqualValues(t, 1, info.DeletedFiles)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	require.Equal(t, []string{p1}, arc.archived)
	_, err := os.Stat(p1)
	require.True(t, os.IsNotExist(err))
}

func TestDeleteFlushedTraceFilesOlderThanKeepsFileWhenArchiveFails(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTraceFile(t, dir, 1, 1, int64(1*time.Second), int64(1*time.Second), []byte("aaaa"))

	arc := &fakeArchiver{failOn: map[string]bool{p1: true}}
	done := make(chan DeletedFilesInfo, 1)
	DeleteFlushedTraceFilesOlderThan(2, dir, trace.FileReader{}, arc, func(info DeletedFilesInfo) { done <- info })

	select {
	case info := <-done:
		require.Zero(t, info.DeletedFiles)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	_, err := os.Stat(p1)
	require.NoError(t, err, "file should survive a failed archive upload")
}
