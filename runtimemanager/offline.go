package runtimemanager

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/justapithecus/tracecore/archive"
	"github.com/justapithecus/tracecore/trace"
)

// DeletedFilesInfo tallies the outcome of DeleteFlushedTraceFilesOlderThan.
type DeletedFilesInfo struct {
	DeletedFiles int32
	DeletedBytes int64
}

// FlushedTraceFiles spawns a goroutine that lists dir's entries matching the
// trace file naming convention and hands the resulting paths to callback.
// Directory iteration errors result in callback firing with a nil slice;
// there is no separate error channel.
func FlushedTraceFiles(dir string, reader trace.Reader, callback func([]string)) {
	go func() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if callback != nil {
				callback(nil)
			}
			return
		}
		var paths []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if reader.MatchesTraceFileConvention(path) {
				paths = append(paths, path)
			}
		}
		if callback != nil {
			callback(paths)
		}
	}()
}

// DeleteFlushedTraceFilesOlderThan spawns a goroutine that removes every
// trace file under dir whose header system-clock timestamp is at or before
// cutoff (Unix seconds), tallying the result for callback. Files that fail
// to parse or whose header can't be read are skipped, not counted as
// errors.
//
// If archiver is non-nil, each file is uploaded before it is removed; a
// file whose archive upload fails is left in place and not counted as
// deleted, matching the GC helper's default of preferring to keep data over
// losing it. archiver is purely additive: nil reproduces the behavior
// spoor's own GC helper has (no archival step).
func DeleteFlushedTraceFilesOlderThan(cutoffSystemTimestampSeconds int64, dir string, reader trace.Reader, archiver archive.Archiver, callback func(DeletedFilesInfo)) {
	go func() {
		cutoffNanos := time.Unix(cutoffSystemTimestampSeconds, 0).UnixNano()
		var info DeletedFilesInfo

		entries, err := os.ReadDir(dir)
		if err != nil {
			if callback != nil {
				callback(info)
			}
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if !reader.MatchesTraceFileConvention(path) {
				continue
			}
			header, err := reader.ReadHeader(path)
			if err != nil {
				continue
			}
			if header.SystemClockTimestampNanos > cutoffNanos {
				continue
			}
			if archiver != nil {
				if err := archiver.Archive(context.Background(), path); err != nil {
					continue
				}
			}
			stat, err := os.Stat(path)
			if err != nil {
				continue
			}
			if err := os.Remove(path); err != nil {
				continue
			}
			info.DeletedFiles++
			info.DeletedBytes += stat.Size()
		}
		if callback != nil {
			callback(info)
		}
	}()
}
