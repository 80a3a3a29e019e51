// Package runtimemanager binds the buffer-slice pool, per-goroutine event
// loggers, and the flush queue into the single entry point instrumented
// code calls: Initialize/Deinitialize, Enable/Disable, and LogEvent.
package runtimemanager

import "time"

// Config is the finalized configuration the runtime manager is constructed
// from. It is assembled upstream (TOML/env/flags are out of scope here) and
// handed in as a plain struct.
type Config struct {
	// TraceFilePath is the directory flushed trace files are written under.
	TraceFilePath string
	// SessionID is stamped into every header and file name to group traces
	// from one process run.
	SessionID uint64
	// ThreadEventBufferCapacity is each goroutine's logical ring capacity,
	// in events.
	ThreadEventBufferCapacity int
	// MaxReservedEventBufferSliceCapacity bounds the size of any one slice
	// carved from the reserved pool's arena.
	MaxReservedEventBufferSliceCapacity int
	// MaxDynamicEventBufferSliceCapacity bounds the size of any one slice
	// heap-allocated by the dynamic pool.
	MaxDynamicEventBufferSliceCapacity int
	// ReservedEventPoolCapacity is the total event capacity of the
	// reserved pool's arena.
	ReservedEventPoolCapacity int
	// DynamicEventPoolCapacity is the dynamic pool's event budget.
	DynamicEventPoolCapacity int
	// DynamicEventSliceBorrowCASAttempts bounds the dynamic pool's borrow
	// retry loop.
	DynamicEventSliceBorrowCASAttempts int
	// EventBufferRetentionDuration is the maximum age a queued buffer may
	// reach before the flush worker drops it unflushed, unless
	// FlushAllEvents is set or a barrier covers it.
	EventBufferRetentionDuration time.Duration
	// MaxFlushBufferToFileAttempts bounds the flush queue's write retry
	// loop per buffer.
	MaxFlushBufferToFileAttempts int
	// FlushAllEvents disables retention dropping and makes Deinitialize
	// flush rather than clear outstanding buffers.
	FlushAllEvents bool
}
