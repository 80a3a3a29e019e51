// Package diag frames point-in-time runtime diagnostics (pool and flush
// queue occupancy, counters) as length-prefixed msgpack, for a sidecar or
// admin socket to read without touching the fixed trace file format itself.
// The framing mirrors the teacher's IPC layer: a 4-byte big-endian length
// prefix followed by a msgpack-encoded payload.
package diag

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/tracecore/metrics"
)

// MaxFrameSize bounds a single diagnostic frame, length prefix included.
const MaxFrameSize = 1 << 20

// LengthPrefixSize is the size, in bytes, of the frame's length prefix.
const LengthPrefixSize = 4

// Snapshot is one point-in-time view of runtime occupancy and counters.
type Snapshot struct {
	Metrics        metrics.Snapshot `msgpack:"metrics"`
	PoolSize       int              `msgpack:"pool_size"`
	PoolCapacity   int              `msgpack:"pool_capacity"`
	FlushQueueSize int              `msgpack:"flush_queue_size"`
}

// WriteFrame msgpack-encodes snap and writes it to w as a length-prefixed
// frame.
func WriteFrame(w io.Writer, snap Snapshot) error {
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("diag: marshal snapshot: %w", err)
	}
	if len(payload) > MaxFrameSize-LengthPrefixSize {
		return fmt.Errorf("diag: snapshot frame too large: %d bytes", len(payload))
	}

	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("diag: write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("diag: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed msgpack frame from r and decodes it
// into a Snapshot.
func ReadFrame(r *bufio.Reader) (Snapshot, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Snapshot{}, fmt.Errorf("diag: read length prefix: %w", err)
	}
	length := binary.BigEndian.Uint32(prefix[:])
	if length > MaxFrameSize-LengthPrefixSize {
		return Snapshot{}, fmt.Errorf("diag: frame too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Snapshot{}, fmt.Errorf("diag: read payload: %w", err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("diag: unmarshal snapshot: %w", err)
	}
	return snap, nil
}
