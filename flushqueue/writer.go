package flushqueue

import (
	"errors"
	"fmt"
	"os"

	"github.com/justapithecus/tracecore/iox"
	"github.com/justapithecus/tracecore/trace"
)

// ErrFailedToOpenFile is returned when the trace file cannot be opened for
// writing.
var ErrFailedToOpenFile = errors.New("flushqueue: failed to open file")

// Writer serializes a header and its events to path. No atomicity
// guarantee: a crash mid-write can leave a partial file behind.
type Writer interface {
	Write(path string, header trace.Header, chunks [][]trace.Event) error
}

// FileWriter is the on-disk Writer used in production.
type FileWriter struct{}

var _ Writer = FileWriter{}

// Write truncates (or creates) path and writes the 56-byte header followed
// by every event across chunks, 24 bytes apiece, in order.
func (FileWriter) Write(path string, header trace.Header, chunks [][]trace.Event) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFailedToOpenFile, path, err)
	}
	defer iox.DiscardClose(f)

	headerBytes := trace.EncodeHeader(header)
	if _, err := f.Write(headerBytes[:]); err != nil {
		return fmt.Errorf("flushqueue: write header %s: %w", path, err)
	}
	for _, chunk := range chunks {
		for _, event := range chunk {
			eventBytes := trace.EncodeEvent(event)
			if _, err := f.Write(eventBytes[:]); err != nil {
				return fmt.Errorf("flushqueue: write event %s: %w", path, err)
			}
		}
	}
	return nil
}
