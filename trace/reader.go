package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/justapithecus/tracecore/iox"
)

// fileNamePattern matches the file-name convention written by the flush
// queue: <session_id_hex16>-<thread_id_hex16>-<steady_clock_ns_hex16>.trace.
var fileNamePattern = regexp.MustCompile(`^[0-9a-f]{16}-[0-9a-f]{16}-[0-9a-f]{16}\.trace$`)

// Reader reads flushed trace files from disk. Implemented by FileReader in
// production and faked in tests.
type Reader interface {
	// MatchesTraceFileConvention reports whether path's base name follows
	// the trace file naming convention. It does not open the file.
	MatchesTraceFileConvention(path string) bool
	// ReadHeader reads and decodes only the fixed 56-byte header at the
	// start of path.
	ReadHeader(path string) (Header, error)
}

// FileReader is the on-disk Reader used by the offline helpers.
type FileReader struct{}

var _ Reader = FileReader{}

// MatchesTraceFileConvention reports whether path's base name matches
// <session_id_hex16>-<thread_id_hex16>-<steady_clock_ns_hex16>.trace.
func (FileReader) MatchesTraceFileConvention(path string) bool {
	return fileNamePattern.MatchString(filepath.Base(path))
}

// ReadHeader opens path and decodes its leading HeaderSize bytes.
func (FileReader) ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer iox.DiscardClose(f)

	var buf [HeaderSize]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return Header{}, fmt.Errorf("trace: read header %s: %w", path, err)
	}
	return DecodeHeader(buf), nil
}
