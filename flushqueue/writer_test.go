package flushqueue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/tracecore/trace"
)

func TestFileWriterWritesHeaderAndEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.trace")

	header := trace.Header{Version: trace.Version, SessionID: 7, EventCount: 2}
	chunks := [][]trace.Event{
		{
			{Payload1: 1, Type: trace.FunctionEntry},
			{Payload1: 2, Type: trace.FunctionExit},
		},
	}

	require.NoError(t, FileWriter{}.Write(path, header, chunks))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, trace.HeaderSize+2*trace.EventSize)

	var headerBytes [trace.HeaderSize]byte
	copy(headerBytes[:], data[:trace.HeaderSize])
	require.Equal(t, header, trace.DecodeHeader(headerBytes))
}
