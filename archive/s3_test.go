package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), S3Config{})
	require.Error(t, err)
}

func TestS3ArchiverKeyJoinsPrefix(t *testing.T) {
	a := &S3Archiver{bucket: "traces", prefix: "sessions/1"}
	require.Equal(t, "sessions/1/abc.trace", a.key("abc.trace"))

	a.prefix = ""
	require.Equal(t, "abc.trace", a.key("abc.trace"))
}

func TestS3ArchiverArchiveMissingFileErrors(t *testing.T) {
	a := &S3Archiver{bucket: "traces"}
	err := a.Archive(context.Background(), "/nonexistent/path/does-not-exist.trace")
	require.Error(t, err)
}
