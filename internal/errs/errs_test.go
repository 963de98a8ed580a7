package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Tokenizer: "tokenizer",
		Archive:   "archive",
		BlobStore: "blobstore",
		Manifest:  "manifest",
		Config:    "config",
		IO:        "io",
		Kind(99):  "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestNewTokenizerIncludesPosition(t *testing.T) {
	err := NewTokenizer("unterminated string", 3, 12)
	assert.Equal(t, "tokenizer: unterminated string (line 3, col 12)", err.Error())
}

func TestNewArchiveMessage(t *testing.T) {
	err := NewArchive("bad magic number")
	assert.Equal(t, "archive: bad magic number", err.Error())
}

func TestNewBlobStoreWithAndWithoutBucketKey(t *testing.T) {
	withLoc := NewBlobStore("not found", "my-bucket", "dump/0.dump")
	assert.Equal(t, `blobstore: not found (bucket="my-bucket" key="dump/0.dump")`, withLoc.Error())

	withoutLoc := NewBlobStore("connection refused", "", "")
	assert.Equal(t, "blobstore: connection refused", withoutLoc.Error())
}

func TestNewManifestMessage(t *testing.T) {
	err := NewManifest("no dumps available")
	assert.Equal(t, "manifest: no dumps available", err.Error())
}

func TestNewConfigMessage(t *testing.T) {
	err := NewConfig("missing connection_uri")
	assert.Equal(t, "config: missing connection_uri", err.Error())
}

func TestWrapIOUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapIO("writing part", cause)
	assert.Equal(t, "io: writing part: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorAsRecoversKind(t *testing.T) {
	err := NewManifest("corrupt manifest")

	var target *Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, Manifest, target.Kind)
}
