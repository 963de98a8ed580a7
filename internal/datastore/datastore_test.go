package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkdb/snapctl/internal/blobstore"
)

func newTestStore(t *testing.T) blobstore.Store {
	t.Helper()
	store, err := blobstore.NewLocalDisk(t.TempDir())
	require.NoError(t, err)
	return store
}

func readAllParts(t *testing.T, ds *Datastore, options ReadOptions) [][]byte {
	t.Helper()
	var parts [][]byte
	err := ds.Read(options, func(data []byte) error {
		parts = append(parts, append([]byte(nil), data...))
		return nil
	})
	require.NoError(t, err)
	return parts
}

func TestWriteReadRoundTripPlain(t *testing.T) {
	store := newTestStore(t)
	ds := New(store)
	ds.SetDumpName("dump-plain")
	ds.SetCompression(false)

	require.NoError(t, ds.Write(0, []byte("part one")))
	require.NoError(t, ds.Write(1, []byte("part two")))

	parts := readAllParts(t, ds, ByName("dump-plain"))
	require.Len(t, parts, 2)
	assert.Equal(t, "part one", string(parts[0]))
	assert.Equal(t, "part two", string(parts[1]))
}

func TestWriteReadRoundTripCompressed(t *testing.T) {
	store := newTestStore(t)
	ds := New(store)
	ds.SetDumpName("dump-compressed")
	ds.SetCompression(true)

	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly, repeatedly")
	require.NoError(t, ds.Write(0, payload))

	parts := readAllParts(t, ds, ByName("dump-compressed"))
	require.Len(t, parts, 1)
	assert.Equal(t, payload, parts[0])
}

func TestWriteReadRoundTripEncrypted(t *testing.T) {
	store := newTestStore(t)
	ds := New(store)
	ds.SetDumpName("dump-encrypted")
	ds.SetCompression(true)
	ds.SetEncryptionKey("correct horse battery staple")

	payload := []byte("sensitive row data")
	require.NoError(t, ds.Write(0, payload))

	parts := readAllParts(t, ds, ByName("dump-encrypted"))
	require.Len(t, parts, 1)
	assert.Equal(t, payload, parts[0])
}

func TestReadEncryptedWithoutKeyFails(t *testing.T) {
	store := newTestStore(t)
	writer := New(store)
	writer.SetDumpName("dump-locked")
	writer.SetEncryptionKey("some-key")
	require.NoError(t, writer.Write(0, []byte("secret")))

	reader := New(store)
	err := reader.Read(ByName("dump-locked"), func([]byte) error { return nil })
	require.Error(t, err)
}

func TestLatestDumpPicksMostRecentlyCreated(t *testing.T) {
	store := newTestStore(t)

	first := New(store)
	first.SetDumpName("dump-a")
	require.NoError(t, first.Write(0, []byte("a")))

	idx, err := readManifest(store)
	require.NoError(t, err)
	idx.Dumps[0].CreatedAt = 1000
	require.NoError(t, writeManifest(store, idx))

	second := New(store)
	second.SetDumpName("dump-b")
	require.NoError(t, second.Write(0, []byte("b")))

	idx, err = readManifest(store)
	require.NoError(t, err)
	for i := range idx.Dumps {
		if idx.Dumps[i].DirectoryName == "dump-b" {
			idx.Dumps[i].CreatedAt = 2000
		}
	}
	require.NoError(t, writeManifest(store, idx))

	reader := New(store)
	parts := readAllParts(t, reader, LatestDump())
	require.Len(t, parts, 1)
	assert.Equal(t, "b", string(parts[0]))
}

func TestDeleteByNameRemovesDumpAndManifestEntry(t *testing.T) {
	store := newTestStore(t)
	ds := New(store)
	ds.SetDumpName("dump-to-delete")
	require.NoError(t, ds.Write(0, []byte("data")))

	require.NoError(t, ds.DeleteByName("dump-to-delete"))

	idx, err := readManifest(store)
	require.NoError(t, err)
	assert.Empty(t, idx.Dumps)

	_, err = store.Get("dump-to-delete/0.dump")
	assert.Error(t, err)
}

func TestDeleteOlderThanRemovesStaleDumps(t *testing.T) {
	store := newTestStore(t)
	ds := New(store)
	ds.SetDumpName("dump-old")
	require.NoError(t, ds.Write(0, []byte("old")))

	idx, err := readManifest(store)
	require.NoError(t, err)
	idx.Dumps[0].CreatedAt = 1
	require.NoError(t, writeManifest(store, idx))

	fresh := New(store)
	fresh.SetDumpName("dump-fresh")
	require.NoError(t, fresh.Write(0, []byte("fresh")))

	require.NoError(t, ds.DeleteOlderThan("1d"))

	idx, err = readManifest(store)
	require.NoError(t, err)
	require.Len(t, idx.Dumps, 1)
	assert.Equal(t, "dump-fresh", idx.Dumps[0].DirectoryName)
}

func TestDeleteOlderThanRejectsBadFormat(t *testing.T) {
	store := newTestStore(t)
	ds := New(store)
	err := ds.DeleteOlderThan("two weeks")
	assert.Error(t, err)
}

func TestDeleteKeepLastKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)

	names := []string{"dump-1", "dump-2", "dump-3"}
	for i, name := range names {
		d := New(store)
		d.SetDumpName(name)
		require.NoError(t, d.Write(0, []byte(name)))

		idx, err := readManifest(store)
		require.NoError(t, err)
		for j := range idx.Dumps {
			if idx.Dumps[j].DirectoryName == name {
				idx.Dumps[j].CreatedAt = int64(i + 1)
			}
		}
		require.NoError(t, writeManifest(store, idx))
	}

	ds := New(store)
	require.NoError(t, ds.DeleteKeepLast(2))

	idx, err := readManifest(store)
	require.NoError(t, err)
	require.Len(t, idx.Dumps, 2)

	var kept []string
	for _, d := range idx.Dumps {
		kept = append(kept, d.DirectoryName)
	}
	assert.ElementsMatch(t, []string{"dump-2", "dump-3"}, kept)
}

func TestDumpsListsMostRecentlyCreatedFirst(t *testing.T) {
	store := newTestStore(t)

	names := []string{"dump-a", "dump-b", "dump-c"}
	for i, name := range names {
		d := New(store)
		d.SetDumpName(name)
		require.NoError(t, d.Write(0, []byte(name)))

		idx, err := readManifest(store)
		require.NoError(t, err)
		for j := range idx.Dumps {
			if idx.Dumps[j].DirectoryName == name {
				idx.Dumps[j].CreatedAt = int64(i + 1)
			}
		}
		require.NoError(t, writeManifest(store, idx))
	}

	ds := New(store)
	dumps, err := ds.Dumps()
	require.NoError(t, err)
	require.Len(t, dumps, 3)
	assert.Equal(t, "dump-c", dumps[0].DirectoryName)
	assert.Equal(t, "dump-b", dumps[1].DirectoryName)
	assert.Equal(t, "dump-a", dumps[2].DirectoryName)
}
