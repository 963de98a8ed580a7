package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkdb/snapctl/internal/subset"
)

const sampleDump = `CREATE TABLE public.users (id int, name text);
CREATE TABLE public.orders (id int, user_id int);
ALTER TABLE public.orders ADD CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES public.users (id);
INSERT INTO public.users (id, name) VALUES (1, 'ada');
INSERT INTO public.users (id, name) VALUES (2, 'alan');
INSERT INTO public.orders (id, user_id) VALUES (10, 1);
INSERT INTO public.orders (id, user_id) VALUES (11, 2);
`

func writeSampleDump(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0o644))
	return path
}

func TestFileWithoutStrategyReplaysWholeFile(t *testing.T) {
	path := writeSampleDump(t)
	f := NewFile("postgresql", path, nil, "")
	require.NoError(t, f.Init())

	r, err := f.Reader()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, sampleDump, string(data))
}

func TestFileInitErrorsOnMissingPath(t *testing.T) {
	f := NewFile("postgresql", "/does/not/exist.sql", nil, "")
	assert.Error(t, f.Init())
}

func TestFileWithStrategyNarrowsToSubsetAndKeepsSchema(t *testing.T) {
	path := writeSampleDump(t)
	strategy := &subset.Strategy{Database: "public", Table: "orders", Percent: 100}
	f := NewFile("postgresql", path, strategy, t.TempDir())
	require.NoError(t, f.Init())

	r, err := f.Reader()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "CREATE TABLE public.users")
	assert.Contains(t, out, "CREATE TABLE public.orders")
	assert.Contains(t, out, "INSERT INTO public.users (id, name) VALUES (1, 'ada');")
	assert.Contains(t, out, "INSERT INTO public.orders (id, user_id) VALUES (10, 1);")
}

func TestFileRejectsUnsupportedKindWhenSubsetting(t *testing.T) {
	path := writeSampleDump(t)
	strategy := &subset.Strategy{Database: "public", Table: "users", Percent: 100}
	f := NewFile("redis", path, strategy, t.TempDir())
	require.NoError(t, f.Init())

	_, err := f.Reader()
	assert.Error(t, err)
}
