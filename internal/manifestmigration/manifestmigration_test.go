package manifestmigration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeManifestStore struct {
	raw      map[string]interface{}
	missing  bool
	writeErr error
}

func (f *fakeManifestStore) RawIndexFile() (map[string]interface{}, error) {
	if f.missing {
		return nil, errors.New("no manifest")
	}
	return f.raw, nil
}

func (f *fakeManifestStore) WriteRawIndexFile(raw map[string]interface{}) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.raw = raw
	return nil
}

type failingMigration struct{ minimal Version }

func (m failingMigration) MinimalVersion() Version { return m.minimal }
func (m failingMigration) Run(ManifestStore) error { return errors.New("should not run") }

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("0.7.2")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 0, Minor: 7, Patch: 2}, v)

	_, err = ParseVersion("0.7")
	assert.Error(t, err)
}

func TestVersionOrdering(t *testing.T) {
	older, err := ParseVersion("0.7.2")
	require.NoError(t, err)
	newer, err := ParseVersion("0.7.3")
	require.NoError(t, err)
	assert.True(t, older.Less(newer))
	assert.False(t, newer.Less(older))

	a, _ := ParseVersion("0.7.0")
	b, _ := ParseVersion("1.0.0")
	assert.True(t, a.Less(b))
}

func TestMigratorSkipsWhenManifestMissing(t *testing.T) {
	store := &fakeManifestStore{missing: true}
	m, err := NewMigrator("0.7.3", store, []Migration{failingMigration{minimal: Version{Major: 0, Minor: 7, Patch: 2}}})
	require.NoError(t, err)
	assert.NoError(t, m.Migrate())
}

func TestMigratorRunsDueMigrations(t *testing.T) {
	store := &fakeManifestStore{raw: map[string]interface{}{"backups": []interface{}{}}}
	m, err := NewMigrator("0.7.3", store, []Migration{failingMigration{minimal: Version{Major: 0, Minor: 7, Patch: 2}}})
	require.NoError(t, err)
	assert.Error(t, m.Migrate())
}

func TestMigratorSkipsFutureMigrations(t *testing.T) {
	store := &fakeManifestStore{raw: map[string]interface{}{"backups": []interface{}{}}}
	m, err := NewMigrator("0.7.0", store, []Migration{failingMigration{minimal: Version{Major: 0, Minor: 7, Patch: 2}}})
	require.NoError(t, err)
	assert.NoError(t, m.Migrate())
}

func TestUpdateVersionNumberStampsVersion(t *testing.T) {
	store := &fakeManifestStore{raw: map[string]interface{}{"backups": []interface{}{}}}
	migration := updateVersionNumber{version: "0.2.0"}
	require.NoError(t, migration.Run(store))
	assert.Equal(t, "0.2.0", store.raw["v"])
}

func TestRenameBackupsToDumpsMovesArray(t *testing.T) {
	entry := map[string]interface{}{
		"directory_name": "dump-1653170039392",
		"size":           float64(62279),
		"created_at":     float64(1234),
		"compressed":     true,
		"encrypted":      false,
	}
	store := &fakeManifestStore{raw: map[string]interface{}{"backups": []interface{}{entry}}}

	migration := renameBackupsToDumps{}
	require.NoError(t, migration.Run(store))

	_, hasBackups := store.raw["backups"]
	assert.False(t, hasBackups)

	dumps, ok := store.raw["dumps"].([]interface{})
	require.True(t, ok)
	require.Len(t, dumps, 1)
	assert.Equal(t, entry, dumps[0])
}

func TestRenameBackupsToDumpsNoOpWithoutBackupsKey(t *testing.T) {
	store := &fakeManifestStore{raw: map[string]interface{}{"dumps": []interface{}{}}}
	migration := renameBackupsToDumps{}
	require.NoError(t, migration.Run(store))
	assert.Contains(t, store.raw, "dumps")
}

func TestRegisteredMigrationsOrder(t *testing.T) {
	migrations := Registered("0.9.0")
	require.Len(t, migrations, 2)
	_, isUpdate := migrations[0].(updateVersionNumber)
	assert.True(t, isUpdate)
	_, isRename := migrations[1].(renameBackupsToDumps)
	assert.True(t, isRename)
}
