// Package manifestmigration upgrades a datastore's metadata.json in place
// as the tool's own version moves forward, the way a database migration
// upgrades a schema. It never touches a target database.
package manifestmigration

import (
	"strconv"
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
)

// Version is a major.minor.patch release number, ordered lexicographically
// by component.
type Version struct {
	Major, Minor, Patch uint8
}

// ParseVersion requires exactly three dot-separated components.
func ParseVersion(v string) (Version, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return Version{}, errs.NewManifest("migration: version number '" + v + "' is invalid, must have 'major.minor.patch' format")
	}

	major, err := parseUint8(parts[0])
	if err != nil {
		return Version{}, err
	}
	minor, err := parseUint8(parts[1])
	if err != nil {
		return Version{}, err
	}
	patch, err := parseUint8(parts[2])
	if err != nil {
		return Version{}, err
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

func parseUint8(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, errs.NewManifest("migration: " + err.Error())
	}
	return uint8(n), nil
}

// Less reports whether v precedes other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// AtLeast reports whether v is equal to or newer than other.
func (v Version) AtLeast(other Version) bool {
	return !v.Less(other)
}

// ManifestStore is the slice of a datastore a migration operates on: raw,
// untyped JSON, since a migration's whole job is handling fields the
// current typed IndexFile/Dump no longer carry.
type ManifestStore interface {
	RawIndexFile() (map[string]interface{}, error)
	WriteRawIndexFile(raw map[string]interface{}) error
}

// Migration is one upgrade step, gated on the tool version it first
// shipped with.
type Migration interface {
	MinimalVersion() Version
	Run(store ManifestStore) error
}

// Registered returns every migration known to this build, in the order
// they should run.
func Registered(currentVersion string) []Migration {
	return []Migration{
		updateVersionNumber{version: currentVersion},
		renameBackupsToDumps{},
	}
}

// Migrator runs every registered migration whose minimal version is at or
// below the tool's current version, against one datastore.
type Migrator struct {
	currentVersion Version
	store          ManifestStore
	migrations     []Migration
}

// NewMigrator builds a Migrator for store, running migrations up to and
// including currentVersion.
func NewMigrator(currentVersion string, store ManifestStore, migrations []Migration) (*Migrator, error) {
	v, err := ParseVersion(currentVersion)
	if err != nil {
		return nil, err
	}
	return &Migrator{currentVersion: v, store: store, migrations: migrations}, nil
}

// Migrate runs every due migration. A datastore with no manifest yet has
// nothing to migrate, so a missing metadata.json is treated as success
// rather than an error.
func (m *Migrator) Migrate() error {
	if _, err := m.store.RawIndexFile(); err != nil {
		return nil
	}

	for _, migration := range m.migrations {
		if m.currentVersion.AtLeast(migration.MinimalVersion()) {
			if err := migration.Run(m.store); err != nil {
				return err
			}
		}
	}
	return nil
}
