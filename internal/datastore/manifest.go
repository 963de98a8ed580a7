package datastore

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/brinkdb/snapctl/internal/blobstore"
	"github.com/brinkdb/snapctl/internal/errs"
)

// indexFileName is the manifest's well-known key within a datastore.
const indexFileName = "metadata.json"

// Dump is one manifest entry describing a complete snapshot.
type Dump struct {
	DirectoryName string `json:"directory_name"`
	Size          int64  `json:"size"`
	CreatedAt     int64  `json:"created_at"` // unix millis
	Compressed    bool   `json:"compressed"`
	Encrypted     bool   `json:"encrypted"`
}

// IndexFile is the datastore's manifest: the schema version it was written
// with, and every dump currently stored.
type IndexFile struct {
	V     string `json:"v"`
	Dumps []Dump `json:"dumps"`
}

// ReadOptions selects which dump Read resolves.
type ReadOptions struct {
	Latest bool
	Name   string
}

// ByName builds a ReadOptions targeting a specific dump by directory name.
func ByName(name string) ReadOptions { return ReadOptions{Name: name} }

// LatestDump builds a ReadOptions targeting the most recently created dump.
func LatestDump() ReadOptions { return ReadOptions{Latest: true} }

func readManifest(store blobstore.Store) (IndexFile, error) {
	raw, err := store.Get(indexFileName)
	if err != nil {
		return IndexFile{}, err
	}
	var idx IndexFile
	if err := json.Unmarshal(raw, &idx); err != nil {
		return IndexFile{}, errs.NewManifest("decoding manifest: " + err.Error())
	}
	return idx, nil
}

func writeManifest(store blobstore.Store, idx IndexFile) error {
	raw, err := json.Marshal(idx)
	if err != nil {
		return errs.NewManifest("encoding manifest: " + err.Error())
	}
	return store.Put(indexFileName, raw)
}

// findDump resolves options against the manifest's dumps.
func (idx IndexFile) findDump(options ReadOptions) (Dump, error) {
	if options.Latest {
		if len(idx.Dumps) == 0 {
			return Dump{}, errs.NewManifest("no dumps available")
		}
		sorted := append([]Dump(nil), idx.Dumps...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt < sorted[j].CreatedAt })
		return sorted[len(sorted)-1], nil
	}

	for _, d := range idx.Dumps {
		if d.DirectoryName == options.Name {
			return d, nil
		}
	}
	return Dump{}, errs.NewManifest("can't find dump with name '" + options.Name + "'")
}

func epochMillis() int64 {
	return time.Now().UnixMilli()
}
