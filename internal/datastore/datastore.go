// Package datastore implements the chunked, optionally compressed and
// encrypted dump storage layer: a manifest tracking every dump, backed by
// any blobstore.Store.
package datastore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/brinkdb/snapctl/internal/blobstore"
	"github.com/brinkdb/snapctl/internal/errs"
)

// Datastore coordinates chunking, compression, encryption, and the
// manifest on top of a blobstore.Store. It is not safe for concurrent
// writers: the manifest is read-modify-written on every part.
type Datastore struct {
	store         blobstore.Store
	dumpName      string
	compress      bool
	encryptionKey string
}

// New returns a Datastore writing into store under a fresh dump directory
// name derived from the current time.
func New(store blobstore.Store) *Datastore {
	return &Datastore{
		store:    store,
		dumpName: fmt.Sprintf("dump-%d", epochMillis()),
		compress: true,
	}
}

// SetDumpName overrides the directory name new parts are written under.
func (d *Datastore) SetDumpName(name string) { d.dumpName = name }

// SetCompression toggles zlib compression for subsequent writes.
func (d *Datastore) SetCompression(enabled bool) { d.compress = enabled }

// SetEncryptionKey enables AES-256-GCM encryption for subsequent writes,
// and is required before Read can decrypt a dump marked Encrypted.
func (d *Datastore) SetEncryptionKey(key string) { d.encryptionKey = key }

// RawIndexFile reads the manifest as untyped JSON, for migrations that
// need to see or rewrite fields the current Dump/IndexFile structs no
// longer carry (an older "backups" key, a missing "v" field). It returns
// an error if no manifest exists yet, which callers use to decide whether
// migrations need to run at all.
func (d *Datastore) RawIndexFile() (map[string]interface{}, error) {
	raw, err := d.store.Get(indexFileName)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errs.NewManifest("decoding raw manifest: " + err.Error())
	}
	return out, nil
}

// WriteRawIndexFile persists an untyped manifest document as-is.
func (d *Datastore) WriteRawIndexFile(raw map[string]interface{}) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return errs.NewManifest("encoding raw manifest: " + err.Error())
	}
	return d.store.Put(indexFileName, encoded)
}

// Write stores one part of the current dump, applying compression then
// encryption per the datastore's current settings, and updates the
// manifest's Dump entry for dumpName.
func (d *Datastore) Write(partIndex int, data []byte) error {
	encoded := data

	if d.compress {
		var err error
		encoded, err = compress(encoded)
		if err != nil {
			return err
		}
	}

	if d.encryptionKey != "" {
		var err error
		encoded, err = encrypt(encoded, d.encryptionKey)
		if err != nil {
			return err
		}
	}

	key := fmt.Sprintf("%s/%d.dump", d.dumpName, partIndex)
	if err := d.store.Put(key, encoded); err != nil {
		return err
	}

	idx, err := readManifest(d.store)
	if err != nil {
		idx = IndexFile{}
	}

	found := false
	for i := range idx.Dumps {
		if idx.Dumps[i].DirectoryName == d.dumpName {
			idx.Dumps[i].Size += int64(len(encoded))
			found = true
			break
		}
	}
	if !found {
		idx.Dumps = append(idx.Dumps, Dump{
			DirectoryName: d.dumpName,
			Size:          int64(len(encoded)),
			CreatedAt:     epochMillis(),
			Compressed:    d.compress,
			Encrypted:     d.encryptionKey != "",
		})
	}

	return writeManifest(d.store, idx)
}

// DumpSize resolves options against the manifest and returns the matched
// dump's recorded size, so a restore task can report progress against a
// known total before it starts streaming parts.
func (d *Datastore) DumpSize(options ReadOptions) (int64, error) {
	idx, err := readManifest(d.store)
	if err != nil {
		return 0, err
	}
	dump, err := idx.findDump(options)
	if err != nil {
		return 0, err
	}
	return dump.Size, nil
}

// Read resolves options against the manifest, then streams every part of
// the matched dump, in ascending part-index order (the order Write stored
// them), decrypting and decompressing as the manifest's flags dictate,
// calling cb once per part.
func (d *Datastore) Read(options ReadOptions, cb func([]byte) error) error {
	idx, err := readManifest(d.store)
	if err != nil {
		return err
	}

	dump, err := idx.findDump(options)
	if err != nil {
		return err
	}

	if dump.Encrypted && d.encryptionKey == "" {
		return errs.NewConfig("dump '" + dump.DirectoryName + "' is encrypted but no encryption key is configured")
	}

	keys, err := d.store.List(dump.DirectoryName + "/")
	if err != nil {
		return err
	}
	partIndex := func(key string) (int, error) {
		name := key[strings.LastIndex(key, "/")+1:]
		return strconv.Atoi(strings.TrimSuffix(name, ".dump"))
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, errI := partIndex(keys[i])
		pj, errJ := partIndex(keys[j])
		if errI != nil || errJ != nil {
			return keys[i] < keys[j]
		}
		return pi < pj
	})

	for _, key := range keys {
		data, err := d.store.Get(key)
		if err != nil {
			return err
		}

		if dump.Encrypted {
			data, err = decrypt(data, d.encryptionKey)
			if err != nil {
				return err
			}
		}
		if dump.Compressed {
			data, err = decompress(data)
			if err != nil {
				return err
			}
		}

		if err := cb(data); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByName removes every object under a dump's directory and its
// manifest entry.
func (d *Datastore) DeleteByName(name string) error {
	idx, err := readManifest(d.store)
	if err != nil {
		return err
	}

	if err := d.store.DeletePrefix(name + "/"); err != nil {
		return err
	}

	kept := idx.Dumps[:0]
	for _, dump := range idx.Dumps {
		if dump.DirectoryName != name {
			kept = append(kept, dump)
		}
	}
	idx.Dumps = kept

	return writeManifest(d.store, idx)
}

// DeleteOlderThan parses a duration string shaped like "14d" and deletes
// every dump created before now minus that many days.
func (d *Datastore) DeleteOlderThan(olderThan string) error {
	days, err := parseDaysSuffix(olderThan)
	if err != nil {
		return err
	}

	idx, err := readManifest(d.store)
	if err != nil {
		return err
	}

	threshold := time.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()

	for _, dump := range idx.Dumps {
		if dump.CreatedAt < threshold {
			if err := d.DeleteByName(dump.DirectoryName); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteKeepLast keeps the keepLast most recently created dumps and
// deletes the rest.
func (d *Datastore) DeleteKeepLast(keepLast int) error {
	idx, err := readManifest(d.store)
	if err != nil {
		return err
	}

	sorted := append([]Dump(nil), idx.Dumps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt > sorted[j].CreatedAt })

	if keepLast >= len(sorted) {
		return nil
	}

	for _, dump := range sorted[keepLast:] {
		if err := d.DeleteByName(dump.DirectoryName); err != nil {
			return err
		}
	}
	return nil
}

// Dumps lists every dump currently recorded in the manifest, most recently
// created first, for `dump list` to render.
func (d *Datastore) Dumps() ([]Dump, error) {
	idx, err := readManifest(d.store)
	if err != nil {
		return nil, err
	}
	sorted := append([]Dump(nil), idx.Dumps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt > sorted[j].CreatedAt })
	return sorted, nil
}

func parseDaysSuffix(s string) (int64, error) {
	if !strings.HasSuffix(s, "d") {
		return 0, errs.NewConfig("invalid --older-than format, use e.g. \"14d\"")
	}
	days, err := strconv.ParseInt(strings.TrimSuffix(s, "d"), 10, 64)
	if err != nil {
		return 0, errs.NewConfig("invalid --older-than format, use e.g. \"14d\": " + err.Error())
	}
	return days, nil
}
