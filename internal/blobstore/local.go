package blobstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
)

// LocalDisk stores objects as files under a root directory, mirroring the
// key's "/" segments into a directory tree.
type LocalDisk struct {
	root string
}

// NewLocalDisk returns a Store rooted at dir, creating it if it doesn't
// already exist.
func NewLocalDisk(dir string) (*LocalDisk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewBlobStore("creating local disk root: "+err.Error(), "", dir)
	}
	return &LocalDisk{root: dir}, nil
}

func (l *LocalDisk) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *LocalDisk) Put(key string, data []byte) error {
	path := l.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.NewBlobStore("creating directory for "+key+": "+err.Error(), l.root, key)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.NewBlobStore("writing "+key+": "+err.Error(), l.root, key)
	}
	return nil
}

func (l *LocalDisk) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		return nil, errs.NewBlobStore("reading "+key+": "+err.Error(), l.root, key)
	}
	return data, nil
}

func (l *LocalDisk) List(prefix string) ([]string, error) {
	var keys []string

	err := filepath.Walk(l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.NewBlobStore("listing "+prefix+": "+err.Error(), l.root, prefix)
	}
	return keys, nil
}

func (l *LocalDisk) Delete(key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return errs.NewBlobStore("deleting "+key+": "+err.Error(), l.root, key)
	}
	return nil
}

func (l *LocalDisk) DeletePrefix(prefix string) error {
	if err := os.RemoveAll(l.path(prefix)); err != nil {
		return errs.NewBlobStore("deleting prefix "+prefix+": "+err.Error(), l.root, prefix)
	}
	return nil
}
