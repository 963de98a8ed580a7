// Package mongoarchive decodes and re-encodes mongodump-style archives.
//
// A mongodump archive is a binary stream shaped like this:
//
//	+-----------------------+
//	|      magic bytes      |
//	+-----------------------+
//	|      header bson      |
//	+-----------------------+
//	|    metadata bson 0    |
//	+-----------------------+
//	|           ...         |
//	+-----------------------+
//	|    metadata bson n    |  - n is the number of collections
//	+-----------------------+
//	|    separator bytes    |
//	+-----------------------+
//	|======= block 0 =======|  - one block per collection
//	|   namespace bson      |  - header: EOF=false
//	|   document, document  |
//	|    separator bytes    |
//	+-----------------------+
//	|           ...         |
//	+-----------------------+
//	|======= block n =======|
//	|   namespace bson      |  - footer: EOF=true, carries the CRC
//	|    separator bytes    |
//	+-----------------------+
//
// reference: https://github.com/mongodb/mongo-tools-common/blob/v4.2/archive/archive.go
package mongoarchive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc64"
	"io"

	"github.com/brinkdb/snapctl/internal/errs"
	"go.mongodb.org/mongo-driver/bson"
)

var magicBytes = [4]byte{0x6d, 0xe2, 0x99, 0x81}
var separatorBytes = [4]byte{0xff, 0xff, 0xff, 0xff}

var crcTable = crc64.MakeTable(crc64.ECMA)

// Header is the archive's single leading document.
type Header struct {
	ConcurrentCollections int32  `bson:"concurrent_collections"`
	Version               string `bson:"version"`
	ServerVersion         string `bson:"server_version"`
	ToolVersion           string `bson:"tool_version"`
}

// Metadata describes one collection that will appear later in the archive.
type Metadata struct {
	DB         string `bson:"db"`
	Collection string `bson:"collection"`
	Metadata   string `bson:"metadata"`
	Size       int32  `bson:"size"`
	Type       string `bson:"type"`
}

// Namespace is a block header (EOF false) or footer (EOF true, carrying the
// block's CRC-64-ECMA checksum).
type Namespace struct {
	DB         string `bson:"db"`
	Collection string `bson:"collection"`
	EOF        bool   `bson:"EOF"`
	CRC        int64  `bson:"CRC"`
}

func (n Namespace) prefix() string { return n.DB + "." + n.Collection }

// Collections maps "db.collection" to its ordered documents.
type Collections map[string][]bson.D

// Archive is an in-memory, mutable view of a decoded mongodump stream.
type Archive struct {
	header        Header
	metadataDocs  []Metadata
	namespaceDocs []Namespace
	collections   Collections
}

// Read decodes an archive from r. It fails fast on a bad magic number but is
// otherwise permissive: malformed BSON within a document is reported with
// errs.Archive, I/O failures with errs.IO.
func Read(r io.Reader) (*Archive, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errs.WrapIO("reading archive magic bytes", err)
	}
	if magic != magicBytes {
		return nil, errs.NewArchive("stream does not appear to be a mongodump archive")
	}

	headerDoc, sep, eof, err := nextFrame(r)
	if err != nil {
		return nil, errs.WrapIO("reading archive header", err)
	}
	if sep || eof {
		return nil, errs.NewArchive("archive is missing its header document")
	}
	var header Header
	if err := bson.Unmarshal(headerDoc, &header); err != nil {
		return nil, errs.NewArchive("decoding archive header: " + err.Error())
	}

	var metadataDocs []Metadata
	for {
		doc, sep, eof, err := nextFrame(r)
		if err != nil {
			return nil, errs.WrapIO("reading metadata section", err)
		}
		if sep || eof {
			break
		}
		var md Metadata
		if err := bson.Unmarshal(doc, &md); err != nil {
			return nil, errs.NewArchive("decoding metadata document: " + err.Error())
		}
		metadataDocs = append(metadataDocs, md)
	}

	numBlocks := len(metadataDocs)
	var namespaceDocs []Namespace
	collections := Collections{}

	if numBlocks > 0 {
		eofSeen := 0
		for {
			nsDoc, sep, eof, err := nextFrame(r)
			if err != nil {
				return nil, errs.WrapIO("reading block header", err)
			}
			if sep || eof {
				return nil, errs.NewArchive("archive ended in the middle of a block")
			}
			var ns Namespace
			if err := bson.Unmarshal(nsDoc, &ns); err != nil {
				return nil, errs.NewArchive("decoding namespace document: " + err.Error())
			}
			namespaceDocs = append(namespaceDocs, ns)

			var docs []bson.D
			for {
				doc, sep, eof, err := nextFrame(r)
				if err != nil {
					return nil, errs.WrapIO("reading collection document", err)
				}
				if sep || eof {
					break
				}
				var d bson.D
				if err := bson.Unmarshal(doc, &d); err != nil {
					return nil, errs.NewArchive("decoding collection document: " + err.Error())
				}
				docs = append(docs, d)
			}

			if !ns.EOF {
				collections[ns.prefix()] = docs
			}
			if ns.EOF {
				eofSeen++
			}
			if eofSeen == numBlocks {
				break
			}
		}
	}

	return &Archive{
		header:        header,
		metadataDocs:  metadataDocs,
		namespaceDocs: namespaceDocs,
		collections:   collections,
	}, nil
}

// AlterDocuments gives fn direct access to the archive's decoded documents,
// keyed by "db.collection". Changes to the document slices of keys already
// in the map are reflected by the next call to Write. Write follows the
// archive's namespace documents, so a key added to the map is not written,
// and a removed key's block is written without documents or footer.
func (a *Archive) AlterDocuments(fn func(Collections)) {
	fn(a.collections)
}

// Header returns the archive's header document.
func (a *Archive) Header() Header { return a.header }

// Collections returns the archive's decoded documents, keyed by
// "db.collection". The returned map is shared with the archive; use
// AlterDocuments to mutate it safely.
func (a *Archive) Collections() Collections { return a.collections }

// Write re-encodes the archive, recomputing the CRC-64-ECMA checksum of
// every collection block from its current documents.
func (a *Archive) Write(w io.Writer) error {
	var buf bytes.Buffer
	buf.Write(magicBytes[:])

	headerBytes, err := bson.Marshal(a.header)
	if err != nil {
		return errs.NewArchive("encoding archive header: " + err.Error())
	}
	buf.Write(headerBytes)

	for _, md := range a.metadataDocs {
		b, err := bson.Marshal(md)
		if err != nil {
			return errs.NewArchive("encoding metadata document: " + err.Error())
		}
		buf.Write(b)
	}
	buf.Write(separatorBytes[:])

	newChecksums := map[string]int64{}
	remaining := make(Collections, len(a.collections))
	for k, v := range a.collections {
		remaining[k] = v
	}

	for _, ns := range a.namespaceDocs {
		if !ns.EOF {
			nsBytes, err := bson.Marshal(ns)
			if err != nil {
				return errs.NewArchive("encoding block header: " + err.Error())
			}
			buf.Write(nsBytes)
		}

		prefix := ns.prefix()
		if docs, ok := remaining[prefix]; ok {
			var collectionBytes bytes.Buffer
			for _, doc := range docs {
				b, err := bson.Marshal(doc)
				if err != nil {
					return errs.NewArchive("encoding collection document: " + err.Error())
				}
				collectionBytes.Write(b)
			}
			checksum := int64(crc64.Checksum(collectionBytes.Bytes(), crcTable))
			newChecksums[prefix] = checksum
			buf.Write(collectionBytes.Bytes())
			delete(remaining, prefix)
		} else if checksum, ok := newChecksums[prefix]; ok {
			ns.CRC = checksum
			nsBytes, err := bson.Marshal(ns)
			if err != nil {
				return errs.NewArchive("encoding block footer: " + err.Error())
			}
			buf.Write(nsBytes)
		}
		buf.Write(separatorBytes[:])
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// nextFrame reads one length-prefixed BSON document, or reports that the
// next four bytes are the separator, or that the stream ended cleanly.
func nextFrame(r io.Reader) (doc []byte, sep bool, eof bool, err error) {
	var lenBuf [4]byte
	n, rerr := io.ReadFull(r, lenBuf[:])
	if rerr != nil {
		if n == 0 && errors.Is(rerr, io.EOF) {
			return nil, false, true, nil
		}
		return nil, false, false, rerr
	}
	if lenBuf == separatorBytes {
		return nil, true, false, nil
	}

	length := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if length < 5 {
		return nil, false, false, errs.NewArchive("invalid bson document length in archive")
	}

	buf := make([]byte, length)
	copy(buf, lenBuf[:])
	if _, rerr := io.ReadFull(r, buf[4:]); rerr != nil {
		return nil, false, false, rerr
	}
	return buf, false, false, nil
}
