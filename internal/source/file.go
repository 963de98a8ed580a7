package source

import (
	"bytes"
	"io"
	"os"

	"github.com/brinkdb/snapctl/internal/errs"
	"github.com/brinkdb/snapctl/internal/subset"
)

// File reads a previously captured dump off disk. Unlike Command or Stdin
// it can be reopened, which is what lets it carry an optional subset
// strategy: the subset engine needs multiple passes over the same dump
// (one to collect table stats, one per FK edge it walks), something a
// live subprocess stream can't offer.
type File struct {
	kind     string
	path     string
	strategy *subset.Strategy
	dedupDir string
}

// NewFile wraps a dump file path. strategy is nil for a plain replay of
// the file; when set, Reader narrows the dump to the referential subset
// rooted at strategy's seed table before handing it onward.
func NewFile(kind, path string, strategy *subset.Strategy, dedupDir string) *File {
	return &File{kind: kind, path: path, strategy: strategy, dedupDir: dedupDir}
}

func (f *File) Init() error {
	if _, err := os.Stat(f.path); err != nil {
		return errs.WrapIO("opening dump file "+f.path, err)
	}
	return nil
}

func (f *File) Type() string { return f.kind }

func (f *File) Reader() (io.Reader, error) {
	if f.strategy == nil {
		return os.Open(f.path)
	}
	return f.subsetReader()
}

func (f *File) subsetReader() (io.Reader, error) {
	sourceKind, err := subsetSourceKind(f.kind)
	if err != nil {
		return nil, err
	}

	schema, err := os.Open(f.path)
	if err != nil {
		return nil, errs.WrapIO("opening dump file "+f.path, err)
	}
	defer schema.Close()

	engine, err := subset.NewEngine(schema, func() (io.ReadCloser, error) {
		return os.Open(f.path)
	}, f.dedupDir)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	schemaAgain, err := os.Open(f.path)
	if err != nil {
		return nil, errs.WrapIO("opening dump file "+f.path, err)
	}
	if err := writeSchemaStatements(schemaAgain, &out); err != nil {
		schemaAgain.Close()
		return nil, err
	}
	schemaAgain.Close()

	err = engine.Run(sourceKind, *f.strategy, func(row string) {
		out.WriteString(row)
		out.WriteString("\n")
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func subsetSourceKind(kind string) (subset.SourceKind, error) {
	switch kind {
	case "postgresql", "postgres":
		return subset.SourcePostgres, nil
	case "mysql":
		return subset.SourceMySQL, nil
	case "mongodb":
		return subset.SourceMongo, nil
	default:
		return 0, errs.NewConfig("subset: unsupported source kind '" + kind + "'")
	}
}
