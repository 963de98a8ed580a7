// Package errs defines the single discriminated error type surfaced across
// the dump/restore pipeline. Every component returns one of these kinds
// rather than an ad-hoc error string, so callers can branch on Kind with
// errors.As without parsing messages.
package errs

import "fmt"

// Kind discriminates the error categories the core and its ambient stack
// can produce.
type Kind int

const (
	Tokenizer Kind = iota
	Archive
	BlobStore
	Manifest
	Config
	IO
)

func (k Kind) String() string {
	switch k {
	case Tokenizer:
		return "tokenizer"
	case Archive:
		return "archive"
	case BlobStore:
		return "blobstore"
	case Manifest:
		return "manifest"
	case Config:
		return "config"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the concrete error type for every kind above. Position and
// Bucket/Key are only populated where relevant (Tokenizer and BlobStore
// respectively); zero values are harmless elsewhere.
type Error struct {
	Kind    Kind
	Message string
	Line    int
	Col     int
	Bucket  string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case Tokenizer:
		return fmt.Sprintf("tokenizer: %s (line %d, col %d)", e.Message, e.Line, e.Col)
	case BlobStore:
		if e.Bucket != "" || e.Key != "" {
			return fmt.Sprintf("blobstore: %s (bucket=%q key=%q)", e.Message, e.Bucket, e.Key)
		}
		return fmt.Sprintf("blobstore: %s", e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTokenizer builds a TokenizerError carrying the offending position.
func NewTokenizer(message string, line, col int) error {
	return &Error{Kind: Tokenizer, Message: message, Line: line, Col: col}
}

// NewArchive builds an ArchiveError.
func NewArchive(message string) error {
	return &Error{Kind: Archive, Message: message}
}

// NewBlobStore builds a BlobStoreError carrying bucket/key for diagnostics.
func NewBlobStore(message, bucket, key string) error {
	return &Error{Kind: BlobStore, Message: message, Bucket: bucket, Key: key}
}

// NewManifest builds a ManifestError.
func NewManifest(message string) error {
	return &Error{Kind: Manifest, Message: message}
}

// NewConfig builds a ConfigError.
func NewConfig(message string) error {
	return &Error{Kind: Config, Message: message}
}

// WrapIO wraps an underlying error as an IOError, preserving it for
// errors.Unwrap/errors.Is.
func WrapIO(message string, err error) error {
	return &Error{Kind: IO, Message: message, Err: err}
}
