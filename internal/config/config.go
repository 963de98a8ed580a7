// Package config loads the YAML configuration file that drives
// cmd/snapctl: which source to dump from, which destination to restore
// into, which datastore backend to use, and how to transform rows along
// the way.
package config

import (
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brinkdb/snapctl/internal/errs"
)

// Config is the top-level document. Every string field that can hold a
// secret accepts a "$NAME" form, resolved against the environment at
// load time.
type Config struct {
	EncryptionKey string         `yaml:"encryption_key"`
	Source        SourceConfig   `yaml:"source"`
	Destination   DestinationCfg `yaml:"destination"`
	Datastore     DatastoreCfg   `yaml:"datastore"`
}

// SourceConfig describes where dump data comes from and how it should be
// rewritten on the way out.
type SourceConfig struct {
	ConnectionURI  string                `yaml:"connection_uri"`
	Compression    bool                  `yaml:"compression"`
	ChunkSize      int                   `yaml:"chunk_size"`
	Skip           []string              `yaml:"skip"`
	Transformers   []TransformerConfig   `yaml:"transformers"`
	DatabaseSubset *DatabaseSubsetConfig `yaml:"database_subset"`
}

// TransformerConfig binds a set of column transformers to one table.
type TransformerConfig struct {
	Database string         `yaml:"database"`
	Table    string         `yaml:"table"`
	Columns  []ColumnConfig `yaml:"columns"`
}

// ColumnConfig names one column and the transformer id (optionally
// carrying its own options) to apply to it.
type ColumnConfig struct {
	Name        string `yaml:"name"`
	Transformer string `yaml:"transformer"`
}

// DatabaseSubsetConfig selects the subset engine's seed strategy.
type DatabaseSubsetConfig struct {
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
	Percent  int    `yaml:"percent"`
}

// DestinationCfg describes where a restore writes to.
type DestinationCfg struct {
	ConnectionURI string `yaml:"connection_uri"`
}

// DatastoreCfg is a oneof: exactly one of LocalDisk, S3, or GCP should be
// set. There is no explicit tag field, mirroring YAML's usual "whichever
// key is present" idiom; if several are set, cmd/snapctl's newStore uses
// the first of local_disk, s3, gcp.
type DatastoreCfg struct {
	LocalDisk *LocalDiskConfig `yaml:"local_disk"`
	S3        *S3Config        `yaml:"s3"`
	GCP       *S3Config        `yaml:"gcp"`
}

// LocalDiskConfig points the datastore at a directory on disk.
type LocalDiskConfig struct {
	Dir string `yaml:"dir"`
}

// S3Config covers both the s3 and gcp datastore kinds: gcp is served
// through the same S3-compatible client against a different endpoint.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	Secret    string `yaml:"secret"`
	Endpoint  string `yaml:"endpoint"`
}

// Load reads and unmarshals a YAML config file at path, substituting
// "$NAME"-prefixed environment references in every string field.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapIO("opening config file "+path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads and unmarshals a YAML config document from r.
func Parse(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.WrapIO("reading config", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.NewConfig("decoding config: " + err.Error())
	}

	if err := cfg.substituteEnv(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// substituteEnv resolves every "$NAME" string field against the
// environment, in place.
func (c *Config) substituteEnv() error {
	var err error
	sub := func(s string) string {
		if err != nil {
			return s
		}
		var resolved string
		resolved, err = substituteEnvVar(s)
		return resolved
	}

	c.EncryptionKey = sub(c.EncryptionKey)
	c.Source.ConnectionURI = sub(c.Source.ConnectionURI)
	c.Destination.ConnectionURI = sub(c.Destination.ConnectionURI)

	if c.Datastore.LocalDisk != nil {
		c.Datastore.LocalDisk.Dir = sub(c.Datastore.LocalDisk.Dir)
	}
	if c.Datastore.S3 != nil {
		c.Datastore.S3.AccessKey = sub(c.Datastore.S3.AccessKey)
		c.Datastore.S3.Secret = sub(c.Datastore.S3.Secret)
	}
	if c.Datastore.GCP != nil {
		c.Datastore.GCP.AccessKey = sub(c.Datastore.GCP.AccessKey)
		c.Datastore.GCP.Secret = sub(c.Datastore.GCP.Secret)
	}

	return err
}

// substituteEnvVar turns "$KEY" into the value of the KEY environment
// variable, failing if it's unset. Anything not starting with "$" passes
// through unchanged, and the empty string stays empty.
func substituteEnvVar(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		key := s[1:]
		value, ok := os.LookupEnv(key)
		if !ok {
			return "", errs.NewConfig("environment variable '" + key + "' is missing")
		}
		return value, nil
	}
	return s, nil
}
