package main

import (
	"net/url"
	"strconv"

	"github.com/brinkdb/snapctl/internal/blobstore"
	"github.com/brinkdb/snapctl/internal/config"
	"github.com/brinkdb/snapctl/internal/destination"
	"github.com/brinkdb/snapctl/internal/errs"
	"github.com/brinkdb/snapctl/internal/source"
	"github.com/brinkdb/snapctl/internal/subset"
	"github.com/brinkdb/snapctl/internal/transform"
)

// connInfo is a connection URI broken into the fields every
// source/destination constructor needs. No ecosystem library in the
// retrieved examples parses database connection URIs, so this one small
// piece leans on net/url rather than a third-party dependency.
type connInfo struct {
	scheme   string
	host     string
	port     int
	database string
	username string
	password string
}

func parseConnURI(raw string) (connInfo, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return connInfo{}, errs.NewConfig("invalid connection uri: " + err.Error())
	}

	var port int
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return connInfo{}, errs.NewConfig("invalid port in connection uri: " + err.Error())
		}
	}

	password, _ := u.User.Password()
	database := u.Path
	if len(database) > 0 && database[0] == '/' {
		database = database[1:]
	}

	return connInfo{
		scheme:   u.Scheme,
		host:     u.Hostname(),
		port:     port,
		database: database,
		username: u.User.Username(),
		password: password,
	}, nil
}

// newSource builds the Source matching a connection URI's scheme.
func newSource(raw string) (source.Source, error) {
	info, err := parseConnURI(raw)
	if err != nil {
		return nil, err
	}

	switch info.scheme {
	case "postgresql", "postgres":
		return source.NewPostgres(info.host, info.port, info.database, info.username, info.password), nil
	case "mysql":
		return source.NewMySQL(info.host, info.port, info.database, info.username, info.password), nil
	case "mongodb":
		return source.NewMongoDB(info.host, info.port, info.database, info.username, info.password), nil
	default:
		return nil, errs.NewConfig("unsupported source scheme '" + info.scheme + "'")
	}
}

// newDestination builds the Destination matching a connection URI's
// scheme, optionally wiping the database before a postgres restore.
func newDestination(raw string, wipeDatabase bool) (destination.Destination, error) {
	info, err := parseConnURI(raw)
	if err != nil {
		return nil, err
	}

	switch info.scheme {
	case "postgresql", "postgres":
		return destination.NewPostgres(info.host, info.port, info.database, info.username, info.password, wipeDatabase), nil
	case "mysql":
		return destination.NewMySQL(info.host, info.port, info.database, info.username, info.password), nil
	case "mongodb":
		return destination.NewMongoDB(info.host, info.port, info.database, info.username, info.password), nil
	default:
		return nil, errs.NewConfig("unsupported destination scheme '" + info.scheme + "'")
	}
}

// newStore builds the blobstore.Store the config's datastore section
// names, preferring local_disk, then s3, then gcp.
func newStore(cfg config.DatastoreCfg) (blobstore.Store, error) {
	switch {
	case cfg.LocalDisk != nil:
		return blobstore.NewLocalDisk(cfg.LocalDisk.Dir)
	case cfg.S3 != nil:
		endpoint := cfg.S3.Endpoint
		if endpoint == "" {
			endpoint = "s3.amazonaws.com"
		}
		return blobstore.NewS3(endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.Secret, cfg.S3.Bucket, true)
	case cfg.GCP != nil:
		if cfg.GCP.Endpoint != "" {
			return blobstore.NewS3(cfg.GCP.Endpoint, cfg.GCP.Region, cfg.GCP.AccessKey, cfg.GCP.Secret, cfg.GCP.Bucket, true)
		}
		return blobstore.NewGCS(cfg.GCP.AccessKey, cfg.GCP.Secret, cfg.GCP.Bucket)
	default:
		return nil, errs.NewConfig("datastore config must set one of local_disk, s3, or gcp")
	}
}

// sourceKindOf normalizes a connection URI scheme into the kind string
// source.Command/source.File carry, collapsing the postgres/postgresql
// alias.
func sourceKindOf(scheme string) string {
	if scheme == "postgres" {
		return "postgresql"
	}
	return scheme
}

// subsetStrategy builds the subset.Strategy a `dump create --file` run
// narrows to, or nil when the config has no database_subset section.
func subsetStrategy(cfg *config.DatabaseSubsetConfig) (*subset.Strategy, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.Database == "" || cfg.Table == "" {
		return nil, errs.NewConfig("database_subset requires both database and table")
	}
	return &subset.Strategy{Database: cfg.Database, Table: cfg.Table, Percent: cfg.Percent}, nil
}

// buildTransformSet turns the config's per-table transformer entries into
// a transform.Set plus a skip set, the shape internal/source's
// StatementPipeline needs.
func buildTransformSet(entries []config.TransformerConfig, skipNames []string) (*transform.Set, transform.SkipSet, error) {
	var transformers []transform.Transformer
	for _, entry := range entries {
		for _, col := range entry.Columns {
			tr, err := transform.FromSpec(col.Transformer, entry.Database, entry.Table, col.Name)
			if err != nil {
				return nil, nil, err
			}
			transformers = append(transformers, tr)
		}
	}

	skip := transform.SkipSet{}
	for _, name := range skipNames {
		skip[name] = struct{}{}
	}

	return transform.NewSet(transformers...), skip, nil
}
