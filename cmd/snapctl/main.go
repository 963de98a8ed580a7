package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brinkdb/snapctl/internal/config"
	"github.com/brinkdb/snapctl/internal/datastore"
	"github.com/brinkdb/snapctl/internal/destination"
	"github.com/brinkdb/snapctl/internal/logz"
	"github.com/brinkdb/snapctl/internal/source"
	"github.com/brinkdb/snapctl/internal/task"
	"github.com/brinkdb/snapctl/internal/transform"

	"go.uber.org/zap"
)

func main() {
	var configPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "snapctl",
		Short: "Snapshot, sanitize, and restore database dumps",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable human-readable debug logging")

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Create, list, delete, and restore dumps",
	}

	var dumpName string
	var useStdin bool
	var dumpFile string
	dumpCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Stream a new dump into the configured datastore",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := setup(configPath, debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return runDumpCreate(cfg, dumpName, useStdin, dumpFile, log)
		},
	}
	dumpCreateCmd.Flags().StringVar(&dumpName, "name", "", "Name for the new dump (defaults to a timestamp)")
	dumpCreateCmd.Flags().BoolVar(&useStdin, "stdin", false, "Read dump bytes from stdin instead of running the source's dump tool")
	dumpCreateCmd.Flags().StringVar(&dumpFile, "file", "", "Read from an existing dump file instead of a live source (required for database_subset)")

	dumpListCmd := &cobra.Command{
		Use:   "list",
		Short: "List dumps recorded in the configured datastore",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := setup(configPath, debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return runDumpList(cfg)
		},
	}

	var deleteName string
	var deleteOlderThan string
	var deleteKeepLast int
	dumpDeleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete dumps by name, age, or retention count",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := setup(configPath, debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return runDumpDelete(cfg, deleteName, deleteOlderThan, deleteKeepLast)
		},
	}
	dumpDeleteCmd.Flags().StringVar(&deleteName, "name", "", "Delete the dump with this exact directory name")
	dumpDeleteCmd.Flags().StringVar(&deleteOlderThan, "older-than", "", `Delete dumps older than this, e.g. "14d"`)
	dumpDeleteCmd.Flags().IntVar(&deleteKeepLast, "keep-last", 0, "Keep only the N most recently created dumps")

	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a dump locally (disposable container) or remotely",
	}

	var restoreLocalDumpName string
	var restoreLocalTag string
	var restoreLocalPort int
	restoreLocalCmd := &cobra.Command{
		Use:   "local",
		Short: "Restore a dump into a disposable local Docker container",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := setup(configPath, debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return runRestoreLocal(cfg, restoreLocalDumpName, restoreLocalTag, restoreLocalPort, log)
		},
	}
	restoreLocalCmd.Flags().StringVar(&restoreLocalDumpName, "dump", "", "Dump to restore (defaults to the latest)")
	restoreLocalCmd.Flags().StringVar(&restoreLocalTag, "tag", "13", "Postgres image tag to run")
	restoreLocalCmd.Flags().IntVar(&restoreLocalPort, "port", 5433, "Host port to expose the container on")

	var restoreRemoteDumpName string
	var restoreRemoteWipe bool
	restoreRemoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Restore a dump into the destination configured in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := setup(configPath, debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return runRestoreRemote(cfg, restoreRemoteDumpName, restoreRemoteWipe, log)
		},
	}
	restoreRemoteCmd.Flags().StringVar(&restoreRemoteDumpName, "dump", "", "Dump to restore (defaults to the latest)")
	restoreRemoteCmd.Flags().BoolVar(&restoreRemoteWipe, "wipe", false, "Wipe the destination database before restoring (postgres only)")

	restoreCmd.AddCommand(restoreLocalCmd, restoreRemoteCmd)
	dumpCmd.AddCommand(dumpCreateCmd, dumpListCmd, dumpDeleteCmd, restoreCmd)

	transformerCmd := &cobra.Command{
		Use:   "transformer",
		Short: "Inspect the built-in column transformers",
	}
	transformerListCmd := &cobra.Command{
		Use:   "list",
		Short: "List every built-in transformer id and description",
		RunE: func(cmd *cobra.Command, args []string) error {
			runTransformerList()
			return nil
		},
	}
	transformerCmd.AddCommand(transformerListCmd)

	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Inspect the configured source",
	}
	sourceSchemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print only the schema-defining statements from a dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := setup(configPath, debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			return runSourceSchema(cfg)
		},
	}
	sourceCmd.AddCommand(sourceSchemaCmd)

	rootCmd.AddCommand(dumpCmd, transformerCmd, sourceCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(configPath string, debug bool) (*zap.SugaredLogger, *config.Config, error) {
	log, err := logz.New(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Errorw("loading config", "path", configPath, "error", err)
		return nil, nil, err
	}

	return log, cfg, nil
}

func runDumpCreate(cfg *config.Config, dumpName string, useStdin bool, dumpFile string, log *zap.SugaredLogger) error {
	store, err := newStore(cfg.Datastore)
	if err != nil {
		return err
	}

	ds := datastore.New(store)
	ds.SetCompression(cfg.Source.Compression)
	if cfg.EncryptionKey != "" {
		ds.SetEncryptionKey(cfg.EncryptionKey)
	}
	if dumpName != "" {
		ds.SetDumpName(dumpName)
	}

	var src source.Source
	var database string
	switch {
	case useStdin:
		src = source.NewStdin("stdin")
	case dumpFile != "":
		info, err := parseConnURI(cfg.Source.ConnectionURI)
		if err != nil {
			return err
		}
		database = info.database

		strategy, err := subsetStrategy(cfg.Source.DatabaseSubset)
		if err != nil {
			return err
		}
		dedupDir := ""
		if strategy != nil {
			dedupDir, err = os.MkdirTemp("", "snapctl-subset-")
			if err != nil {
				return fmt.Errorf("creating subset dedup directory: %w", err)
			}
			defer os.RemoveAll(dedupDir)
		}
		src = source.NewFile(sourceKindOf(info.scheme), dumpFile, strategy, dedupDir)
	default:
		src, err = newSource(cfg.Source.ConnectionURI)
		if err != nil {
			return err
		}
		info, err := parseConnURI(cfg.Source.ConnectionURI)
		if err != nil {
			return err
		}
		database = info.database
	}

	transformers, skip, err := buildTransformSet(cfg.Source.Transformers, cfg.Source.Skip)
	if err != nil {
		return err
	}

	pipeline := source.NewStatementPipeline(src, database, transformers, skip)
	dumpTask := task.NewDumpTask(pipeline, ds, cfg.Source.ChunkSize)

	log.Infow("starting dump", "name", dumpName)
	err = dumpTask.Run(func(transferred, max int64) {
		log.Debugw("dump progress", "transferred", transferred, "max", max)
	})
	if err != nil {
		log.Errorw("dump failed", "error", err)
		return err
	}

	log.Infow("dump complete")
	return nil
}

func runDumpList(cfg *config.Config) error {
	store, err := newStore(cfg.Datastore)
	if err != nil {
		return err
	}

	ds := datastore.New(store)
	dumps, err := ds.Dumps()
	if err != nil {
		return err
	}

	if len(dumps) == 0 {
		fmt.Println("No dumps found.")
		return nil
	}

	for _, d := range dumps {
		fmt.Printf("%-40s %10d bytes  compressed=%-5t encrypted=%-5t\n",
			d.DirectoryName, d.Size, d.Compressed, d.Encrypted)
	}
	return nil
}

func runDumpDelete(cfg *config.Config, name, olderThan string, keepLast int) error {
	store, err := newStore(cfg.Datastore)
	if err != nil {
		return err
	}
	ds := datastore.New(store)

	switch {
	case name != "":
		return ds.DeleteByName(name)
	case olderThan != "":
		return ds.DeleteOlderThan(olderThan)
	case keepLast > 0:
		return ds.DeleteKeepLast(keepLast)
	default:
		return fmt.Errorf("one of --name, --older-than, or --keep-last is required")
	}
}

func runRestoreLocal(cfg *config.Config, dumpName, tag string, port int, log *zap.SugaredLogger) error {
	store, err := newStore(cfg.Datastore)
	if err != nil {
		return err
	}
	ds := datastore.New(store)
	if cfg.EncryptionKey != "" {
		ds.SetEncryptionKey(cfg.EncryptionKey)
	}

	options := readOptionsFor(dumpName)

	dest := destination.NewPostgresDocker(tag, port)
	restoreTask := task.NewRestoreTask(dest, ds, options)

	log.Infow("starting local restore", "port", port, "tag", tag)
	err = restoreTask.Run(func(transferred, max int64) {
		log.Debugw("restore progress", "transferred", transferred, "max", max)
	})
	if err != nil {
		log.Errorw("restore failed", "error", err)
		return err
	}

	log.Infow("restore complete", "container", dest.Container().ID)
	return nil
}

func runRestoreRemote(cfg *config.Config, dumpName string, wipe bool, log *zap.SugaredLogger) error {
	store, err := newStore(cfg.Datastore)
	if err != nil {
		return err
	}
	ds := datastore.New(store)
	if cfg.EncryptionKey != "" {
		ds.SetEncryptionKey(cfg.EncryptionKey)
	}

	dest, err := newDestination(cfg.Destination.ConnectionURI, wipe)
	if err != nil {
		return err
	}

	options := readOptionsFor(dumpName)
	restoreTask := task.NewRestoreTask(dest, ds, options)

	log.Infow("starting remote restore")
	err = restoreTask.Run(func(transferred, max int64) {
		log.Debugw("restore progress", "transferred", transferred, "max", max)
	})
	if err != nil {
		log.Errorw("restore failed", "error", err)
		return err
	}

	log.Infow("restore complete")
	return nil
}

func readOptionsFor(dumpName string) datastore.ReadOptions {
	if dumpName == "" {
		return datastore.LatestDump()
	}
	return datastore.ByName(dumpName)
}

func runTransformerList() {
	for _, tr := range transform.Builtins() {
		fmt.Printf("%-16s %s\n", tr.ID(), tr.Description())
	}
}

func runSourceSchema(cfg *config.Config) error {
	src, err := newSource(cfg.Source.ConnectionURI)
	if err != nil {
		return err
	}
	return source.PrintSchema(src, os.Stdout)
}
