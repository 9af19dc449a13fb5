// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
	"github.com/mcdit/chunkstore/lib/config"
	"github.com/mcdit/chunkstore/lib/kvstore"
	"github.com/mcdit/chunkstore/lib/sqlitebackend"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

// storeOptions are the flags shared by every command that opens the
// store. Embed it in a command's parameter struct.
type storeOptions struct {
	ConfigPath string `flag:"config,c" desc:"path to chunkstore.yaml (default: $CHUNKSTORE_CONFIG)"`
	Database   string `flag:"db" desc:"SQLite database path (overrides the config file)"`
	Table      string `flag:"table" desc:"segment table name (overrides the config file)"`
	Verbose    bool   `flag:"verbose,v" desc:"log each store operation"`
}

// errNoDatabase is returned when neither a config file nor --db says
// where the database is.
var errNoDatabase = errors.New("no database: pass --db, --config, or set " + config.EnvironmentVariable)

// loadConfig resolves the configuration: --config, then
// $CHUNKSTORE_CONFIG, then built-in defaults when --db names the
// database. Flag overrides are applied and the result validated.
func (o *storeOptions) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case o.ConfigPath != "":
		cfg, err = config.LoadFile(o.ConfigPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	case o.Database != "":
		cfg = config.Default()
	default:
		return nil, errNoDatabase
	}
	if err != nil {
		return nil, err
	}

	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	if o.Table != "" {
		cfg.Database.Table = o.Table
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openedStore is a kvstore.Store with the backend it owns.
type openedStore struct {
	*kvstore.Store
	backend *sqlitebackend.Backend
	logger  *slog.Logger
}

func (s *openedStore) Close() error {
	return s.backend.Close()
}

// open loads the configuration and opens the store it describes. The
// caller must Close the result.
func (o *storeOptions) open(env *environment) (*openedStore, error) {
	logger := cli.NewCommandLogger(env.streams.Stderr, o.Verbose)

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	codecOptions, err := cfg.CodecOptions()
	if err != nil {
		return nil, err
	}
	codec, err := valuecodec.New(codecOptions)
	if err != nil {
		return nil, err
	}

	backend, err := sqlitebackend.Open(sqlitebackend.Config{
		Path:     cfg.Database.Path,
		Table:    cfg.Database.Table,
		PoolSize: cfg.Database.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	store, err := kvstore.New(kvstore.Config{
		Backend:   backend,
		Codec:     codec,
		ChunkSize: cfg.Chunking.MaxBytes,
		Logger:    logger,
		Table:     cfg.Database.Table,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	logger.Debug("store opened",
		"path", cfg.Database.Path,
		"table", cfg.Database.Table,
		"format", codec.Format(),
		"chunk_size", store.ChunkSize(),
	)
	return &openedStore{Store: store, backend: backend, logger: logger}, nil
}

// withStore opens the store, runs fn and closes the store, returning
// the first error.
func (o *storeOptions) withStore(env *environment, fn func(*openedStore) error) (err error) {
	store, err := o.open(env)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", closeErr)
		}
	}()
	return fn(store)
}
