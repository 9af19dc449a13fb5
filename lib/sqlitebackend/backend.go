// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitebackend implements segstore.Backend on a local SQLite
// database file.
//
// Each Exec borrows a pooled connection and runs its statement inside
// a transaction of its own: IMMEDIATE for writes, so a Set's delete
// and inserts take the write lock up front instead of failing on
// upgrade, and deferred for SELECTs, so readers run concurrently under
// WAL. The segment table is created on every new connection.
package sqlitebackend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/mcdit/chunkstore/lib/segstore"
	"github.com/mcdit/chunkstore/lib/sqlitepool"
)

// Config holds the parameters for opening a backend.
type Config struct {
	// Path is the database file. Required.
	Path string

	// Table is the segment table to create. Defaults to
	// segstore.DefaultTable. Must match the table the segstore.Store
	// is configured with.
	Table string

	// PoolSize is passed through to sqlitepool.
	PoolSize int

	// Logger receives pool lifecycle messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Backend is a segstore.Backend over a SQLite connection pool. It is
// safe for concurrent use.
type Backend struct {
	pool   *sqlitepool.Pool
	table  string
	logger *slog.Logger
}

var _ segstore.Backend = (*Backend)(nil)

// Open opens (creating if necessary) the database at cfg.Path. The
// caller must Close the backend.
func Open(cfg Config) (*Backend, error) {
	table := cfg.Table
	if table == "" {
		table = segstore.DefaultTable
	}
	if err := segstore.ValidateTable(table); err != nil {
		return nil, fmt.Errorf("sqlitebackend: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	schema := createTableStatement(table)
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitebackend: %w", err)
	}

	return &Backend{
		pool:   pool,
		table:  table,
		logger: logger,
	}, nil
}

func createTableStatement(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			"key"      TEXT    NOT NULL,
			payload    TEXT    NOT NULL,
			part_index INTEGER NOT NULL,
			timestamp  REAL    NOT NULL,
			PRIMARY KEY ("key", part_index)
		);
	`, table)
}

// Table returns the name of the segment table this backend created.
func (b *Backend) Table() string { return b.table }

// Exec runs statement in its own transaction. See segstore.Backend.
func (b *Backend) Exec(ctx context.Context, statement string, args []any, rowFunc func(segstore.Row) error) error {
	if err := segstore.CheckArgs(args); err != nil {
		return fmt.Errorf("sqlitebackend: %w", err)
	}

	return b.pool.Do(ctx, func(conn *sqlite.Conn) (err error) {
		if isQuery(statement) {
			defer sqlitex.Transaction(conn)(&err)
		} else {
			endTransaction, beginErr := sqlitex.ImmediateTransaction(conn)
			if beginErr != nil {
				return fmt.Errorf("sqlitebackend: begin transaction: %w", beginErr)
			}
			defer endTransaction(&err)
		}

		// rowFunc errors are kept aside so they reach the caller
		// unwrapped, as segstore.Backend promises.
		var rowErr error
		options := &sqlitex.ExecOptions{Args: args}
		if rowFunc != nil {
			options.ResultFunc = func(stmt *sqlite.Stmt) error {
				rowErr = rowFunc(stmtRow{stmt: stmt})
				return rowErr
			}
		}
		if execErr := sqlitex.Execute(conn, statement, options); execErr != nil {
			if rowErr != nil {
				return rowErr
			}
			return execErr
		}
		return nil
	})
}

// Close closes the underlying pool.
func (b *Backend) Close() error {
	return b.pool.Close()
}

func isQuery(statement string) bool {
	trimmed := strings.TrimSpace(statement)
	return len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "SELECT")
}

// stmtRow adapts a stepped statement to segstore.Row. It is only valid
// inside the ResultFunc that received it.
type stmtRow struct {
	stmt *sqlite.Stmt
}

func (r stmtRow) Text(column int) string   { return r.stmt.ColumnText(column) }
func (r stmtRow) Int64(column int) int64   { return r.stmt.ColumnInt64(column) }
func (r stmtRow) Float(column int) float64 { return r.stmt.ColumnFloat(column) }
