// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segstore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/mcdit/chunkstore/lib/chunk"
	"github.com/mcdit/chunkstore/lib/clock"
)

// DefaultTable is the table name used when Config.Table is empty.
const DefaultTable = "keyvaluepairs"

// Config holds the parameters for a segment store.
type Config struct {
	// Backend executes statements. Required.
	Backend Backend

	// Table is the segment table name. Must be a plain SQL identifier.
	// Defaults to DefaultTable.
	Table string

	// Clock stamps written rows. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives debug messages about generations written and
	// removed. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Store implements the generation-safe segment protocol on top of a
// Backend. Store is safe for concurrent use; it holds no state beyond
// its configuration. It does not serialize writers of the same key.
type Store struct {
	backend    Backend
	clock      clock.Clock
	logger     *slog.Logger
	table      string
	statements statements
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable reports whether name is usable as a table name.
func ValidateTable(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("segstore: table name %q is not a plain identifier", name)
	}
	return nil
}

// New validates cfg and returns a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("segstore: Backend is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{
		backend:    cfg.Backend,
		clock:      clk,
		logger:     logger.With("table", table),
		table:      table,
		statements: buildStatements(table),
	}, nil
}

// Table returns the segment table name.
func (s *Store) Table() string { return s.table }

// WriteGeneration replaces all rows of key with segments, which must
// form a complete generation (see chunk.Validate). See the package
// documentation for the ordering guarantees.
func (s *Store) WriteGeneration(ctx context.Context, key string, segments []chunk.Segment) error {
	if err := chunk.Validate(segments); err != nil {
		return fmt.Errorf("segstore: write %q: %w", key, err)
	}

	exists := false
	err := s.backend.Exec(ctx, s.statements.exists, []any{key}, func(Row) error {
		exists = true
		return nil
	})
	if err != nil {
		return &BackendError{Op: "check", Key: key, Err: err}
	}

	// From here on the sequence is not abandoned halfway because the
	// caller went away: a cancelled write would strand the key between
	// generations.
	writeCtx := context.WithoutCancel(ctx)

	if exists {
		if err := s.backend.Exec(writeCtx, s.statements.deleteKey, []any{key}, nil); err != nil {
			return &BackendError{Op: "delete", Key: key, Err: err}
		}
	}

	for position, segment := range segments {
		timestamp := clock.UnixMillis(s.clock.Now())
		args := []any{key, segment.Payload, segment.Index, timestamp}
		if err := s.backend.Exec(writeCtx, s.statements.upsert, args, nil); err != nil {
			return &BackendError{
				Op:         "insert",
				Key:        key,
				Index:      segment.Index,
				Incomplete: exists || position > 0,
				Err:        err,
			}
		}
	}

	s.logger.Debug("generation written",
		"key", key,
		"segments", len(segments),
		"replaced", exists,
	)
	return nil
}

// ReadSegments returns every row of key ordered by index. A key with
// no rows returns an empty slice and no error.
func (s *Store) ReadSegments(ctx context.Context, key string) ([]chunk.Segment, error) {
	var segments []chunk.Segment
	err := s.backend.Exec(ctx, s.statements.read, []any{key}, func(row Row) error {
		segments = append(segments, chunk.Segment{
			Index:   int(row.Int64(0)),
			Payload: row.Text(1),
		})
		return nil
	})
	if err != nil {
		return nil, &BackendError{Op: "read", Key: key, Err: err}
	}
	return segments, nil
}

// Delete removes every row of key. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.backend.Exec(ctx, s.statements.deleteKey, []any{key}, nil); err != nil {
		return &BackendError{Op: "delete", Key: key, Err: err}
	}
	s.logger.Debug("key deleted", "key", key)
	return nil
}

// DeleteAll removes every row in the table.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.backend.Exec(ctx, s.statements.deleteAll, nil, nil); err != nil {
		return &BackendError{Op: "clear", Err: err}
	}
	s.logger.Debug("table cleared")
	return nil
}

// CountKeys returns the number of distinct keys, however many rows
// each occupies.
func (s *Store) CountKeys(ctx context.Context) (int, error) {
	count, err := s.count(ctx, s.statements.countKeys, nil)
	if err != nil {
		return 0, &BackendError{Op: "count", Err: err}
	}
	return count, nil
}

// RowCount returns the number of physical rows stored for key.
func (s *Store) RowCount(ctx context.Context, key string) (int, error) {
	count, err := s.count(ctx, s.statements.countRows, []any{key})
	if err != nil {
		return 0, &BackendError{Op: "count", Key: key, Err: err}
	}
	return count, nil
}

func (s *Store) count(ctx context.Context, statement string, args []any) (int, error) {
	var count int
	err := s.backend.Exec(ctx, statement, args, func(row Row) error {
		count = int(row.Int64(0))
		return nil
	})
	return count, err
}

// Keys returns the distinct keys in storage order: the order in which
// each key's first current row was stored.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.backend.Exec(ctx, s.statements.keys, nil, func(row Row) error {
		keys = append(keys, row.Text(0))
		return nil
	})
	if err != nil {
		return nil, &BackendError{Op: "keys", Err: err}
	}
	return keys, nil
}

// KeyAt returns the key at position n of the Keys order. ok is false
// when n is negative or past the last key.
func (s *Store) KeyAt(ctx context.Context, n int) (key string, ok bool, err error) {
	if n < 0 {
		return "", false, nil
	}
	err = s.backend.Exec(ctx, s.statements.keyAt, []any{n}, func(row Row) error {
		key = row.Text(0)
		ok = true
		return nil
	})
	if err != nil {
		return "", false, &BackendError{Op: "key at", Err: err}
	}
	return key, ok, nil
}

// Scan reads every key's segments with a single statement and calls fn
// for each key in storage order, segments sorted by index. fn runs
// after the statement has completed, so it may call back into the
// store. A non-nil error from fn stops the scan and is returned.
func (s *Store) Scan(ctx context.Context, fn func(key string, segments []chunk.Segment) error) error {
	type group struct {
		key      string
		segments []chunk.Segment
	}
	var groups []*group
	err := s.backend.Exec(ctx, s.statements.scan, nil, func(row Row) error {
		key := row.Text(0)
		if len(groups) == 0 || groups[len(groups)-1].key != key {
			groups = append(groups, &group{key: key})
		}
		current := groups[len(groups)-1]
		current.segments = append(current.segments, chunk.Segment{
			Index:   int(row.Int64(1)),
			Payload: row.Text(2),
		})
		return nil
	})
	if err != nil {
		return &BackendError{Op: "scan", Err: err}
	}

	for _, g := range groups {
		if err := fn(g.key, g.segments); err != nil {
			return err
		}
	}
	return nil
}
