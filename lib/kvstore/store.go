// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcdit/chunkstore/lib/chunk"
	"github.com/mcdit/chunkstore/lib/clock"
	"github.com/mcdit/chunkstore/lib/segstore"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

// Config holds the parameters for a Store.
type Config struct {
	// Backend executes statements. Required.
	Backend segstore.Backend

	// Codec converts values to and from text. Defaults to the legacy
	// format codec, valuecodec.Default().
	Codec *valuecodec.Codec

	// ChunkSize is the largest segment, in bytes of encoded text.
	// Zero means chunk.DefaultMaxBytes (256 KiB).
	ChunkSize int

	// Clock stamps written rows. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives debug messages and key coercion warnings. If
	// nil, a no-op logger is used.
	Logger *slog.Logger

	// Table is the segment table. Defaults to segstore.DefaultTable.
	Table string
}

// Store is the key-value façade. It is safe for concurrent use.
type Store struct {
	segments  *segstore.Store
	codec     *valuecodec.Codec
	chunkSize int
	logger    *slog.Logger
}

// New validates cfg and returns a Store.
func New(cfg Config) (*Store, error) {
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = chunk.DefaultMaxBytes
	}
	if chunkSize < 0 {
		return nil, fmt.Errorf("kvstore: chunk size %d: %w", chunkSize, chunk.ErrInvalidChunkSize)
	}

	codec := cfg.Codec
	if codec == nil {
		codec = valuecodec.Default()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	segments, err := segstore.New(segstore.Config{
		Backend: cfg.Backend,
		Table:   cfg.Table,
		Clock:   cfg.Clock,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore: %w", err)
	}

	return &Store{
		segments:  segments,
		codec:     codec,
		chunkSize: chunkSize,
		logger:    logger,
	}, nil
}

// ChunkSize returns the segment size limit in bytes.
func (s *Store) ChunkSize() int { return s.chunkSize }

// Get returns the value stored under key. Returns ErrNotFound when the
// key has no rows. Binary values come back as the Go type their tag
// names (valuecodec.Uint8Array, []int16, *valuecodec.Blob, ...); JSON
// values as encoding/json generic types.
func (s *Store) Get(ctx context.Context, key string) (any, error) {
	text, err := s.readText(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := s.codec.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return value, nil
}

// GetInto decodes the value stored under key into target: JSON values
// are unmarshaled directly, binary values assigned when target has the
// matching type.
func (s *Store) GetInto(ctx context.Context, key string, target any) error {
	text, err := s.readText(ctx, key)
	if err != nil {
		return err
	}
	if err := s.codec.DecodeInto(text, target); err != nil {
		return fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return nil
}

func (s *Store) readText(ctx context.Context, key string) (string, error) {
	segments, err := s.segments.ReadSegments(ctx, key)
	if err != nil {
		return "", fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("kvstore: get %q: %w", key, ErrNotFound)
	}
	text, err := chunk.Join(segments)
	if err != nil {
		return "", fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return text, nil
}

// Set stores value under key, replacing any previous value. A nil
// value is stored as JSON null.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	text, err := s.codec.Encode(ctx, value)
	if err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	segments, err := chunk.Split(text, s.chunkSize)
	if err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	if err := s.segments.WriteGeneration(ctx, key, segments); err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	s.logger.Debug("value stored",
		"key", key,
		"encoded_bytes", len(text),
		"segments", len(segments),
	)
	return nil
}

// Remove deletes key. Removing an absent key succeeds.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.segments.Delete(ctx, key); err != nil {
		return fmt.Errorf("kvstore: remove %q: %w", key, err)
	}
	return nil
}

// Clear deletes every key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.segments.DeleteAll(ctx); err != nil {
		return fmt.Errorf("kvstore: clear: %w", err)
	}
	return nil
}

// Length returns the number of stored keys.
func (s *Store) Length(ctx context.Context) (int, error) {
	count, err := s.segments.CountKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("kvstore: length: %w", err)
	}
	return count, nil
}

// Keys returns every key in storage order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.segments.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("kvstore: keys: %w", err)
	}
	return keys, nil
}

// Key returns the key at position n of the Keys order. ok is false
// when n is out of range.
func (s *Store) Key(ctx context.Context, n int) (key string, ok bool, err error) {
	key, ok, err = s.segments.KeyAt(ctx, n)
	if err != nil {
		return "", false, fmt.Errorf("kvstore: key %d: %w", n, err)
	}
	return key, ok, nil
}

// Iterate calls fn with each key's decoded value in storage order.
// When fn reports done, iteration stops and its result is returned.
// If fn never reports done, Iterate returns (nil, nil). A value that
// fails to reassemble or decode stops iteration with an error.
//
// All rows are read with one statement before fn is first called, so
// fn may use the Store.
func (s *Store) Iterate(ctx context.Context, fn func(value any, key string) (result any, done bool)) (any, error) {
	var result any
	err := s.segments.Scan(ctx, func(key string, segments []chunk.Segment) error {
		text, err := chunk.Join(segments)
		if err != nil {
			return fmt.Errorf("kvstore: iterate %q: %w", key, err)
		}
		value, err := s.codec.Decode(text)
		if err != nil {
			return fmt.Errorf("kvstore: iterate %q: %w", key, err)
		}
		if output, done := fn(value, key); done {
			result = output
			return errStopIteration
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		if isBackendError(err) {
			return nil, fmt.Errorf("kvstore: iterate: %w", err)
		}
		return nil, err
	}
	return result, nil
}

// Entry describes one stored key without materializing its value.
type Entry struct {
	Key string

	// Kind is the value's kind: valuecodec.KindJSON or a binary kind.
	Kind valuecodec.Kind

	// Size is the decoded payload size in bytes (JSON text length for
	// JSON values).
	Size int

	// EncodedSize is the stored text length in bytes, across all
	// segments.
	EncodedSize int

	// Rows is the number of physical rows the key occupies.
	Rows int

	// Digest is the BLAKE3 digest of the stored text.
	Digest string
}

// Entries describes every key in storage order.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.segments.Scan(ctx, func(key string, segments []chunk.Segment) error {
		text, err := chunk.Join(segments)
		if err != nil {
			return fmt.Errorf("kvstore: entries %q: %w", key, err)
		}
		kind, size, err := s.codec.Inspect(text)
		if err != nil {
			return fmt.Errorf("kvstore: entries %q: %w", key, err)
		}
		entries = append(entries, Entry{
			Key:         key,
			Kind:        kind,
			Size:        size,
			EncodedSize: len(text),
			Rows:        len(segments),
			Digest:      valuecodec.Digest(text),
		})
		return nil
	})
	if err != nil {
		if isBackendError(err) {
			return nil, fmt.Errorf("kvstore: entries: %w", err)
		}
		return nil, err
	}
	return entries, nil
}

// isBackendError distinguishes a failed Scan statement, which needs the
// operation prefix, from a callback error that already carries it.
func isBackendError(err error) bool {
	var backendErr *segstore.BackendError
	return errors.As(err, &backendErr)
}
