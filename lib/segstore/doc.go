// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package segstore persists chunked values as rows of a text-cell
// table and guarantees that readers never see two generations of the
// same key at once.
//
// # Table layout
//
//	key        TEXT     logical key
//	payload    TEXT     one segment of the encoded value
//	part_index INTEGER  -1 for an unchunked value, else 0..n-1
//	timestamp  REAL     write time, Unix milliseconds
//
// Rows are identified by (key, part_index). Creating the table is the
// backend's job; this package only issues row-level statements.
//
// # Write protocol
//
// [Store.WriteGeneration] replaces every row of a key:
//
//  1. check whether any row exists for the key
//  2. if so, delete them all; the delete commits before anything else
//  3. upsert each new segment in index order, one round trip each
//
// Each step is its own backend transaction. Because the delete
// commits before the first new row, a reader can observe no rows or a
// prefix of the new generation, but never old and new rows mixed.
// Once the delete has been issued the sequence runs to completion
// even if the caller's context is cancelled; a backend failure part
// way through is reported as a [*BackendError] with Incomplete set and
// is not rolled back.
//
// # Backend
//
// [Backend] is the only capability the store needs: execute one
// parameterized statement in its own transaction. Arguments are
// restricted to text and numbers; binary data must already be text.
package segstore
