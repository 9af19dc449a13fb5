// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for chunkstore
// packages.
//
// [RequireReceive] and [RequireNoReceive] wrap the select-with-timeout
// pattern used by tests of the callback boundary, whose results arrive
// on another goroutine. They are the only place tests wait on the wall
// clock.
//
// [UniqueID] generates distinct keys without reaching for time.Now.
//
// [DatabasePath] returns a fresh SQLite file path under t.TempDir.
//
// [FaultBackend] wraps a segstore.Backend, records every statement it
// forwards, and fails the ones a test selects. Tests use it to drive
// a Set into failure between the delete and the last insert.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
