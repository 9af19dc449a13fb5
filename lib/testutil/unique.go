// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" where N increases monotonically across
// the test binary.
//
//	key := testutil.UniqueID("key") // "key-1", "key-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

// DatabasePath returns a path for a new SQLite file inside the test's
// temporary directory. The file does not exist yet.
func DatabasePath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), UniqueID("chunkstore")+".db")
}
