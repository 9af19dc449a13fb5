// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore

import "errors"

// ErrNotFound is returned by Get and GetInto when no rows exist for
// the key. A stored nil is not "not found".
var ErrNotFound = errors.New("kvstore: key not found")

// errStopIteration ends a Scan early once the iterator has its result.
var errStopIteration = errors.New("kvstore: iteration stopped")
