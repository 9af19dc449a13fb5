// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segstore

import "fmt"

// BackendError is a backend failure surfaced verbatim, annotated with
// the protocol step that failed.
type BackendError struct {
	// Op names the failed step: "check", "delete", "insert", "read",
	// "clear", "count", "keys", "key at", "scan".
	Op string

	// Key is the logical key involved, empty for table-wide steps.
	Key string

	// Index is the segment index of a failed insert.
	Index int

	// Incomplete is set when the failure left the key without a
	// complete generation: the old rows were already deleted, or part
	// of the new generation was written. The key needs a corrective
	// write or removal.
	Incomplete bool

	Err error
}

func (e *BackendError) Error() string {
	switch {
	case e.Op == "insert" && e.Incomplete:
		return fmt.Sprintf("segstore: insert %q segment %d (generation incomplete): %v", e.Key, e.Index, e.Err)
	case e.Op == "insert":
		return fmt.Sprintf("segstore: insert %q segment %d: %v", e.Key, e.Index, e.Err)
	case e.Key != "":
		return fmt.Sprintf("segstore: %s %q: %v", e.Op, e.Key, e.Err)
	default:
		return fmt.Sprintf("segstore: %s: %v", e.Op, e.Err)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }
