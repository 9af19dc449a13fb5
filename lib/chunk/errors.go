// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import "errors"

var (
	// ErrInvalidChunkSize indicates a non-positive maximum segment size.
	ErrInvalidChunkSize = errors.New("chunk: maximum segment size must be positive")

	// ErrIncompleteGeneration indicates that a segment list is not a
	// complete generation: empty, missing or duplicated indices, or a
	// sentinel mixed with indexed segments.
	ErrIncompleteGeneration = errors.New("chunk: incomplete generation")
)
