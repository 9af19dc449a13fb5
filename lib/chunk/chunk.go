// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"
	"strings"
)

// SentinelIndex marks the single segment of a value that was not
// chunked.
const SentinelIndex = -1

// DefaultMaxBytes is the default segment size ceiling: 256 KiB.
const DefaultMaxBytes = 256 * 1024

// Segment is one stored slice of an encoded value.
type Segment struct {
	// Index is SentinelIndex for an unchunked value, otherwise the
	// zero-based position of this slice.
	Index int

	// Payload is the slice of encoded text.
	Payload string
}

// Count returns the number of segments Split produces for a value of
// the given byte length. Returns 1 (the sentinel) when length fits in
// maxBytes, including length zero.
func Count(length, maxBytes int) int {
	if maxBytes <= 0 {
		return 0
	}
	if length <= maxBytes {
		return 1
	}
	return (length + maxBytes - 1) / maxBytes
}

// Split divides text into segments of at most maxBytes bytes. A text
// that fits produces one sentinel segment; otherwise segments are
// indexed 0..n-1 and only the last may be shorter than maxBytes.
func Split(text string, maxBytes int) ([]Segment, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, maxBytes)
	}

	if len(text) <= maxBytes {
		return []Segment{{Index: SentinelIndex, Payload: text}}, nil
	}

	count := Count(len(text), maxBytes)
	segments := make([]Segment, count)
	for i := range count {
		start := i * maxBytes
		end := min(start+maxBytes, len(text))
		segments[i] = Segment{Index: i, Payload: text[start:end]}
	}
	return segments, nil
}

// Join concatenates segments sorted by ascending index. The caller is
// responsible for ordering; Join verifies that the list forms exactly
// one complete generation and returns ErrIncompleteGeneration
// otherwise.
func Join(segments []Segment) (string, error) {
	if err := Validate(segments); err != nil {
		return "", err
	}
	if len(segments) == 1 {
		return segments[0].Payload, nil
	}

	total := 0
	for _, segment := range segments {
		total += len(segment.Payload)
	}
	var builder strings.Builder
	builder.Grow(total)
	for _, segment := range segments {
		builder.WriteString(segment.Payload)
	}
	return builder.String(), nil
}

// Validate reports whether segments (sorted by index) form a complete
// generation: a lone sentinel, or indices exactly 0..n-1.
func Validate(segments []Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrIncompleteGeneration)
	}
	if len(segments) == 1 && segments[0].Index == SentinelIndex {
		return nil
	}
	for position, segment := range segments {
		if segment.Index != position {
			return fmt.Errorf("%w: segment at position %d has index %d",
				ErrIncompleteGeneration, position, segment.Index)
		}
	}
	return nil
}
