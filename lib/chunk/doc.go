// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk splits encoded values into ordered, size-bounded
// segments and joins them back.
//
// A backend cell has a practical size ceiling. Values whose encoded
// text fits within the ceiling are stored as a single segment carrying
// [SentinelIndex]; larger values become consecutive segments indexed
// from 0, each exactly maxBytes long except the last:
//
//	[sentinel -1]                       len(text) <= maxBytes
//	[0] [1] ... [n-1]                   len(text) >  maxBytes
//
// Lengths are byte lengths. Splitting may cut through a multi-byte
// UTF-8 sequence; [Join] restores the original bytes exactly, so the
// only requirement on the backend is that it stores text cells
// byte-for-byte.
//
// [Join] is strict about its input: a segment list that is not either
// one sentinel or the complete run 0..n-1 is reported as
// [ErrIncompleteGeneration] rather than reassembled with holes.
package chunk
