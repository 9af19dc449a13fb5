// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package valuecodec converts typed values to text and back without
// losing their type.
//
// Backend cells hold text only, so binary values need a textual form
// that remembers what they were. Two write formats exist; decoding
// always accepts both.
//
// # Legacy format
//
// Structured values are stored as plain JSON. Binary values are stored
// as [Marker] followed by a 4-character type tag and the standard
// base64 encoding of the underlying bytes:
//
//	__lfsc__:ui08AQID          Uint8Array{1, 2, 3}
//	__lfsc__:fl64AAAAAAAA8D8=  []float64{1}
//	{"name":"x"}               map[string]any{"name": "x"}
//
// Tags: arbf (raw buffer, []byte), blob, si08, ui08, uic8, si16, ur16,
// si32, ui32, fl32, fl64. Multi-byte elements are little-endian.
//
// # Envelope format
//
// [FormatEnvelope] stores every value, JSON included, as an explicit
// tagged union: a CBOR map of kind, compression, original size, sealed
// flag and a length-prefixed byte string, base64 encoded behind its own
// marker. Envelopes can be compressed with LZ4 or zstd and sealed to
// age x25519 recipients.
//
// # Go value mapping
//
//	nil                     JSON null
//	[]byte                  arbf, decodes to []byte
//	Uint8Array              ui08
//	Uint8ClampedArray       uic8
//	[]int8 ... []float64    si08, si16, ur16, si32, ui32, fl32, fl64
//	*Blob, io.Reader        blob, decodes to *Blob
//	Binary                  the tag of its Kind
//	anything else           JSON via encoding/json
//
// A Blob (or any io.Reader) is read to EOF before encoding; the read
// checks ctx between blocks.
package valuecodec
