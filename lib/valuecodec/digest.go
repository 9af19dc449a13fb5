// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package valuecodec

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3-256 digest of an encoded value. Two
// keys holding identical encoded text have identical digests, which
// makes duplicate values visible in listings.
func Digest(encoded string) string {
	sum := blake3.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:])
}
