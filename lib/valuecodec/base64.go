// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package valuecodec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// encodeBase64 packs every 3 bytes into 4 characters of the standard
// alphabet, padding the final group with "=" or "==".
func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// decodedLength returns the byte length a base64 payload decodes to:
// floor(len*0.75), less one for each trailing "=".
func decodedLength(payload string) int {
	length := len(payload) * 3 / 4
	switch {
	case strings.HasSuffix(payload, "=="):
		length -= 2
	case strings.HasSuffix(payload, "="):
		length--
	}
	return max(length, 0)
}

// decodeBase64 accepts padded payloads and, when the length is not a
// multiple of 4, unpadded ones.
func decodeBase64(payload string) ([]byte, error) {
	encoding := base64.StdEncoding
	if len(payload)%4 != 0 {
		encoding = base64.RawStdEncoding
	}
	data := make([]byte, decodedLength(payload))
	written, err := encoding.Decode(data, []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if written != len(data) {
		return nil, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrMalformed, written, len(data))
	}
	return data, nil
}
