// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package valuecodec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// envelopeMarker prefixes an envelope-format value. The version digit
// changes if the envelope layout ever does.
const envelopeMarker = "__cse1:"

// envelope is the tagged union written by FormatEnvelope. Integer keys
// keep it compact; the byte string is length-prefixed by CBOR itself.
type envelope struct {
	Kind        Kind           `cbor:"1,keyasint"`
	Compression CompressionTag `cbor:"2,keyasint,omitempty"`
	Size        int            `cbor:"3,keyasint"`
	Sealed      bool           `cbor:"4,keyasint,omitempty"`
	Data        []byte         `cbor:"5,keyasint"`
}

// Core Deterministic Encoding: same value, same bytes. Stored text is
// then stable across writes, which keeps digests meaningful.
var (
	envelopeEncMode cbor.EncMode
	envelopeDecMode cbor.DecMode
)

func init() {
	var err error
	envelopeEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("valuecodec: CBOR encoder initialization failed: " + err.Error())
	}
	envelopeDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("valuecodec: CBOR decoder initialization failed: " + err.Error())
	}
}

func (c *Codec) encodeEnvelope(bin Binary) (string, error) {
	if len(bin.Data) > MaxEnvelopeSize {
		return "", fmt.Errorf("payload of %d bytes exceeds the %d-byte envelope limit", len(bin.Data), MaxEnvelopeSize)
	}
	wrapped := envelope{Kind: bin.Kind, Size: len(bin.Data)}

	payload := bin.Data
	if c.options.Compression != CompressionNone && len(payload) >= c.options.CompressMinBytes {
		compressed, tag, err := compress(payload, c.options.Compression)
		if err != nil {
			return "", err
		}
		payload = compressed
		wrapped.Compression = tag
	}

	if len(c.options.Recipients) > 0 {
		sealed, err := seal(payload, c.options.Recipients)
		if err != nil {
			return "", err
		}
		payload = sealed
		wrapped.Sealed = true
	}

	wrapped.Data = payload
	encoded, err := envelopeEncMode.Marshal(wrapped)
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %w", err)
	}
	return envelopeMarker + encodeBase64(encoded), nil
}

func (c *Codec) decodeEnvelope(payload string) (Kind, []byte, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return 0, nil, &DecodeError{Tag: "envelope", Err: err}
	}

	var wrapped envelope
	if err := envelopeDecMode.Unmarshal(raw, &wrapped); err != nil {
		return 0, nil, &DecodeError{Tag: "envelope", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if wrapped.Kind != KindJSON && !wrapped.Kind.valid() {
		return 0, nil, &DecodeError{Tag: wrapped.Kind.String(), Err: ErrUnknownKind}
	}

	data := wrapped.Data
	if wrapped.Sealed {
		data, err = unseal(data, c.options.Identities)
		if err != nil {
			return 0, nil, &DecodeError{Tag: wrapped.Kind.String(), Err: err}
		}
	}
	if err := checkEnvelopeSize(wrapped.Compression, wrapped.Size, len(data)); err != nil {
		return 0, nil, &DecodeError{Tag: wrapped.Kind.String(), Err: err}
	}
	data, err = decompress(data, wrapped.Compression, wrapped.Size)
	if err != nil {
		return 0, nil, &DecodeError{Tag: wrapped.Kind.String(), Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return wrapped.Kind, data, nil
}

// MaxEnvelopeSize is the largest payload an envelope may carry or
// declare. Encode refuses larger values; Decode treats a larger Size
// as corruption.
const MaxEnvelopeSize = 1 << 30

// lz4BlockRatio is the LZ4 block format's maximum expansion: one
// literal-run byte can describe at most 255 output bytes.
const lz4BlockRatio = 255

// checkEnvelopeSize rejects a declared Size no payload of
// compressedLength bytes could decode to.
func checkEnvelopeSize(tag CompressionTag, size, compressedLength int) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrMalformed, size)
	}
	if size > MaxEnvelopeSize {
		return fmt.Errorf("%w: size %d exceeds the %d-byte limit", ErrMalformed, size, MaxEnvelopeSize)
	}
	if tag == CompressionLZ4 && size > compressedLength*lz4BlockRatio+16 {
		return fmt.Errorf("%w: size %d is unreachable from %d lz4 bytes", ErrMalformed, size, compressedLength)
	}
	return nil
}
