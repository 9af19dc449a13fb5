// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package valuecodec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"filippo.io/age"
)

// Marker prefixes a legacy binary encoding. It is followed by a
// 4-character type tag and the base64 payload.
const Marker = "__lfsc__:"

const tagLength = 4

// Format selects how a Codec writes values. Decoding always accepts
// both formats.
type Format string

const (
	// FormatLegacy writes JSON unprefixed and binary values as
	// Marker + tag + base64, the value encoding older drivers use.
	// Only the encoded value matches; their rows quote each segment
	// as JSON and use different column names.
	FormatLegacy Format = "legacy"

	// FormatEnvelope writes every value as a CBOR tagged union,
	// optionally compressed and sealed.
	FormatEnvelope Format = "envelope"
)

// Options configures a Codec. The zero value is the legacy format with
// no compression or sealing.
type Options struct {
	// Format is the write format. Empty means FormatLegacy.
	Format Format

	// Compression is applied to envelope payloads of at least
	// CompressMinBytes bytes. Envelope format only.
	Compression CompressionTag

	// CompressMinBytes is the smallest payload worth compressing.
	// Zero compresses everything.
	CompressMinBytes int

	// Recipients, when non-empty, seal every envelope payload to these
	// age recipients. Envelope format only.
	Recipients []age.Recipient

	// Identities decrypt sealed envelopes on read.
	Identities []age.Identity
}

// Codec converts values to text and back.
type Codec struct {
	options Options
}

// New validates options and returns a Codec.
func New(options Options) (*Codec, error) {
	if options.Format == "" {
		options.Format = FormatLegacy
	}
	switch options.Format {
	case FormatLegacy:
		if options.Compression != CompressionNone {
			return nil, fmt.Errorf("valuecodec: compression requires the %s format", FormatEnvelope)
		}
		if len(options.Recipients) > 0 {
			return nil, fmt.Errorf("valuecodec: sealing requires the %s format", FormatEnvelope)
		}
	case FormatEnvelope:
		if _, err := ParseCompressionTag(options.Compression.String()); err != nil {
			return nil, fmt.Errorf("valuecodec: %w", err)
		}
	default:
		return nil, fmt.Errorf("valuecodec: unknown format %q", options.Format)
	}
	if options.CompressMinBytes < 0 {
		return nil, fmt.Errorf("valuecodec: CompressMinBytes must not be negative")
	}
	return &Codec{options: options}, nil
}

var defaultCodec = &Codec{options: Options{Format: FormatLegacy}}

// Default returns the legacy-format codec.
func Default() *Codec { return defaultCodec }

// Format returns the codec's write format.
func (c *Codec) Format() Format { return c.options.Format }

// Encode converts value to text. Binary values (byte slices, typed
// slices, Binary, Blob, io.Reader) are tagged; a Blob or reader is
// materialized first, honoring ctx. Everything else is JSON. Failures
// are *EncodeError.
func (c *Codec) Encode(ctx context.Context, value any) (string, error) {
	bin, isBinary, err := binaryOf(ctx, value)
	if err != nil {
		return "", encodeError(value, err)
	}

	if c.options.Format == FormatEnvelope {
		if !isBinary {
			data, err := marshalJSON(value)
			if err != nil {
				return "", encodeError(value, err)
			}
			bin = Binary{Kind: KindJSON, Data: data}
		}
		text, err := c.encodeEnvelope(bin)
		if err != nil {
			return "", encodeError(value, err)
		}
		return text, nil
	}

	if isBinary {
		return Marker + bin.Kind.Tag() + encodeBase64(bin.Data), nil
	}
	data, err := marshalJSON(value)
	if err != nil {
		return "", encodeError(value, err)
	}
	return string(data), nil
}

// Decode converts stored text back to a value. JSON decodes to the
// encoding/json generic types (map[string]any, []any, float64, string,
// bool, nil). Failures are *DecodeError.
func (c *Codec) Decode(text string) (any, error) {
	kind, data, err := c.decodeRaw(text)
	if err != nil {
		return nil, err
	}
	if kind == KindJSON {
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return value, nil
	}
	value, err := materialize(kind, data)
	if err != nil {
		return nil, &DecodeError{Tag: kind.String(), Err: err}
	}
	return value, nil
}

// DecodeInto decodes stored text into target. JSON values are
// unmarshaled into target directly; binary values are assigned when
// target points at the matching Go type (or at Binary / any).
func (c *Codec) DecodeInto(text string, target any) error {
	kind, data, err := c.decodeRaw(text)
	if err != nil {
		return err
	}
	if kind == KindJSON {
		if err := json.Unmarshal(data, target); err != nil {
			return &DecodeError{Err: err}
		}
		return nil
	}
	if binaryTarget, ok := target.(*Binary); ok {
		*binaryTarget = Binary{Kind: kind, Data: data}
		return nil
	}
	value, err := materialize(kind, data)
	if err != nil {
		return &DecodeError{Tag: kind.String(), Err: err}
	}
	if err := assign(target, value); err != nil {
		return &DecodeError{Tag: kind.String(), Err: err}
	}
	return nil
}

// Inspect reports the kind of stored text and the size of its decoded
// payload without materializing a value.
func (c *Codec) Inspect(text string) (Kind, int, error) {
	kind, data, err := c.decodeRaw(text)
	if err != nil {
		return 0, 0, err
	}
	return kind, len(data), nil
}

// decodeRaw recognizes either format and returns the kind and raw
// payload bytes (JSON text for KindJSON).
func (c *Codec) decodeRaw(text string) (Kind, []byte, error) {
	if strings.HasPrefix(text, envelopeMarker) {
		return c.decodeEnvelope(text[len(envelopeMarker):])
	}
	if !strings.HasPrefix(text, Marker) {
		return KindJSON, []byte(text), nil
	}

	rest := text[len(Marker):]
	if len(rest) < tagLength {
		return 0, nil, &DecodeError{Tag: rest, Err: fmt.Errorf("%w: truncated type tag", ErrMalformed)}
	}
	tag := rest[:tagLength]
	kind, ok := tagKinds[tag]
	if !ok {
		return 0, nil, &DecodeError{Tag: tag, Err: ErrUnknownTag}
	}
	data, err := decodeBase64(rest[tagLength:])
	if err != nil {
		return 0, nil, &DecodeError{Tag: tag, Err: err}
	}
	return kind, data, nil
}

// marshalJSON encodes like JSON.stringify: no HTML escaping, no
// trailing newline.
func marshalJSON(value any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		var unsupported *json.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
		}
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

func assign(target, value any) error {
	switch t := target.(type) {
	case *any:
		*t = value
		return nil
	case *[]byte:
		switch v := value.(type) {
		case []byte:
			*t = v
		case Uint8Array:
			*t = v
		case Uint8ClampedArray:
			*t = v
		case *Blob:
			*t = v.data
		default:
			return fmt.Errorf("cannot assign %T to *[]byte", value)
		}
		return nil
	case **Blob:
		if blob, ok := value.(*Blob); ok {
			*t = blob
			return nil
		}
	case *Uint8Array:
		if v, ok := value.(Uint8Array); ok {
			*t = v
			return nil
		}
	case *Uint8ClampedArray:
		if v, ok := value.(Uint8ClampedArray); ok {
			*t = v
			return nil
		}
	case *[]int8:
		if v, ok := value.([]int8); ok {
			*t = v
			return nil
		}
	case *[]int16:
		if v, ok := value.([]int16); ok {
			*t = v
			return nil
		}
	case *[]uint16:
		if v, ok := value.([]uint16); ok {
			*t = v
			return nil
		}
	case *[]int32:
		if v, ok := value.([]int32); ok {
			*t = v
			return nil
		}
	case *[]uint32:
		if v, ok := value.([]uint32); ok {
			*t = v
			return nil
		}
	case *[]float32:
		if v, ok := value.([]float32); ok {
			*t = v
			return nil
		}
	case *[]float64:
		if v, ok := value.([]float64); ok {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %T", value, target)
}

// Encode encodes value with the legacy-format codec.
func Encode(ctx context.Context, value any) (string, error) {
	return defaultCodec.Encode(ctx, value)
}

// Decode decodes text with the legacy-format codec. Envelopes decode
// too, provided they are not sealed.
func Decode(text string) (any, error) {
	return defaultCodec.Decode(text)
}
