// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package valuecodec

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
)

// Kind identifies the shape of a stored value. The numeric values are
// written into envelopes and are protocol constants: changing them
// breaks every stored envelope.
type Kind uint8

const (
	// KindJSON is a structured value stored as JSON text. It has no
	// legacy tag; the legacy format stores JSON unprefixed.
	KindJSON Kind = 0

	KindArrayBuffer  Kind = 1
	KindBlob         Kind = 2
	KindInt8         Kind = 3
	KindUint8        Kind = 4
	KindUint8Clamped Kind = 5
	KindInt16        Kind = 6
	KindUint16       Kind = 7
	KindInt32        Kind = 8
	KindUint32       Kind = 9
	KindFloat32      Kind = 10
	KindFloat64      Kind = 11
)

// kindTags maps binary kinds to their legacy 4-character tags.
var kindTags = map[Kind]string{
	KindArrayBuffer:  "arbf",
	KindBlob:         "blob",
	KindInt8:         "si08",
	KindUint8:        "ui08",
	KindUint8Clamped: "uic8",
	KindInt16:        "si16",
	KindUint16:       "ur16",
	KindInt32:        "si32",
	KindUint32:       "ui32",
	KindFloat32:      "fl32",
	KindFloat64:      "fl64",
}

var tagKinds = func() map[string]Kind {
	result := make(map[string]Kind, len(kindTags))
	for kind, tag := range kindTags {
		result[tag] = kind
	}
	return result
}()

// Tag returns the legacy 4-character type tag, or "" for KindJSON and
// unknown kinds.
func (k Kind) Tag() string { return kindTags[k] }

// String returns the tag for binary kinds and "json" for KindJSON.
func (k Kind) String() string {
	if k == KindJSON {
		return "json"
	}
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ElementSize returns the byte width of one element: 1 for byte-like
// kinds, 2/4/8 for wider typed arrays.
func (k Kind) ElementSize() int {
	switch k {
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindFloat64:
		return 8
	default:
		return 1
	}
}

func (k Kind) valid() bool {
	_, ok := kindTags[k]
	return ok
}

// ParseKind maps a tag ("ui08", "fl64", ...) or "json" to a Kind.
func ParseKind(name string) (Kind, error) {
	if name == "json" {
		return KindJSON, nil
	}
	if kind, ok := tagKinds[name]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTag, name)
}

// Uint8Array is a byte sequence stored with the unsigned-8 typed array
// tag. Plain []byte is stored as a raw buffer instead.
type Uint8Array []byte

// Uint8ClampedArray is a byte sequence stored with the clamped
// unsigned-8 typed array tag.
type Uint8ClampedArray []byte

// Binary is the generic tagged form of any binary value: a kind plus
// the raw little-endian bytes of its elements.
type Binary struct {
	Kind Kind
	Data []byte
}

// Blob is a lazily materialized byte stream. A Blob built from a
// reader is read to EOF the first time its bytes are needed; later
// calls return the same bytes.
type Blob struct {
	mu     sync.Mutex
	reader io.Reader
	data   []byte
	loaded bool
}

// NewBlob wraps a reader. The reader is consumed on first
// materialization.
func NewBlob(reader io.Reader) *Blob {
	return &Blob{reader: reader}
}

// BlobOf returns an already materialized Blob holding data.
func BlobOf(data []byte) *Blob {
	return &Blob{data: data, loaded: true}
}

// blobReadSize is the read granularity while materializing a blob;
// cancellation is checked between reads.
const blobReadSize = 64 * 1024

// Bytes materializes the blob. Reading stops with ctx.Err() if the
// context is cancelled between reads.
func (b *Blob) Bytes(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded {
		return b.data, nil
	}
	if b.reader == nil {
		b.loaded = true
		return b.data, nil
	}

	var data []byte
	buffer := make([]byte, blobReadSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := b.reader.Read(buffer)
		data = append(data, buffer[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading blob: %w", err)
		}
	}

	if closer, ok := b.reader.(io.Closer); ok {
		closer.Close()
	}
	b.reader = nil
	b.data = data
	b.loaded = true
	return data, nil
}

// binaryOf classifies value. ok is false for values that are not
// binary (those go through JSON). A Blob or reader is materialized.
func binaryOf(ctx context.Context, value any) (Binary, bool, error) {
	switch v := value.(type) {
	case Binary:
		if !v.Kind.valid() {
			return Binary{}, true, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(v.Kind))
		}
		return v, true, nil
	case *Binary:
		if v == nil {
			return Binary{}, true, fmt.Errorf("%w: nil *Binary", ErrUnsupportedValue)
		}
		return binaryOf(ctx, *v)
	case []byte:
		return Binary{Kind: KindArrayBuffer, Data: v}, true, nil
	case Uint8Array:
		return Binary{Kind: KindUint8, Data: v}, true, nil
	case Uint8ClampedArray:
		return Binary{Kind: KindUint8Clamped, Data: v}, true, nil
	case []int8:
		data := make([]byte, len(v))
		for i, element := range v {
			data[i] = byte(element)
		}
		return Binary{Kind: KindInt8, Data: data}, true, nil
	case []int16:
		return Binary{Kind: KindInt16, Data: packUint16(len(v), func(i int) uint16 { return uint16(v[i]) })}, true, nil
	case []uint16:
		return Binary{Kind: KindUint16, Data: packUint16(len(v), func(i int) uint16 { return v[i] })}, true, nil
	case []int32:
		return Binary{Kind: KindInt32, Data: packUint32(len(v), func(i int) uint32 { return uint32(v[i]) })}, true, nil
	case []uint32:
		return Binary{Kind: KindUint32, Data: packUint32(len(v), func(i int) uint32 { return v[i] })}, true, nil
	case []float32:
		return Binary{Kind: KindFloat32, Data: packUint32(len(v), func(i int) uint32 { return math.Float32bits(v[i]) })}, true, nil
	case []float64:
		data := make([]byte, 8*len(v))
		for i, element := range v {
			binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(element))
		}
		return Binary{Kind: KindFloat64, Data: data}, true, nil
	case *Blob:
		if v == nil {
			return Binary{}, true, fmt.Errorf("%w: nil *Blob", ErrUnsupportedValue)
		}
		data, err := v.Bytes(ctx)
		if err != nil {
			return Binary{}, true, err
		}
		return Binary{Kind: KindBlob, Data: data}, true, nil
	case io.Reader:
		data, err := NewBlob(v).Bytes(ctx)
		if err != nil {
			return Binary{}, true, err
		}
		return Binary{Kind: KindBlob, Data: data}, true, nil
	}
	return Binary{}, false, nil
}

func packUint16(count int, element func(int) uint16) []byte {
	data := make([]byte, 2*count)
	for i := range count {
		binary.LittleEndian.PutUint16(data[2*i:], element(i))
	}
	return data
}

func packUint32(count int, element func(int) uint32) []byte {
	data := make([]byte, 4*count)
	for i := range count {
		binary.LittleEndian.PutUint32(data[4*i:], element(i))
	}
	return data
}

// materialize builds the Go value a Binary decodes to. data is owned
// by the result.
func materialize(kind Kind, data []byte) (any, error) {
	if size := kind.ElementSize(); len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte %s element",
			ErrMalformed, len(data), size, kind)
	}

	switch kind {
	case KindArrayBuffer:
		return data, nil
	case KindBlob:
		return BlobOf(data), nil
	case KindUint8:
		return Uint8Array(data), nil
	case KindUint8Clamped:
		return Uint8ClampedArray(data), nil
	case KindInt8:
		result := make([]int8, len(data))
		for i, b := range data {
			result[i] = int8(b)
		}
		return result, nil
	case KindInt16:
		result := make([]int16, len(data)/2)
		for i := range result {
			result[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
		}
		return result, nil
	case KindUint16:
		result := make([]uint16, len(data)/2)
		for i := range result {
			result[i] = binary.LittleEndian.Uint16(data[2*i:])
		}
		return result, nil
	case KindInt32:
		result := make([]int32, len(data)/4)
		for i := range result {
			result[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return result, nil
	case KindUint32:
		result := make([]uint32, len(data)/4)
		for i := range result {
			result[i] = binary.LittleEndian.Uint32(data[4*i:])
		}
		return result, nil
	case KindFloat32:
		result := make([]float32, len(data)/4)
		for i := range result {
			result[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return result, nil
	case KindFloat64:
		result := make([]float64, len(data)/8)
		for i := range result {
			result[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
}

// AsBinary converts a decoded binary value back to its generic tagged
// form. ok is false for JSON values. Blobs must already be
// materialized (as decoded blobs always are); an unread reader-backed
// blob reports ok=false.
func AsBinary(value any) (Binary, bool) {
	if blob, isBlob := value.(*Blob); isBlob {
		if blob == nil {
			return Binary{}, false
		}
		blob.mu.Lock()
		defer blob.mu.Unlock()
		if !blob.loaded {
			return Binary{}, false
		}
		return Binary{Kind: KindBlob, Data: blob.data}, true
	}
	if _, isReader := value.(io.Reader); isReader {
		return Binary{}, false
	}
	result, ok, err := binaryOf(context.Background(), value)
	if err != nil || !ok {
		return Binary{}, false
	}
	return result, true
}
