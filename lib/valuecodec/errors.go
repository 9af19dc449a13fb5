// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package valuecodec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedValue indicates a value with no binary or JSON
	// representation.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrUnknownKind indicates a Binary with a kind outside the known
	// set, or an envelope carrying one.
	ErrUnknownKind = errors.New("unknown binary kind")

	// ErrUnknownTag indicates a marker-prefixed value whose 4-character
	// type tag is not recognized.
	ErrUnknownTag = errors.New("unknown type tag")

	// ErrMalformed indicates stored text that claims a binary encoding
	// but whose payload cannot be decoded.
	ErrMalformed = errors.New("malformed payload")

	// ErrSealedNoIdentity indicates a sealed envelope read by a codec
	// configured without any age identity.
	ErrSealedNoIdentity = errors.New("sealed value but no identity configured")
)

// EncodeError reports a value that could not be turned into text.
type EncodeError struct {
	// Type is the Go type of the rejected value.
	Type string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("valuecodec: cannot encode %s: %v", e.Type, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports stored text that could not be turned back into
// a value.
type DecodeError struct {
	// Tag is the type tag or envelope kind found in the text, empty
	// for plain JSON.
	Tag string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("valuecodec: cannot decode: %v", e.Err)
	}
	return fmt.Sprintf("valuecodec: cannot decode %q: %v", e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func encodeError(value any, err error) error {
	return &EncodeError{Type: fmt.Sprintf("%T", value), Err: err}
}
