// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// ErrEmpty is returned by ReadFile for a file with no content other
// than whitespace.
var ErrEmpty = errors.New("secret: file is empty")

// ReadFile reads path into a Buffer. The intermediate heap copy is
// zeroed before ReadFile returns. The caller must Close the result.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		zero(data)
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return FromBytes(data)
}
