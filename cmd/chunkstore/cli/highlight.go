// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/mattn/go-isatty"
)

// isTerminal is replaced in tests.
var isTerminal = func(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Highlight writes source to w, syntax highlighted as language when w
// is a terminal and verbatim otherwise. A highlighting failure falls
// back to the plain text.
func Highlight(w io.Writer, source, language string) error {
	if isTerminal(w) {
		if err := quick.Highlight(w, source, language, "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	_, err := io.WriteString(w, source)
	return err
}
