// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the chunkstore
// binary.
//
// The central type is [Command]: a named command with optional nested
// [Command.Subcommands], a pflag.FlagSet factory, and a Run function.
// [Command.Execute] handles flag parsing, subcommand routing, and help
// output with examples.
//
// Parameter structs declare flags with struct tags (see [BindFlags])
// and embed [JSONOutput] for --json support. An unknown command or
// flag gets a "did you mean" suggestion when one is within Levenshtein
// distance 3.
//
// [NewCommandLogger] builds the slog logger commands run with:
// colorized tint output on a terminal, JSON otherwise. [Highlight]
// colors JSON written to a terminal.
package cli
