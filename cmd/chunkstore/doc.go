// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Chunkstore is the command-line interface to a chunked key-value
// store in SQLite. It reads, writes and inspects the same table the
// kvstore library uses, so values written by an application can be
// examined and repaired from a shell.
//
// Usage:
//
//	chunkstore <command> [flags]
//
// Run "chunkstore --help" for the command list.
package main
