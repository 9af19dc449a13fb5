// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the chunkstore command tree. Every command
// that touches the store shares the --config, --db, --table and
// --verbose flags and opens the store through [storeOptions].
package commands
