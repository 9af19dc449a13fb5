// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the chunkstore binary.
//
// Values are injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/mcdit/chunkstore/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When nothing is injected, [Info] falls back to the module version
// and VCS settings recorded by the Go toolchain (debug.ReadBuildInfo).
package version
