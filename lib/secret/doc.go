// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds key material outside the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM with mlock and
// excluded from core dumps with MADV_DONTDUMP. Close zeroes, unlocks
// and unmaps it. chunkstore reads age identity files through
// [ReadFile] so the secret keys never sit in a garbage-collected
// slice; the parsed identities live only as long as the codec that
// holds them.
//
// Depends on golang.org/x/sys/unix.
package secret
