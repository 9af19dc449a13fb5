// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kvstore is an asynchronous-style key-value store whose
// values are arbitrary JSON-able or binary data, persisted through a
// text-cell row store.
//
// A [Store] encodes each value to text with a [valuecodec.Codec],
// splits the text into segments no larger than the configured chunk
// size, and writes them as one generation through [segstore.Store].
// Reads reassemble and decode. Length, Keys and Key count logical
// keys, never physical rows.
//
// Every method takes a context and blocks until the backend round
// trips it needs have completed. [Callbacks] exposes the same
// operations with completion callbacks and loosely typed keys for
// callers ported from callback-style storage APIs.
//
// Concurrency: operations on different keys are independent. A Get
// racing a Set of the same key may see the key missing or a partially
// written new generation (reported as a decode error); callers that
// need atomic replacement must serialize their own access per key.
package kvstore
