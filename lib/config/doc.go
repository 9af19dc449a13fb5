// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads chunkstore's YAML configuration.
//
// Configuration comes from a single file named by either the
// CHUNKSTORE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no search path and no ~/.config
// discovery; environment variables never override values in the file.
//
// Path fields (database.path, codec.identity_file) support ${HOME} and
// ${VAR:-default} expansion after loading.
//
//	database:
//	  path: ${HOME}/.cache/chunkstore/values.db
//	  table: keyvaluepairs
//	  pool_size: 4
//	chunking:
//	  max_bytes: 262144
//	codec:
//	  format: envelope
//	  compression: zstd
//	  compress_min_bytes: 1024
//	  recipients: [age1...]
//	  identity_file: ${HOME}/.config/chunkstore/identity.txt
//
// [Config.CodecOptions] turns the codec section into
// valuecodec.Options, reading the identity file if one is configured.
package config
