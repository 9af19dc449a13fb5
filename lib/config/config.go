// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mcdit/chunkstore/lib/chunk"
	"github.com/mcdit/chunkstore/lib/secret"
	"github.com/mcdit/chunkstore/lib/segstore"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "CHUNKSTORE_CONFIG"

// Config is the complete chunkstore configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Codec    CodecConfig    `yaml:"codec"`
}

// DatabaseConfig locates the SQLite database and its segment table.
type DatabaseConfig struct {
	// Path is the SQLite database file.
	// Default: ${HOME}/.cache/chunkstore/values.db
	Path string `yaml:"path"`

	// Table is the segment table name.
	// Default: keyvaluepairs
	Table string `yaml:"table"`

	// PoolSize is the number of SQLite connections. Zero picks a
	// default from the CPU count.
	PoolSize int `yaml:"pool_size"`
}

// ChunkingConfig controls how encoded values are split into rows.
type ChunkingConfig struct {
	// MaxBytes is the largest segment in bytes.
	// Default: 262144 (256 KiB)
	MaxBytes int `yaml:"max_bytes"`
}

// CodecConfig selects the value encoding for writes. Reads accept
// both formats regardless.
type CodecConfig struct {
	// Format is "legacy" (marker-tagged base64, the value encoding of
	// older drivers; their per-row layout differs) or "envelope".
	// Default: legacy
	Format string `yaml:"format"`

	// Compression is "none", "lz4" or "zstd". Envelope only.
	Compression string `yaml:"compression"`

	// CompressMinBytes is the smallest payload worth compressing.
	CompressMinBytes int `yaml:"compress_min_bytes"`

	// Recipients are age public keys; when set, envelope payloads are
	// sealed to them.
	Recipients []string `yaml:"recipients"`

	// IdentityFile holds age secret keys used to open sealed
	// envelopes.
	IdentityFile string `yaml:"identity_file"`
}

// Default returns the configuration used as the base before a file is
// loaded over it.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Path:  filepath.Join(homeDirectory, ".cache", "chunkstore", "values.db"),
			Table: segstore.DefaultTable,
		},
		Chunking: ChunkingConfig{
			MaxBytes: chunk.DefaultMaxBytes,
		},
		Codec: CodecConfig{
			Format:      string(valuecodec.FormatLegacy),
			Compression: valuecodec.CompressionNone.String(),
		},
	}
}

// Load loads configuration from the file named by CHUNKSTORE_CONFIG.
// It fails when the variable is unset; there is no fallback location.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your chunkstore.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over Default, then expands
// variables in path fields. The result is not validated; call
// Validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Database.Path = expandVars(c.Database.Path, vars)
	c.Codec.IdentityFile = expandVars(c.Codec.IdentityFile, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if err := segstore.ValidateTable(c.Database.Table); err != nil {
		errs = append(errs, fmt.Errorf("database.table: %w", err))
	}
	if c.Database.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("database.pool_size must not be negative"))
	}

	if c.Chunking.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("chunking.max_bytes must be positive, got %d", c.Chunking.MaxBytes))
	}

	format := valuecodec.Format(c.Codec.Format)
	if format != valuecodec.FormatLegacy && format != valuecodec.FormatEnvelope {
		errs = append(errs, fmt.Errorf("codec.format must be %q or %q, got %q",
			valuecodec.FormatLegacy, valuecodec.FormatEnvelope, c.Codec.Format))
	}
	compression, err := valuecodec.ParseCompressionTag(c.Codec.Compression)
	if err != nil {
		errs = append(errs, fmt.Errorf("codec.compression: %w", err))
	}
	if c.Codec.CompressMinBytes < 0 {
		errs = append(errs, fmt.Errorf("codec.compress_min_bytes must not be negative"))
	}
	if format == valuecodec.FormatLegacy {
		if err == nil && compression != valuecodec.CompressionNone {
			errs = append(errs, fmt.Errorf("codec.compression requires codec.format %q", valuecodec.FormatEnvelope))
		}
		if len(c.Codec.Recipients) > 0 {
			errs = append(errs, fmt.Errorf("codec.recipients requires codec.format %q", valuecodec.FormatEnvelope))
		}
	}
	if _, err := valuecodec.ParseRecipients(c.Codec.Recipients); err != nil {
		errs = append(errs, fmt.Errorf("codec.recipients: %w", err))
	}

	return errors.Join(errs...)
}

// CodecOptions converts the codec section into valuecodec.Options,
// reading identities from IdentityFile when it is set. The file is
// read into locked memory that is released once parsed.
func (c *Config) CodecOptions() (valuecodec.Options, error) {
	compression, err := valuecodec.ParseCompressionTag(c.Codec.Compression)
	if err != nil {
		return valuecodec.Options{}, fmt.Errorf("config: codec.compression: %w", err)
	}
	recipients, err := valuecodec.ParseRecipients(c.Codec.Recipients)
	if err != nil {
		return valuecodec.Options{}, fmt.Errorf("config: codec.recipients: %w", err)
	}

	options := valuecodec.Options{
		Format:           valuecodec.Format(c.Codec.Format),
		Compression:      compression,
		CompressMinBytes: c.Codec.CompressMinBytes,
		Recipients:       recipients,
	}

	if c.Codec.IdentityFile != "" {
		keys, err := secret.ReadFile(c.Codec.IdentityFile)
		if err != nil {
			return valuecodec.Options{}, fmt.Errorf("config: codec.identity_file: %w", err)
		}
		defer keys.Close()
		identities, err := valuecodec.ParseIdentities(keys.Reader())
		if err != nil {
			return valuecodec.Options{}, fmt.Errorf("config: codec.identity_file %s: %w", c.Codec.IdentityFile, err)
		}
		options.Identities = identities
	}
	return options, nil
}

// EnsurePaths creates the database file's parent directory.
func (c *Config) EnsurePaths() error {
	directory := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", directory, err)
	}
	return nil
}
