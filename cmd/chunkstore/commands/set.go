// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

type setParams struct {
	storeOptions
	File   string `flag:"file,f" desc:"read the value from a file (- for stdin)"`
	Kind   string `flag:"kind,k" desc:"value kind: json, or a binary tag (arbf, blob, ui08, si16, fl64, ...)" default:"json"`
	String bool   `flag:"string,s" desc:"store the input text as a JSON string"`
}

func setCommand(env *environment) *cli.Command {
	var params setParams
	return &cli.Command{
		Name:    "set",
		Summary: "Store a value under a key",
		Description: `Store a value under KEY, replacing any previous value.

The value comes from the VALUE argument or from --file. With the default
--kind json the input is parsed as JSON; comments and trailing commas
are accepted. --string stores the input verbatim as a JSON string.

A binary --kind stores bytes with that type tag: VALUE is read as
base64, while --file contributes its raw bytes. The byte count must be
a multiple of the kind's element width (2 for si16, 8 for fl64).`,
		Usage: "chunkstore set KEY [VALUE] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("set", &params)
		},
		Examples: []cli.Example{
			{Description: "Store a JSON object", Command: `chunkstore set --db ./values.db user '{"name": "ada", "tags": ["x"],}'`},
			{Description: "Store three bytes as a Uint8Array", Command: "chunkstore set --db ./values.db --kind ui08 bytes AQID"},
			{Description: "Store standard input as a blob", Command: "tar c . | chunkstore set --db ./values.db --kind blob --file - backup"},
		},
		Run: func(args []string) error {
			key, text, hasText, err := setArguments(args, params.File)
			if err != nil {
				return err
			}
			kind, err := valuecodec.ParseKind(params.Kind)
			if err != nil {
				return err
			}
			if params.String && kind != valuecodec.KindJSON {
				return fmt.Errorf("--string cannot be combined with --kind %s", kind)
			}

			return params.withStore(env, func(store *openedStore) error {
				value, closeInput, err := buildValue(env, &params, kind, text, hasText)
				if err != nil {
					return err
				}
				defer closeInput()
				if err := store.Set(env.ctx, key, value); err != nil {
					return err
				}
				store.logger.Info("stored", "key", key, "kind", kind.String())
				return nil
			})
		},
	}
}

// setArguments splits the positional arguments into the key and the
// inline value. Exactly one of VALUE and --file must supply the value.
func setArguments(args []string, file string) (key, text string, hasText bool, err error) {
	switch len(args) {
	case 1:
		if file == "" {
			return "", "", false, fmt.Errorf("usage: chunkstore set KEY VALUE, or chunkstore set KEY --file PATH")
		}
		return args[0], "", false, nil
	case 2:
		if file != "" {
			return "", "", false, fmt.Errorf("pass either VALUE or --file, not both")
		}
		return args[0], args[1], true, nil
	default:
		return "", "", false, fmt.Errorf("usage: chunkstore set KEY [VALUE] [flags]")
	}
}

// openInput opens --file, treating "-" as stdin. The returned close
// function is always non-nil.
func openInput(env *environment, path string) (io.Reader, func(), error) {
	if path == "-" {
		return env.streams.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// buildValue turns the input into the value handed to Set. A blob read
// from --file is passed as a lazy valuecodec.Blob so the store reads it
// under the command's context.
func buildValue(env *environment, params *setParams, kind valuecodec.Kind, text string, hasText bool) (any, func(), error) {
	noop := func() {}

	if !hasText {
		reader, closeInput, err := openInput(env, params.File)
		if err != nil {
			return nil, noop, err
		}
		if kind == valuecodec.KindBlob {
			return valuecodec.NewBlob(reader), closeInput, nil
		}
		defer closeInput()
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, noop, fmt.Errorf("reading %s: %w", params.File, err)
		}
		if kind != valuecodec.KindJSON {
			value, err := binaryValue(kind, data)
			return value, noop, err
		}
		text = string(data)
	} else if kind != valuecodec.KindJSON {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, noop, fmt.Errorf("decoding %s value as base64: %w", kind, err)
		}
		value, err := binaryValue(kind, data)
		return value, noop, err
	}

	if params.String {
		return text, noop, nil
	}
	var value any
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &value); err != nil {
		return nil, noop, fmt.Errorf("parsing value as JSON (use --string to store text): %w", err)
	}
	return value, noop, nil
}

func binaryValue(kind valuecodec.Kind, data []byte) (valuecodec.Binary, error) {
	if size := kind.ElementSize(); len(data)%size != 0 {
		return valuecodec.Binary{}, fmt.Errorf("%d bytes is not a whole number of %d-byte %s elements", len(data), size, kind)
	}
	return valuecodec.Binary{Kind: kind, Data: data}, nil
}
