// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
	"github.com/mcdit/chunkstore/lib/kvstore"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

type getParams struct {
	storeOptions
	cli.JSONOutput
	Raw bool `flag:"raw" desc:"write binary values as raw bytes instead of base64"`
}

// jsonGetResult is the --json form of a JSON value. Value is always
// present, so a stored null shows as "value": null.
type jsonGetResult struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// binaryGetResult is the --json form of a binary value.
type binaryGetResult struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Base64 string `json:"base64"`
}

func getCommand(env *environment) *cli.Command {
	var params getParams
	return &cli.Command{
		Name:    "get",
		Summary: "Print the value stored under a key",
		Description: `Print the value stored under KEY.

JSON values are printed as indented JSON. Binary values are printed as
base64, or as raw bytes with --raw. A missing key prints nothing to
stdout and exits with status 1.`,
		Usage: "chunkstore get KEY [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("get", &params)
		},
		Examples: []cli.Example{
			{Description: "Extract a stored blob to a file", Command: "chunkstore get --db ./values.db --raw photo > photo.jpg"},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: chunkstore get KEY")
			}
			key := args[0]

			return params.withStore(env, func(store *openedStore) error {
				value, err := store.Get(env.ctx, key)
				if errors.Is(err, kvstore.ErrNotFound) {
					fmt.Fprintf(env.streams.Stderr, "%s: not found\n", key)
					return &cli.ExitError{Code: 1}
				}
				if err != nil {
					return err
				}
				return writeValue(env, &params, key, value)
			})
		},
	}
}

func writeValue(env *environment, params *getParams, key string, value any) error {
	stdout := env.streams.Stdout
	bin, isBinary := valuecodec.AsBinary(value)

	if params.OutputJSON {
		if isBinary {
			return cli.WriteJSON(stdout, binaryGetResult{
				Key:    key,
				Kind:   bin.Kind.String(),
				Base64: base64.StdEncoding.EncodeToString(bin.Data),
			})
		}
		return cli.WriteJSON(stdout, jsonGetResult{Key: key, Kind: valuecodec.KindJSON.String(), Value: value})
	}

	if !isBinary {
		return cli.WriteJSON(stdout, value)
	}
	if params.Raw {
		_, err := stdout.Write(bin.Data)
		return err
	}
	_, err := fmt.Fprintln(stdout, base64.StdEncoding.EncodeToString(bin.Data))
	return err
}
