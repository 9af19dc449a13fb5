// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
)

type countParams struct {
	storeOptions
	cli.JSONOutput
}

func lengthCommand(env *environment) *cli.Command {
	var params countParams
	return &cli.Command{
		Name:    "len",
		Summary: "Print the number of keys",
		Usage:   "chunkstore len [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("len", &params)
		},
		Run: func(args []string) error {
			return params.withStore(env, func(store *openedStore) error {
				length, err := store.Length(env.ctx)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.streams.Stdout, length); done {
					return err
				}
				fmt.Fprintln(env.streams.Stdout, length)
				return nil
			})
		},
	}
}

func keyCommand(env *environment) *cli.Command {
	var params countParams
	return &cli.Command{
		Name:    "key",
		Summary: "Print the key at a position",
		Description: `Print the N-th key (zero-based) in storage order. Storage order is
the order keys were first written; rewriting a key moves it to the end.
Exits with status 1 when N is out of range.`,
		Usage: "chunkstore key N [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("key", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: chunkstore key N")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("position %q is not an integer", args[0])
			}
			return params.withStore(env, func(store *openedStore) error {
				key, ok, err := store.Key(env.ctx, n)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(env.streams.Stderr, "no key at position %d\n", n)
					return &cli.ExitError{Code: 1}
				}
				if done, err := params.EmitJSON(env.streams.Stdout, key); done {
					return err
				}
				fmt.Fprintln(env.streams.Stdout, key)
				return nil
			})
		},
	}
}

func keysCommand(env *environment) *cli.Command {
	var params countParams
	return &cli.Command{
		Name:    "keys",
		Summary: "Print every key in storage order",
		Usage:   "chunkstore keys [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("keys", &params)
		},
		Run: func(args []string) error {
			return params.withStore(env, func(store *openedStore) error {
				keys, err := store.Keys(env.ctx)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.streams.Stdout, keys); done {
					return err
				}
				for _, key := range keys {
					fmt.Fprintln(env.streams.Stdout, key)
				}
				return nil
			})
		},
	}
}

// listEntry is the --json form of one ls row.
type listEntry struct {
	Key         string `json:"key"`
	Kind        string `json:"kind"`
	Size        int    `json:"size"`
	EncodedSize int    `json:"encoded_size"`
	Rows        int    `json:"rows"`
	Digest      string `json:"digest"`
}

func listCommand(env *environment) *cli.Command {
	var params countParams
	return &cli.Command{
		Name:    "ls",
		Summary: "Describe every key",
		Description: `List every key in storage order with its kind, decoded size, stored
size, row count and the BLAKE3 digest of its stored text. Values are
not materialized, but each key's rows are read and decoded.`,
		Usage: "chunkstore ls [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("ls", &params)
		},
		Run: func(args []string) error {
			return params.withStore(env, func(store *openedStore) error {
				entries, err := store.Entries(env.ctx)
				if err != nil {
					return err
				}

				rows := make([]listEntry, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, listEntry{
						Key:         entry.Key,
						Kind:        entry.Kind.String(),
						Size:        entry.Size,
						EncodedSize: entry.EncodedSize,
						Rows:        entry.Rows,
						Digest:      entry.Digest,
					})
				}
				if done, err := params.EmitJSON(env.streams.Stdout, rows); done {
					return err
				}

				writer := tabwriter.NewWriter(env.streams.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintf(writer, "KEY\tKIND\tSIZE\tSTORED\tROWS\tDIGEST\n")
				for _, row := range rows {
					fmt.Fprintf(writer, "%s\t%s\t%d\t%d\t%d\t%s\n",
						row.Key, row.Kind, row.Size, row.EncodedSize, row.Rows, shortDigest(row.Digest))
				}
				return writer.Flush()
			})
		},
	}
}

// shortDigest trims a digest for the table view; --json carries the
// full value.
func shortDigest(digest string) string {
	if len(digest) > 16 {
		return digest[:16]
	}
	return digest
}
