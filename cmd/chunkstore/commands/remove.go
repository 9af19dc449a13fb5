// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
)

type removeParams struct {
	storeOptions
}

func removeCommand(env *environment) *cli.Command {
	var params removeParams
	return &cli.Command{
		Name:    "rm",
		Summary: "Remove keys",
		Description: `Remove every row of each KEY. Removing a key that does not exist is
not an error.`,
		Usage: "chunkstore rm KEY... [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("rm", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: chunkstore rm KEY...")
			}
			return params.withStore(env, func(store *openedStore) error {
				for _, key := range args {
					if err := store.Remove(env.ctx, key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

type clearParams struct {
	storeOptions
	Yes bool `flag:"yes,y" desc:"confirm removal of every key"`
}

func clearCommand(env *environment) *cli.Command {
	var params clearParams
	return &cli.Command{
		Name:        "clear",
		Summary:     "Remove every key",
		Description: "Delete every row of the segment table. Requires --yes.",
		Usage:       "chunkstore clear --yes [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("clear", &params)
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("clear takes no arguments")
			}
			if !params.Yes {
				return fmt.Errorf("refusing to remove every key without --yes")
			}
			return params.withStore(env, func(store *openedStore) error {
				return store.Clear(env.ctx)
			})
		},
	}
}
