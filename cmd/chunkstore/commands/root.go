// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
	"github.com/mcdit/chunkstore/lib/version"
)

// Streams are the standard streams commands read from and write to.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// environment is what every command closes over: the process context
// and its streams.
type environment struct {
	ctx     context.Context
	streams Streams
}

// Root builds the complete chunkstore command tree. ctx bounds every
// store operation a command performs.
func Root(ctx context.Context, streams Streams) *cli.Command {
	env := &environment{ctx: ctx, streams: streams}
	return &cli.Command{
		Name: "chunkstore",
		Description: `chunkstore: a chunked key-value store in SQLite.

Values are encoded to text, split into segments of at most 256 KiB, and
stored as ordered rows of one table. Every command that opens the store
takes --config (or $CHUNKSTORE_CONFIG) or --db to locate the database.`,
		HelpOutput: streams.Stderr,
		Subcommands: []*cli.Command{
			getCommand(env),
			setCommand(env),
			removeCommand(env),
			clearCommand(env),
			lengthCommand(env),
			keyCommand(env),
			keysCommand(env),
			listCommand(env),
			keygenCommand(env),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(streams.Stdout, "chunkstore %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Store a JSON value",
				Command:     `chunkstore set --db ./values.db settings '{"theme": "dark"}'`,
			},
			{
				Description: "Store a file as a blob",
				Command:     "chunkstore set --db ./values.db --kind blob --file ./photo.jpg photo",
			},
			{
				Description: "Show every key with its kind, size and row count",
				Command:     "chunkstore ls --db ./values.db",
			},
		},
	}
}
