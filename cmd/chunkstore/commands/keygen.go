// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

type keygenParams struct {
	Output string `flag:"output,o" desc:"write the identity file here (mode 0600) instead of stdout"`
}

func keygenCommand(env *environment) *cli.Command {
	var params keygenParams
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age identity for sealed values",
		Description: `Generate an age x25519 identity. The output is an identity file
usable as codec.identity_file; its "public key" comment line is the
recipient to list under codec.recipients.`,
		Usage: "chunkstore keygen [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("keygen", &params)
		},
		Examples: []cli.Example{
			{Description: "Create an identity file", Command: "chunkstore keygen -o ~/.config/chunkstore/identity.txt"},
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("keygen takes no arguments")
			}
			secretKey, recipient, err := valuecodec.GenerateIdentity()
			if err != nil {
				return err
			}

			if params.Output == "" {
				return writeIdentity(env.streams.Stdout, secretKey, recipient)
			}
			file, err := os.OpenFile(params.Output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return err
			}
			if err := writeIdentity(file, secretKey, recipient); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(env.streams.Stderr, "Public key: %s\n", recipient)
			return nil
		},
	}
}

func writeIdentity(w io.Writer, secretKey, recipient string) error {
	_, err := fmt.Fprintf(w, "# public key: %s\n%s\n", recipient, secretKey)
	return err
}
