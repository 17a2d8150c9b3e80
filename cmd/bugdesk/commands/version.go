// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
	"github.com/bureau-foundation/bugdesk/lib/version"
)

type versionParams struct {
	Short bool `flag:"short" desc:"print only the version number"`
}

func versionCommand(out io.Writer) *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(args []string) error {
			if params.Short {
				fmt.Fprintln(out, version.Short())
				return nil
			}
			fmt.Fprintln(out, "bugdesk "+version.Full())
			return nil
		},
	}
}
