// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
)

// Root returns the bugdesk command tree writing results to stdout.
func Root() *cli.Command {
	return newRoot(os.Stdout)
}

func newRoot(out io.Writer) *cli.Command {
	var params configParams

	return &cli.Command{
		Name:    "bugdesk",
		Summary: "Terminal client for the bug tracker",
		Description: `bugdesk is a terminal client for the bug tracker.

Run without a command to open the full-screen interface: sign in, browse
and filter bugs, report new ones, manage projects and edit your profile.
The subcommands cover the same session and data from scripts.

Configuration is read from --config, $BUGDESK_CONFIG, or
~/.config/bugdesk/config.yaml (absent means defaults). The session token
is kept in ~/.config/bugdesk/session.json with mode 0600.`,
		Usage: "bugdesk [command] [flags]",
		Examples: []cli.Example{
			{Description: "Open the interface", Command: "bugdesk"},
			{Description: "Open the bug list searching for a phrase", Command: `bugdesk open --search "login page"`},
			{Description: "List open bugs as JSON", Command: "bugdesk bugs list --status open --json"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("bugdesk", &params)
		},
		Subcommands: []*cli.Command{
			openCommand(out),
			loginCommand(out),
			logoutCommand(out),
			whoamiCommand(out),
			bugsCommand(out),
			projectsCommand(out),
			versionCommand(out),
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runInterface(&params)
		},
	}
}
