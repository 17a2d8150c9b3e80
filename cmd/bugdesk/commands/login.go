// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
)

type loginParams struct {
	configParams
	PasswordFile string `flag:"password-file" desc:"read the password from this file, or - for stdin (default: prompt)"`
}

func loginCommand(out io.Writer) *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Sign in and save the session",
		Description: `Sign in with an email address and password and save the session.

The token is written to the session file (session.file in the config,
default ~/.config/bugdesk/session.json) with mode 0600, sealed with an age
identity when session.identity_file is set. The interface and the other
commands use it until "bugdesk logout" or until the server rejects it.`,
		Usage: "bugdesk login <email> [flags]",
		Examples: []cli.Example{
			{Description: "Sign in interactively", Command: "bugdesk login ada@example.com"},
			{Description: "Sign in from a script", Command: "bugdesk login ada@example.com --password-file - < password.txt"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("login", &params)
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return cli.Validation("email is required\n\nUsage: bugdesk login <email> [flags]")
			}
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			email := strings.TrimSpace(args[0])

			cfg, err := params.load()
			if err != nil {
				return err
			}
			password, err := cli.ReadPassword(params.PasswordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			stack, err := openStack(cfg, cli.NewCommandLogger(cfg.LogLevel()))
			if err != nil {
				return err
			}
			defer stack.Close()

			ctx, cancel := commandContext()
			defer cancel()
			user, err := stack.session.Login(ctx, email, password)
			if err != nil {
				return cli.FromTracker("login", err)
			}

			fmt.Fprintf(out, "Signed in as %s <%s>\n", user.DisplayName(), user.Email)
			fmt.Fprintf(out, "Session saved to %s\n", stack.tokens.Path())
			return nil
		},
	}
}

func logoutCommand(out io.Writer) *cli.Command {
	var params configParams

	return &cli.Command{
		Name:    "logout",
		Summary: "Discard the saved session",
		Description: `Remove the saved session token. No request is made to the server.
Signing out when already signed out is not an error.`,
		Usage: "bugdesk logout [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("logout", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}
			stack, err := openStack(cfg, cli.NewCommandLogger(cfg.LogLevel()))
			if err != nil {
				return err
			}
			defer stack.Close()

			stack.session.Logout()
			fmt.Fprintln(out, "Signed out.")
			return nil
		},
	}
}
