// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
)

type whoamiParams struct {
	configParams
	cli.JSONOutput
}

type whoamiOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	Server      string `json:"server"`
	SessionFile string `json:"session_file"`
	Token       string `json:"token_fingerprint"`
}

func whoamiCommand(out io.Writer) *cli.Command {
	var params whoamiParams

	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Description: `Validate the saved session against the server and show its user.

A session the server rejects is discarded, exactly as the interface does
on startup.`,
		Usage: "bugdesk whoami [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("whoami", &params)
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

			ctx, cancel := commandContext()
			defer cancel()
			user, err := stack.restore(ctx)
			if err != nil {
				return err
			}

			output := whoamiOutput{
				ID:          user.ID,
				Name:        user.DisplayName(),
				Username:    user.Username,
				Email:       user.Email,
				Role:        user.Role,
				Server:      stack.client.BaseURL(),
				SessionFile: stack.tokens.Path(),
				Token:       stack.session.TokenFingerprint(),
			}
			if done, err := params.EmitJSON(out, output); done {
				return err
			}

			fmt.Fprintf(out, "User:         %s\n", output.Name)
			if output.Email != "" {
				fmt.Fprintf(out, "Email:        %s\n", output.Email)
			}
			if output.Role != "" {
				fmt.Fprintf(out, "Role:         %s\n", output.Role)
			}
			fmt.Fprintf(out, "Server:       %s\n", output.Server)
			fmt.Fprintf(out, "Session file: %s\n", output.SessionFile)
			fmt.Fprintf(out, "Token:        %s\n", output.Token)
			return nil
		},
	}
}
