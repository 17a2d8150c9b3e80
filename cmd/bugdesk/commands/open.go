// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
	"github.com/bureau-foundation/bugdesk/lib/config"
	bugsignal "github.com/bureau-foundation/bugdesk/lib/signal"
)

type openParams struct {
	configParams
	Search    string `flag:"search"     desc:"open the bug list searching for this text"`
	Project   string `flag:"project"    desc:"open this project (id or key); with --search, filter the bug list to it"`
	WriteOnly bool   `flag:"write-only" desc:"record the hand-off for the next bugdesk start instead of starting now"`
}

func openCommand(out io.Writer) *cli.Command {
	var params openParams

	return &cli.Command{
		Name:    "open",
		Summary: "Open the interface on a search or project",
		Description: `Open the interface on a bug search or a project.

The request is written to the hand-off file ($XDG_STATE_HOME/bugdesk/
signals.cbor, or signals.file in the config) and consumed once when the
interface starts, so --write-only can prepare it from another shell or a
script. Unread hand-offs expire after signals.ttl (default 10m).

--project needs a signed-in session to look the project up.`,
		Usage: "bugdesk open [--search <text>] [--project <id|key>] [flags]",
		Examples: []cli.Example{
			{Description: "Search all bugs", Command: `bugdesk open --search crash`},
			{Description: "Open a project's bugs", Command: "bugdesk open --project WEB"},
			{Description: "Search within one project", Command: "bugdesk open --project WEB --search login"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("open", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			search := strings.TrimSpace(params.Search)
			reference := strings.TrimSpace(params.Project)
			if search == "" && reference == "" {
				return cli.Validation("nothing to open").WithHint("Pass --search, --project or both.")
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger(cfg.LogLevel())
			handoff := handoffChannel(cfg, logger)

			if reference != "" {
				if err := handOffProject(cfg, logger, handoff, reference, search != ""); err != nil {
					return err
				}
			}
			if search != "" {
				if err := bugsignal.Write(handoff, bugsignal.GlobalSearchQuery, search); err != nil {
					return cli.Internal("%w", err)
				}
			}

			if params.WriteOnly {
				fmt.Fprintf(out, "Hand-off saved; the next bugdesk start within %s opens it.\n", cfg.SignalTTL())
				return nil
			}
			return runInterface(&params.configParams)
		},
	}
}

// handOffProject looks the project up and records it: as the bug list's
// project filter when filterOnly is set, otherwise as the project to
// open.
func handOffProject(cfg *config.Config, logger *slog.Logger, handoff *bugsignal.Channel, reference string, filterOnly bool) error {
	stack, err := openStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := commandContext()
	defer cancel()
	if _, err := stack.restore(ctx); err != nil {
		return err
	}
	project, err := stack.resolveProject(ctx, reference)
	if err != nil {
		return err
	}

	if filterOnly {
		err = bugsignal.Write(handoff, bugsignal.ProjectFilter, project.ID)
	} else {
		err = bugsignal.Write(handoff, bugsignal.ActiveProjectContext, project)
	}
	if err != nil {
		return cli.Internal("%w", err)
	}
	return nil
}
