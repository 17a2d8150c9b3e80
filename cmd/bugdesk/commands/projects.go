// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
	"github.com/bureau-foundation/bugdesk/lib/bugcache"
)

func projectsCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "projects",
		Summary:     "Query projects",
		Subcommands: []*cli.Command{projectsListCommand(out)},
	}
}

type projectsListParams struct {
	configParams
	cli.JSONOutput
}

func projectsListCommand(out io.Writer) *cli.Command {
	var params projectsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List projects",
		Usage:   "bugdesk projects list [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
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
			if _, err := stack.restore(ctx); err != nil {
				return err
			}

			projects, err := bugcache.NewProjects(stack.api, stack.logger).Load(ctx)
			if err != nil {
				return cli.FromTracker("listing projects", err)
			}
			if done, err := params.EmitJSON(out, projects); done {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}
			table := tabwriter.NewWriter(out, 2, 0, 2, ' ', 0)
			fmt.Fprintln(table, "KEY\tNAME\tSTATUS\tID")
			for _, project := range projects {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\n",
					orDash(project.Key), project.Name, orDash(string(project.Status)), project.ID)
			}
			return table.Flush()
		},
	}
}
