// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/tracker"
)

func bugsCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "bugs",
		Summary:     "Query bugs",
		Subcommands: []*cli.Command{bugsListCommand(out)},
	}
}

type bugsListParams struct {
	configParams
	cli.JSONOutput
	Project string `flag:"project" desc:"only bugs of this project (id or key)"`
	Status  string `flag:"status"  desc:"only bugs in this status: all, open, in-progress, resolved, closed" default:"all"`
	Search  string `flag:"search"  desc:"only bugs whose title, description, number or tags contain this text"`
}

func bugsListCommand(out io.Writer) *cli.Command {
	var params bugsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List bugs",
		Description: `List the bugs visible to the signed-in user, newest first as the
server returns them. --status and --search narrow the list the same way
the interface's filter bar does; --project asks the server for one
project's bugs.`,
		Usage: "bugdesk bugs list [flags]",
		Examples: []cli.Example{
			{Description: "Open bugs mentioning login", Command: "bugdesk bugs list --status open --search login"},
			{Description: "One project's bugs as JSON", Command: "bugdesk bugs list --project WEB --json"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			status := tracker.Status(params.Status)
			if !slices.Contains(bugcache.StatusFilters, status) {
				return cli.Validation("unknown status %q (want one of %v)", params.Status, bugcache.StatusFilters)
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

			scope := bugcache.AllBugs()
			if params.Project != "" {
				project, err := stack.resolveProject(ctx, params.Project)
				if err != nil {
					return err
				}
				scope = bugcache.ProjectScope(project.ID)
			}

			bugs, err := bugcache.NewCollection(stack.api, stack.logger).Load(ctx, scope)
			if err != nil {
				return cli.FromTracker("listing bugs", err)
			}
			bugs = bugcache.Filter{Status: status, Query: params.Search}.Apply(bugs)

			if done, err := params.EmitJSON(out, bugs); done {
				return err
			}
			if len(bugs) == 0 {
				fmt.Fprintln(out, "No bugs found.")
				return nil
			}
			table := tabwriter.NewWriter(out, 2, 0, 2, ' ', 0)
			fmt.Fprintln(table, "NUMBER\tSTATUS\tPRIORITY\tPROJECT\tTITLE")
			for _, bug := range bugs {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
					orDash(bug.BugNumber), bug.Status, orDash(string(bug.Priority)), projectLabel(bug), bug.Title)
			}
			return table.Flush()
		},
	}
}

func projectLabel(bug tracker.Bug) string {
	if bug.Project == nil {
		return "-"
	}
	if bug.Project.Key != "" {
		return bug.Project.Key
	}
	return orDash(bug.Project.Name)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
