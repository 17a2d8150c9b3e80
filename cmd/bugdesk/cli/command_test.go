// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "bugdesk",
		Subcommands: []*Command{
			{
				Name: "bugs",
				Subcommands: []*Command{
					{
						Name: "list",
						Run: func(args []string) error {
							called = "bugs list"
							receivedArgs = args
							return nil
						},
					},
				},
			},
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"bugs", "list", "extra"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "bugs list" {
		t.Errorf("dispatched to %q, want %q", called, "bugs list")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra" {
		t.Errorf("args = %v, want [extra]", receivedArgs)
	}
}

func TestCommand_Execute_RootRunsWithoutSubcommand(t *testing.T) {
	var ran bool
	var config string
	root := &Command{
		Name: "bugdesk",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("bugdesk", pflag.ContinueOnError)
			flagSet.StringVar(&config, "config", "", "config file")
			return flagSet
		},
		Subcommands: []*Command{{Name: "login", Run: func([]string) error { return nil }}},
		Run: func(args []string) error {
			ran = true
			return nil
		},
	}

	if err := root.Execute([]string{"--config", "/tmp/bugdesk.yaml"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !ran {
		t.Error("root Run was not called")
	}
	if config != "/tmp/bugdesk.yaml" {
		t.Errorf("config = %q", config)
	}

	err := root.Execute([]string{"logni"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "login"`) {
		t.Errorf("Execute(logni) = %v, want a suggestion for login", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "list",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.String("status", "all", "status filter")
			flagSet.String("search", "", "text filter")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--stauts", "open"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --status") {
		t.Errorf("error = %q, want suggestion for --status", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Errorf("error category = %v, want validation", err)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "list",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.Bool("json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommand(t *testing.T) {
	root := &Command{
		Name:        "bugdesk",
		Subcommands: []*Command{{Name: "projects"}, {Name: "bugs"}},
	}

	err := root.Execute([]string{"projcts"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "projects"`) {
		t.Errorf("Execute(projcts) = %v, want suggestion", err)
	}

	err = root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:        "bugdesk",
				Summary:     "Terminal bug tracker client",
				Subcommands: []*Command{{Name: "bugs", Summary: "Query bugs"}},
			}
			if err := root.Execute([]string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name:        "bugs",
		Subcommands: []*Command{{Name: "list", Summary: "List bugs"}},
	}

	err := root.Execute(nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("Execute() = %v, want 'subcommand required'", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "bugdesk",
		Description: "Terminal client for the bug tracker.",
		Subcommands: []*Command{
			{Name: "login", Summary: "Sign in and save the session"},
			{Name: "bugs", Summary: "Query bugs"},
		},
		Examples: []Example{
			{Description: "List open bugs", Command: "bugdesk bugs list --status open"},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Terminal client for the bug tracker.",
		"Usage:",
		"bugdesk <command> [flags]",
		"Commands:",
		"login",
		"Sign in and save the session",
		"Examples:",
		"# List open bugs",
		"bugdesk bugs list --status open",
		"Run 'bugdesk <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "list",
		Summary: "List bugs",
		Usage:   "bugdesk bugs list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.String("status", "all", "status filter")
			flagSet.Bool("json", false, "output as JSON")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{"bugdesk bugs list [flags]", "Flags:", "--status", "--json"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "bugdesk"}
	bugs := &Command{Name: "bugs", parent: root}
	list := &Command{Name: "list", parent: bugs}

	if got := list.fullName(); got != "bugdesk bugs list" {
		t.Errorf("fullName() = %q, want %q", got, "bugdesk bugs list")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"login", "login", 0},
		{"logni", "login", 2},
		{"projcts", "projects", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
		if got := levenshtein(test.b, test.a); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.b, test.a, got, test.want)
		}
	}
}
