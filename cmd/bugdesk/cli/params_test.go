// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags(t *testing.T) {
	t.Run("supported types", func(t *testing.T) {
		type params struct {
			Status   string        `flag:"status" desc:"status filter"`
			Verbose  bool          `flag:"verbose,v" desc:"more output"`
			Limit    int           `flag:"limit" desc:"maximum rows"`
			Timeout  time.Duration `flag:"timeout" desc:"request timeout"`
			Tags     []string      `flag:"tags" desc:"tag list"`
			Untagged string
		}

		var p params
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		if err := BindFlags(&p, flagSet); err != nil {
			t.Fatalf("BindFlags: %v", err)
		}
		err := flagSet.Parse([]string{
			"--status", "open",
			"-v",
			"--limit", "20",
			"--timeout", "5s",
			"--tags", "ui,auth",
		})
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}

		if p.Status != "open" || !p.Verbose || p.Limit != 20 || p.Timeout != 5*time.Second {
			t.Errorf("parsed %+v", p)
		}
		if strings.Join(p.Tags, ",") != "ui,auth" {
			t.Errorf("Tags = %v", p.Tags)
		}
		if flagSet.Lookup("untagged") != nil {
			t.Error("field without a flag tag was bound")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		type params struct {
			Status  string        `flag:"status" default:"all"`
			JSON    bool          `flag:"json" default:"true"`
			Limit   int           `flag:"limit" default:"50"`
			Timeout time.Duration `flag:"timeout" default:"30s"`
			Tags    []string      `flag:"tags" default:"a,b"`
		}
		var p params
		flagSet := FlagsFromParams("test", &p)
		if err := flagSet.Parse(nil); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if p.Status != "all" || !p.JSON || p.Limit != 50 || p.Timeout != 30*time.Second || len(p.Tags) != 2 {
			t.Errorf("defaults not applied: %+v", p)
		}
	})

	t.Run("embedded structs are bound", func(t *testing.T) {
		type params struct {
			JSONOutput
			Search string `flag:"search"`
		}
		var p params
		flagSet := FlagsFromParams("test", &p)
		if err := flagSet.Parse([]string{"--json", "--search", "crash", "positional"}); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !p.OutputJSON || p.Search != "crash" {
			t.Errorf("parsed %+v", p)
		}
		if args := flagSet.Args(); len(args) != 1 || args[0] != "positional" {
			t.Errorf("Args() = %v", args)
		}
	})

	t.Run("not a struct pointer", func(t *testing.T) {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		if err := BindFlags(struct{}{}, flagSet); err == nil {
			t.Error("expected error for non-pointer")
		}
		value := 3
		if err := BindFlags(&value, flagSet); err == nil {
			t.Error("expected error for pointer to non-struct")
		}
	})

	t.Run("bad default", func(t *testing.T) {
		type params struct {
			Limit int `flag:"limit" default:"many"`
		}
		var p params
		if err := BindFlags(&p, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
			t.Error("expected error for unparseable default")
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		type params struct {
			Ratio float32 `flag:"ratio"`
		}
		var p params
		if err := BindFlags(&p, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
			t.Error("expected error for unsupported type")
		}
	})

	t.Run("FlagsFromParams panics on bad params", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		FlagsFromParams("test", "not a struct")
	})
}
