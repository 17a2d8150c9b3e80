// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		// An ExitError means the command already reported the outcome.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
