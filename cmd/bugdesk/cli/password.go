// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/bugdesk/lib/secret"
)

// ReadPassword returns the password from path, or prompts for it on the
// terminal with echo off when path is empty. A path of "-" reads the
// first line of stdin.
func ReadPassword(path string) (*secret.Buffer, error) {
	if path != "" {
		buffer, err := secret.ReadFromPath(path)
		if err != nil {
			return nil, Validation("reading password from %s: %w", path, err)
		}
		return buffer, nil
	}

	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, Validation("no terminal for the password prompt").
			WithHint("Pass --password-file <path>, or --password-file - to read stdin.")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	if len(password) == 0 {
		return nil, Validation("password is required")
	}
	return secret.NewFromBytes(password)
}
