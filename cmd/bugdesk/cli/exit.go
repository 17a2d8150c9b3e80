// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError ends the process with Code and no extra output. The
// command has already printed what the user needs, e.g. "whoami"
// reporting that nobody is signed in.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is checked by main to tell a handled exit from an error.
func (e *ExitError) ExitCode() int {
	return e.Code
}
