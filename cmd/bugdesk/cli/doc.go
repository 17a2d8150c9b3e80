// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the bugdesk binary: a tree
// of [Command] values dispatched by name, pflag flag sets bound from
// tagged parameter structs, --json output, categorized errors and the
// command logger.
//
// Commands return errors instead of exiting. main inspects the error:
// an [ExitError] sets the exit code silently, anything else is printed
// as "error: ..." and exits 1.
package cli
