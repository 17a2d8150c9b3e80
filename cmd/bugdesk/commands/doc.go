// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the bugdesk command tree. Every command
// loads the configuration, builds the tracker client and session
// manager from it, and does one thing: run the terminal interface,
// sign in or out, print the signed-in user, list bugs or projects, or
// record a hand-off for the next interface start.
package commands
