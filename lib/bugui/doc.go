// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bugui is the terminal interface for bugdesk, built on
// bubbletea.
//
// The root [Model] owns one screen at a time and swaps it whenever the
// [router.Router] reports a new state. Session changes reach the model
// through [router.Router.Bind]: the router observes the session
// manager and pushes each resulting state into a single-slot mailbox
// that a bubbletea command drains, so a burst of session transitions
// collapses to the latest state.
//
// Screens never talk to the API directly. They go through the shared
// caches in [bugcache] and return result messages; any failure the
// session manager recognizes as a rejected token signs the user out,
// and the router takes the interface back to the login form.
//
// Screens hand values to each other through [signal.Channel]: the
// header search writes the global search query, the projects screen
// writes a project filter or the active project, and the receiving
// screen consumes the value once when it mounts.
package bugui
