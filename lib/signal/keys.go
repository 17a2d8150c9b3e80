// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import "github.com/bureau-foundation/bugdesk/tracker"

// The well-known slots.
var (
	// GlobalSearchQuery carries a search typed in the header to the bug
	// list.
	GlobalSearchQuery = NewKey[string]("globalSearchQuery")

	// ProjectFilter carries a project id the bug list should pre-filter
	// on.
	ProjectFilter = NewKey[string]("projectFilter")

	// ActiveProjectContext carries the full project a project-bugs
	// screen should show.
	ActiveProjectContext = NewKey[tracker.Project]("activeProjectContext")
)
