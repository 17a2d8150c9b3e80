// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings. Screen-local bindings are only
// consulted while their screen is active, so the same key can mean
// different things on different screens.
type KeyMap struct {
	// List movement and detail scrolling.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	Open key.Binding // Open the selected bug or project.
	Back key.Binding // Close a detail pane, prompt, or input.

	// Forms.
	NextField  key.Binding
	PrevField  key.Binding
	Left       key.Binding // Cycle a choice field backward.
	Right      key.Binding // Cycle a choice field forward.
	Submit     key.Binding
	ToggleAuth key.Binding // Switch between sign-in and registration.

	// Screen switching.
	ShowDashboard key.Binding
	ShowBugs      key.Binding
	ShowCreateBug key.Binding
	ShowProjects  key.Binding
	ShowProfile   key.Binding

	GlobalSearch key.Binding // Header search across all bugs.

	// Bug and project lists.
	Filter      key.Binding // Focus the list's text filter.
	ClearSearch key.Binding // Clear the text filter and any project filter.
	StatusCycle key.Binding // Cycle the status filter.
	Advance     key.Binding // Move the selected bug to its next status.
	New         key.Binding
	Delete      key.Binding
	Confirm     key.Binding
	Refresh     key.Binding
	ViewBugs    key.Binding // Projects: show all bugs filtered to the project.

	Logout key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style movement
// (j/k) alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("Tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-Tab", "prev field"),
	),
	Left: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev choice"),
	),
	Right: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next choice"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "submit"),
	),
	ToggleAuth: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("C-t", "sign in / register"),
	),
	ShowDashboard: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "dashboard"),
	),
	ShowBugs: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "bugs"),
	),
	ShowCreateBug: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "report bug"),
	),
	ShowProjects: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "projects"),
	),
	ShowProfile: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "profile"),
	),
	GlobalSearch: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("C-f", "search bugs"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	ClearSearch: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear search"),
	),
	StatusCycle: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "status filter"),
	),
	Advance: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "advance status"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	ViewBugs: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "view in bug list"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "sign out"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
