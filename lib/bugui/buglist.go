// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/signal"
)

// bugsScreen lists every bug. On mount it consumes a pending search
// query and project filter handed over by other screens.
type bugsScreen struct {
	deps  *deps
	table *bugTable
}

func newBugsScreen(d *deps) *bugsScreen {
	table := newBugTable(d, d.bugs)
	if query, ok := signal.ReadAndClear(d.signals, signal.GlobalSearchQuery); ok {
		table.setQuery(query)
	}
	if projectID, ok := signal.ReadAndClear(d.signals, signal.ProjectFilter); ok {
		table.projectID = projectID
		table.refresh()
	}
	return &bugsScreen{deps: d, table: table}
}

func (s *bugsScreen) Init() tea.Cmd {
	// Names for the project column and filter come from the catalog.
	if len(s.deps.projects.List()) == 0 && !s.deps.projects.Loading() {
		return loadProjects(s.deps)
	}
	return nil
}

func (s *bugsScreen) SetSize(width, height int) { s.table.SetSize(width, height-1) }
func (s *bugsScreen) Capturing() bool           { return s.table.Capturing() }

func (s *bugsScreen) Help() []key.Binding {
	return append(s.table.Help(), s.deps.keys.New)
}

func (s *bugsScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && !s.table.Capturing() && !s.table.detailOpen && s.table.pendingDelete == "" {
		if key.Matches(msg, s.deps.keys.New) {
			return navigate(router.ViewCreateBug)
		}
	}
	return s.table.Update(msg)
}

func (s *bugsScreen) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(s.deps.theme.HeaderForeground).Render("All bugs")
	return title + "\n" + s.table.View()
}
