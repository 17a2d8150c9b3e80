// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/signal"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// projectBugsScreen shows the bugs of the project handed over by the
// projects screen, loaded into the project-scoped collection.
type projectBugsScreen struct {
	deps    *deps
	project tracker.Project
	found   bool
	table   *bugTable
	width   int
	height  int
}

func newProjectBugsScreen(d *deps) *projectBugsScreen {
	project, found := signal.ReadAndClear(d.signals, signal.ActiveProjectContext)
	return &projectBugsScreen{
		deps:    d,
		project: project,
		found:   found,
		table:   newBugTable(d, d.projectBugs),
	}
}

func (s *projectBugsScreen) Init() tea.Cmd {
	if !s.found {
		return nil
	}
	return loadBugs(s.deps, s.deps.projectBugs, bugcache.ProjectScope(s.project.ID))
}

func (s *projectBugsScreen) SetSize(width, height int) {
	s.width, s.height = width, height
	s.table.SetSize(width, height-2)
}

func (s *projectBugsScreen) Capturing() bool { return s.table.Capturing() }

func (s *projectBugsScreen) Help() []key.Binding {
	if !s.found {
		return []key.Binding{s.deps.keys.Back}
	}
	help := s.table.Help()
	if !s.table.detailOpen && !s.table.Capturing() {
		help = append(help, key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "projects")))
	}
	return help
}

func (s *projectBugsScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(bugsLoadedMsg); ok && msg.scope != bugcache.ProjectScope(s.project.ID) {
		return nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok && !s.table.Capturing() && !s.table.detailOpen && s.table.pendingDelete == "" {
		if key.Matches(msg, s.deps.keys.Back) {
			return navigate(router.ViewProjects)
		}
	}
	if !s.found {
		return nil
	}
	return s.table.Update(msg)
}

func (s *projectBugsScreen) View() string {
	theme := s.deps.theme
	if !s.found {
		return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.FaintText).Render("No project selected. Press Esc to pick one from the projects list."))
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(s.project.Name)
	if s.project.Key != "" {
		title += lipgloss.NewStyle().Foreground(theme.AccentColor).Render(" [" + s.project.Key + "]")
	}
	description := lipgloss.NewStyle().Foreground(theme.FaintText).MaxWidth(s.width).Render(s.project.Description)
	return title + "\n" + description + "\n" + s.table.View()
}
