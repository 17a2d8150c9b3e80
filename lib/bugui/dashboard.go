// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/router"
)

// dashboardScreen summarizes the shared bug collection.
type dashboardScreen struct {
	deps   *deps
	width  int
	height int
}

func newDashboardScreen(d *deps) *dashboardScreen {
	return &dashboardScreen{deps: d}
}

func (s *dashboardScreen) Init() tea.Cmd             { return nil }
func (s *dashboardScreen) SetSize(width, height int) { s.width, s.height = width, height }
func (s *dashboardScreen) Capturing() bool           { return false }

func (s *dashboardScreen) Help() []key.Binding {
	keys := s.deps.keys
	return []key.Binding{
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "report bug")),
		key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "all bugs")),
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "projects")),
		keys.Refresh,
	}
}

func (s *dashboardScreen) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, s.deps.keys.New):
		return navigate(router.ViewCreateBug)
	case key.Matches(keyMsg, s.deps.keys.ViewBugs):
		return navigate(router.ViewBugs)
	case keyMsg.String() == "p":
		return navigate(router.ViewProjects)
	case key.Matches(keyMsg, s.deps.keys.Refresh):
		return loadBugs(s.deps, s.deps.bugs, bugcache.AllBugs())
	}
	return nil
}

func (s *dashboardScreen) View() string {
	theme := s.deps.theme
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	greeting := "Dashboard"
	if user, ok := s.deps.session.User(); ok {
		greeting = "Welcome back, " + user.DisplayName()
	}
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(greeting)

	if s.deps.bugs.Loading() && s.deps.bugs.Len() == 0 {
		return heading + "\n\n" + faint.Render("Loading bugs...")
	}

	summary := bugcache.Summarize(s.deps.bugs.Bugs())
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		s.card("Total", summary.Total, theme.AccentColor),
		s.card("Open", summary.Open, theme.StatusOpen),
		s.card("In Progress", summary.InProgress, theme.StatusInProgress),
		s.card("Resolved", summary.Resolved, theme.StatusResolved),
		s.card("Closed", summary.Closed, theme.StatusClosed),
	)

	var recent []string
	recent = append(recent, lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("Recent bugs"))
	if len(summary.Recent) == 0 {
		recent = append(recent, faint.Render("No bugs reported yet. Press n to report one."))
	}
	for _, bug := range summary.Recent {
		status := lipgloss.NewStyle().Foreground(theme.StatusColor(bug.Status)).Width(statusWidth).Render(statusLabel(bug.Status))
		priority := lipgloss.NewStyle().Foreground(theme.PriorityColor(bug.Priority)).Width(priorityWidth).Render(string(bug.Priority))
		number := fmt.Sprintf("%-*s", numberWidth, ansi.Truncate(bug.BugNumber, numberWidth, "…"))
		title := ansi.Truncate(bug.Title, max(s.width-numberWidth-statusWidth-priorityWidth-3, 10), "…")
		recent = append(recent, number+" "+status+" "+priority+" "+title)
	}

	return heading + "\n\n" + cards + "\n\n" + strings.Join(recent, "\n")
}

func (s *dashboardScreen) card(label string, count int, color lipgloss.Color) string {
	theme := s.deps.theme
	value := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprint(count))
	name := lipgloss.NewStyle().Foreground(theme.FaintText).Render(label)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(0, 2).
		MarginRight(1).
		Render(value + "\n" + name)
}
