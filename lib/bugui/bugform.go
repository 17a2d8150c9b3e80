// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/tracker"
)

type bugCreatedMsg struct {
	bug *tracker.Bug
	err error
}

var (
	bugTypeChoices = []choice{
		{"bug", "Bug"},
		{"feature", "Feature Request"},
		{"enhancement", "Enhancement"},
		{"task", "Task"},
	}
	statusChoices = []choice{
		{string(tracker.StatusOpen), "Open"},
		{string(tracker.StatusInProgress), "In Progress"},
		{string(tracker.StatusResolved), "Resolved"},
		{string(tracker.StatusClosed), "Closed"},
	}
	priorityChoices = []choice{
		{string(tracker.PriorityLow), "Low"},
		{string(tracker.PriorityMedium), "Medium"},
		{string(tracker.PriorityHigh), "High"},
		{string(tracker.PriorityCritical), "Critical"},
	}
	severityChoices = []choice{
		{"minor", "Minor"},
		{"major", "Major"},
		{"blocker", "Blocker"},
	}
)

// bugFormScreen reports a new bug into the shared collection.
type bugFormScreen struct {
	deps *deps
	form *form

	title       *formField
	description *formField
	project     *formField
	bugType     *formField
	status      *formField
	priority    *formField
	severity    *formField
	tags        *formField
	steps       *formField
	expected    *formField
	actual      *formField

	err    string
	busy   bool
	width  int
	height int
}

func newBugFormScreen(d *deps) *bugFormScreen {
	defaults := tracker.NewBugInput("")
	s := &bugFormScreen{
		deps:        d,
		title:       newTextField("Title", "Brief description of the bug"),
		description: newTextField("Description", "Detailed description (markdown)"),
		project:     newChoiceField("Project", nil, ""),
		bugType:     newChoiceField("Type", bugTypeChoices, defaults.Type),
		status:      newChoiceField("Status", statusChoices, string(defaults.Status)),
		priority:    newChoiceField("Priority", priorityChoices, string(defaults.Priority)),
		severity:    newChoiceField("Severity", severityChoices, defaults.Severity),
		tags:        newTextField("Tags", "comma separated"),
		steps:       newTextField("Steps", "separate steps with ;"),
		expected:    newTextField("Expected", "What should happen"),
		actual:      newTextField("Actual", "What actually happens"),
	}
	s.form = newForm(d.keys, s.title, s.description, s.project, s.bugType, s.status,
		s.priority, s.severity, s.tags, s.steps, s.expected, s.actual)
	s.syncProjects()
	return s
}

// syncProjects rebuilds the project choices from the catalog, keeping
// the current selection when it still exists.
func (s *bugFormScreen) syncProjects() {
	selected := s.project.value()
	choices := []choice{{"", "Select a project"}}
	for _, project := range s.deps.projects.List() {
		label := project.Name
		if project.Key != "" {
			label += " (" + project.Key + ")"
		}
		choices = append(choices, choice{project.ID, label})
	}
	s.project.choices = choices
	s.project.chosen = 0
	s.project.choose(selected)
}

func (s *bugFormScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{s.form.Focus()}
	if !s.deps.projects.Loading() {
		cmds = append(cmds, loadProjects(s.deps))
	}
	return tea.Batch(cmds...)
}

func (s *bugFormScreen) SetSize(width, height int) { s.width, s.height = width, height }
func (s *bugFormScreen) Capturing() bool           { return true }

func (s *bugFormScreen) Help() []key.Binding {
	keys := s.deps.keys
	return []key.Binding{keys.Submit, keys.NextField, keys.PrevField, keys.Right, keys.Back}
}

// input assembles the create request from the form.
func (s *bugFormScreen) input() tracker.BugInput {
	input := tracker.NewBugInput(s.project.value())
	input.Title = s.title.value()
	input.Description = s.description.value()
	input.Type = s.bugType.value()
	input.Status = tracker.Status(s.status.value())
	input.Priority = tracker.Priority(s.priority.value())
	input.Severity = s.severity.value()
	input.Tags = strings.Split(s.tags.value(), ",")
	input.StepsToReproduce = strings.Split(s.steps.value(), ";")
	input.ExpectedBehavior = strings.TrimSpace(s.expected.value())
	input.ActualBehavior = strings.TrimSpace(s.actual.value())
	return input
}

func (s *bugFormScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		s.syncProjects()
		return nil

	case bugCreatedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = tracker.Reason(msg.err, "Failed to create bug")
			return reportFailure(msg.err, "Failed to create bug")
		}
		label := "Bug"
		if msg.bug != nil && msg.bug.BugNumber != "" {
			label = msg.bug.BugNumber
		}
		return tea.Batch(
			notify(slog.LevelInfo, "%s reported successfully!", label),
			navigate(router.ViewBugs),
		)

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch {
		case key.Matches(msg, s.deps.keys.Back):
			return navigate(router.ViewDashboard)
		case key.Matches(msg, s.deps.keys.Submit):
			return s.submit()
		case msg.Type == tea.KeyEnter:
			if s.form.onLast() {
				return s.submit()
			}
			return s.form.move(1)
		}
		return s.form.Update(msg)
	}
	return nil
}

func (s *bugFormScreen) submit() tea.Cmd {
	input := s.input()
	input.Normalize()
	if err := input.Validate(); err != nil {
		s.err = joinedReason(err)
		return nil
	}
	s.err = ""
	s.busy = true
	d := s.deps
	return func() tea.Msg {
		created, err := d.bugs.Create(d.ctx, input)
		return bugCreatedMsg{bug: created, err: err}
	}
}

func (s *bugFormScreen) View() string {
	theme := s.deps.theme
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("Report a bug")
	body := s.form.View(theme, min(s.width, 100))
	switch {
	case s.busy:
		body += "\n\n" + lipgloss.NewStyle().Foreground(theme.FaintText).Render("Submitting...")
	case s.err != "":
		body += "\n\n" + renderFormMessage(theme, s.err, true)
	}
	return heading + "\n\n" + body
}
