// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/signal"
	"github.com/bureau-foundation/bugdesk/tracker"
)

type (
	projectCreatedMsg struct {
		project *tracker.Project
		err     error
	}
	projectDeletedMsg struct {
		id  string
		err error
	}
)

// projectsScreen lists the project catalog with fuzzy quick-jump,
// and hands a chosen project to the bug screens.
type projectsScreen struct {
	deps *deps

	matches []projectMatch
	cursor  int

	query   textinput.Model
	editing bool

	creating bool
	form     *form
	name     *formField
	key      *formField
	summary  *formField
	formErr  string
	busy     bool

	pendingDelete string

	width  int
	height int
}

func newProjectsScreen(d *deps) *projectsScreen {
	query := textinput.New()
	query.Prompt = "/ "
	query.Placeholder = "Jump to project"
	query.CharLimit = 100
	s := &projectsScreen{deps: d, query: query}
	s.refresh()
	return s
}

func (s *projectsScreen) Init() tea.Cmd { return loadProjects(s.deps) }

func (s *projectsScreen) SetSize(width, height int) {
	s.width, s.height = width, height
	s.query.Width = max(width/2, 20)
}

func (s *projectsScreen) Capturing() bool { return s.editing || s.creating }

func (s *projectsScreen) refresh() {
	s.matches = rankProjects(s.deps.projects.List(), s.query.Value())
	s.cursor = min(s.cursor, max(len(s.matches)-1, 0))
}

func (s *projectsScreen) selected() (tracker.Project, bool) {
	if s.cursor < 0 || s.cursor >= len(s.matches) {
		return tracker.Project{}, false
	}
	return s.matches[s.cursor].Project, true
}

func (s *projectsScreen) Help() []key.Binding {
	keys := s.deps.keys
	switch {
	case s.creating:
		return []key.Binding{keys.Submit, keys.NextField, keys.Back}
	case s.editing:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "open")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "done")),
		}
	case s.pendingDelete != "":
		return []key.Binding{keys.Confirm}
	}
	return []key.Binding{keys.Open, keys.ViewBugs, keys.Filter, keys.New, keys.Delete, keys.Refresh}
}

func (s *projectsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		s.refresh()
		return nil

	case projectCreatedMsg:
		s.busy = false
		if msg.err != nil {
			s.formErr = tracker.Reason(msg.err, "Failed to create project")
			return reportFailure(msg.err, "Failed to create project")
		}
		s.creating = false
		s.refresh()
		return notify(slog.LevelInfo, "Project %s created", msg.project.Name)

	case projectDeletedMsg:
		s.refresh()
		if msg.err != nil {
			return reportFailure(msg.err, "Failed to delete project")
		}
		return notify(slog.LevelInfo, "Project deleted")

	case tea.KeyMsg:
		switch {
		case s.creating:
			return s.updateForm(msg)
		case s.editing:
			return s.updateQuery(msg)
		case s.pendingDelete != "":
			id := s.pendingDelete
			s.pendingDelete = ""
			if key.Matches(msg, s.deps.keys.Confirm) {
				return s.deleteProject(id)
			}
			return nil
		}
		return s.handleKey(msg)
	}
	return nil
}

func (s *projectsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.deps.keys
	switch {
	case key.Matches(msg, keys.Up):
		s.cursor = max(s.cursor-1, 0)
	case key.Matches(msg, keys.Down):
		s.cursor = min(s.cursor+1, max(len(s.matches)-1, 0))
	case key.Matches(msg, keys.Open):
		return s.open()
	case key.Matches(msg, keys.ViewBugs):
		return s.viewBugs()
	case key.Matches(msg, keys.Filter):
		s.editing = true
		return s.query.Focus()
	case key.Matches(msg, keys.Back):
		s.query.SetValue("")
		s.refresh()
	case key.Matches(msg, keys.New):
		return s.startCreate()
	case key.Matches(msg, keys.Delete):
		if project, ok := s.selected(); ok {
			s.pendingDelete = project.ID
		}
	case key.Matches(msg, keys.Refresh):
		return loadProjects(s.deps)
	}
	return nil
}

func (s *projectsScreen) updateQuery(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		s.editing = false
		s.query.Blur()
		return nil
	case tea.KeyEnter:
		s.editing = false
		s.query.Blur()
		return s.open()
	case tea.KeyUp:
		s.cursor = max(s.cursor-1, 0)
		return nil
	case tea.KeyDown:
		s.cursor = min(s.cursor+1, max(len(s.matches)-1, 0))
		return nil
	}
	var cmd tea.Cmd
	s.query, cmd = s.query.Update(msg)
	s.cursor = 0
	s.refresh()
	return cmd
}

// open hands the project to the project-bugs screen.
func (s *projectsScreen) open() tea.Cmd {
	project, ok := s.selected()
	if !ok {
		return nil
	}
	if project.ID == "" {
		return notify(slog.LevelError, "Error: Project data is invalid")
	}
	if err := signal.Write(s.deps.signals, signal.ActiveProjectContext, project); err != nil {
		return reportFailure(err, "Cannot open project")
	}
	return navigate(router.ViewProjectBugs)
}

// viewBugs opens the full bug list filtered to the project.
func (s *projectsScreen) viewBugs() tea.Cmd {
	project, ok := s.selected()
	if !ok {
		return nil
	}
	if err := signal.Write(s.deps.signals, signal.ProjectFilter, project.ID); err != nil {
		return reportFailure(err, "Cannot filter by project")
	}
	return navigate(router.ViewBugs)
}

func (s *projectsScreen) startCreate() tea.Cmd {
	s.name = newTextField("Name", "Project name")
	s.key = newTextField("Key", "e.g. WEB")
	s.key.input.CharLimit = 10
	s.summary = newTextField("Description", "Optional")
	s.form = newForm(s.deps.keys, s.name, s.key, s.summary)
	s.formErr = ""
	s.creating = true
	return s.form.Focus()
}

func (s *projectsScreen) updateForm(msg tea.KeyMsg) tea.Cmd {
	if s.busy {
		return nil
	}
	switch {
	case key.Matches(msg, s.deps.keys.Back):
		s.creating = false
		return nil
	case key.Matches(msg, s.deps.keys.Submit), msg.Type == tea.KeyEnter && s.form.onLast():
		return s.submit()
	case msg.Type == tea.KeyEnter:
		return s.form.move(1)
	}
	return s.form.Update(msg)
}

func (s *projectsScreen) submit() tea.Cmd {
	input := tracker.ProjectInput{
		Name:        s.name.value(),
		Key:         s.key.value(),
		Description: s.summary.value(),
	}
	input.Normalize()
	if err := input.Validate(); err != nil {
		s.formErr = joinedReason(err)
		return nil
	}
	s.formErr = ""
	s.busy = true
	d := s.deps
	return func() tea.Msg {
		created, err := d.projects.Create(d.ctx, input)
		return projectCreatedMsg{project: created, err: err}
	}
}

func (s *projectsScreen) deleteProject(id string) tea.Cmd {
	d := s.deps
	return func() tea.Msg {
		return projectDeletedMsg{id: id, err: d.projects.Delete(d.ctx, id)}
	}
}

func (s *projectsScreen) View() string {
	theme := s.deps.theme
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("Projects")

	if s.creating {
		body := s.form.View(theme, min(s.width, 80))
		if s.formErr != "" {
			body += "\n\n" + renderFormMessage(theme, s.formErr, true)
		}
		return heading + "\n\n" + lipgloss.NewStyle().Bold(true).Render("New project") + "\n" + body
	}

	lines := []string{heading}
	if s.editing || s.query.Value() != "" {
		lines = append(lines, s.query.View())
	} else {
		lines = append(lines, faint.Render(fmt.Sprintf("%d projects", len(s.deps.projects.List()))))
	}

	switch {
	case s.deps.projects.Loading() && len(s.matches) == 0:
		lines = append(lines, faint.Render("Loading projects..."))
	case len(s.matches) == 0 && s.query.Value() != "":
		lines = append(lines, faint.Render("No projects match."))
	case len(s.matches) == 0:
		lines = append(lines, faint.Render("No projects yet. Press n to create one."))
	}

	visible := max(s.height-4, 1)
	offset := max(s.cursor-visible+1, 0)
	for index := offset; index < min(offset+visible, len(s.matches)); index++ {
		lines = append(lines, s.renderRow(s.matches[index], index == s.cursor))
	}

	if s.pendingDelete != "" {
		name := s.pendingDelete
		if project, ok := s.deps.projects.Find(s.pendingDelete); ok {
			name = project.Name
		}
		lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(theme.WarningText).
			Render(fmt.Sprintf("Delete project %s? This action cannot be undone. (y to confirm)", name)))
	}
	return strings.Join(lines, "\n")
}

func (s *projectsScreen) renderRow(match projectMatch, selected bool) string {
	theme := s.deps.theme
	keyLabel := lipgloss.NewStyle().Foreground(theme.AccentColor).Width(projectWidth + 1).Render(match.Project.Key)
	name := highlightPositions(theme, match.Project.Name, match.NamePositions)
	status := lipgloss.NewStyle().Foreground(theme.FaintText).Render(string(match.Project.Status))
	description := ""
	if match.Project.Description != "" {
		room := max(s.width-lipgloss.Width(keyLabel)-lipgloss.Width(name)-lipgloss.Width(status)-6, 0)
		description = lipgloss.NewStyle().Foreground(theme.FaintText).
			Render(ansi.Truncate(match.Project.Description, room, "…"))
	}
	row := keyLabel + name + "  " + status + "  " + description
	if selected {
		return lipgloss.NewStyle().Background(theme.SelectedBackground).Width(s.width).Render(row)
	}
	return row
}

// highlightPositions renders text with the matched rune positions in
// the match color.
func highlightPositions(theme Theme, text string, positions []int) string {
	if len(positions) == 0 {
		return lipgloss.NewStyle().Foreground(theme.NormalText).Render(text)
	}
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	matched := lipgloss.NewStyle().Foreground(theme.MatchHighlight).Bold(true)
	var out strings.Builder
	for index, r := range []rune(text) {
		if slices.Contains(positions, index) {
			out.WriteString(matched.Render(string(r)))
		} else {
			out.WriteString(normal.Render(string(r)))
		}
	}
	return out.String()
}
