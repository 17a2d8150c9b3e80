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
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/tracker"
)

type (
	bugUpdatedMsg struct {
		bug *tracker.Bug
		err error
	}
	bugDeletedMsg struct {
		id  string
		err error
	}
)

// bugTable is the filterable bug list used by the bug list and the
// project-bugs screens. It reads from a collection and never holds
// its own copy beyond the filtered rows.
type bugTable struct {
	deps       *deps
	collection *bugcache.Collection
	filter     bugcache.Filter

	// projectID restricts the rows to one project. Clearing the search
	// clears it too.
	projectID string

	rows   []tracker.Bug
	cursor int
	offset int

	query   textinput.Model
	editing bool

	// pendingDelete is the id of the bug awaiting delete confirmation.
	pendingDelete string

	detail     viewport.Model
	detailOpen bool
	detailID   string

	width  int
	height int
}

func newBugTable(d *deps, collection *bugcache.Collection) *bugTable {
	query := textinput.New()
	query.Prompt = "/ "
	query.Placeholder = "Search title, description, number or tag"
	query.CharLimit = 200
	table := &bugTable{
		deps:       d,
		collection: collection,
		filter:     bugcache.Filter{Status: bugcache.StatusAll},
		query:      query,
		detail:     viewport.New(0, 0),
	}
	table.refresh()
	return table
}

func (t *bugTable) setQuery(query string) {
	t.query.SetValue(query)
	t.filter.Query = query
	t.refresh()
}

// refresh recomputes the visible rows from the collection.
func (t *bugTable) refresh() {
	rows := t.filter.Apply(t.collection.Bugs())
	if t.projectID != "" {
		rows = slices.DeleteFunc(rows, func(bug tracker.Bug) bool {
			return bug.ProjectID() != t.projectID
		})
	}
	t.rows = rows
	t.cursor = min(t.cursor, max(len(rows)-1, 0))
	t.clampOffset()
	if t.detailOpen {
		if bug, ok := t.collection.Find(t.detailID); ok {
			t.detail.SetContent(renderBugDetail(t.deps, bug, t.detail.Width))
		} else {
			t.detailOpen = false
		}
	}
}

func (t *bugTable) selected() (tracker.Bug, bool) {
	if t.detailOpen {
		return t.collection.Find(t.detailID)
	}
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return tracker.Bug{}, false
	}
	return t.rows[t.cursor], true
}

func (t *bugTable) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.query.Width = max(width/2, 20)
	t.detail.Width = width
	t.detail.Height = max(height-1, 1)
	t.clampOffset()
	t.refresh()
}

// visibleRows is the number of list rows below the filter bar and the
// column header.
func (t *bugTable) visibleRows() int {
	return max(t.height-3, 1)
}

func (t *bugTable) clampOffset() {
	rows := t.visibleRows()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+rows {
		t.offset = t.cursor - rows + 1
	}
	t.offset = max(t.offset, 0)
}

func (t *bugTable) Capturing() bool { return t.editing }

func (t *bugTable) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case bugsLoadedMsg, projectsLoadedMsg:
		t.refresh()
		return nil

	case bugUpdatedMsg:
		t.refresh()
		if msg.err != nil {
			return reportFailure(msg.err, "Failed to update bug")
		}
		return nil

	case bugDeletedMsg:
		if msg.err != nil {
			t.refresh()
			return reportFailure(msg.err, "Failed to delete bug")
		}
		if t.detailID == msg.id {
			t.detailOpen = false
		}
		t.refresh()
		return notify(slog.LevelInfo, "Bug deleted")

	case tea.KeyMsg:
		return t.handleKey(msg)
	}
	return nil
}

func (t *bugTable) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := t.deps.keys

	if t.editing {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			t.editing = false
			t.query.Blur()
			return nil
		}
		var cmd tea.Cmd
		t.query, cmd = t.query.Update(msg)
		t.filter.Query = t.query.Value()
		t.refresh()
		return cmd
	}

	if t.pendingDelete != "" {
		id := t.pendingDelete
		t.pendingDelete = ""
		if key.Matches(msg, keys.Confirm) {
			return t.deleteBug(id)
		}
		return nil
	}

	switch {
	case key.Matches(msg, keys.Advance):
		return t.advance()
	case key.Matches(msg, keys.Delete):
		if bug, ok := t.selected(); ok {
			t.pendingDelete = bug.ID
		}
		return nil
	}

	if t.detailOpen {
		if key.Matches(msg, keys.Back) {
			t.detailOpen = false
			return nil
		}
		var cmd tea.Cmd
		t.detail, cmd = t.detail.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, keys.Up):
		t.cursor = max(t.cursor-1, 0)
	case key.Matches(msg, keys.Down):
		t.cursor = min(t.cursor+1, max(len(t.rows)-1, 0))
	case key.Matches(msg, keys.PageUp):
		t.cursor = max(t.cursor-t.visibleRows(), 0)
	case key.Matches(msg, keys.PageDown):
		t.cursor = min(t.cursor+t.visibleRows(), max(len(t.rows)-1, 0))
	case key.Matches(msg, keys.Home):
		t.cursor = 0
	case key.Matches(msg, keys.End):
		t.cursor = max(len(t.rows)-1, 0)
	case key.Matches(msg, keys.Open):
		if bug, ok := t.selected(); ok {
			t.detailOpen = true
			t.detailID = bug.ID
			t.detail.SetContent(renderBugDetail(t.deps, bug, t.detail.Width))
			t.detail.GotoTop()
		}
	case key.Matches(msg, keys.Filter):
		t.editing = true
		return t.query.Focus()
	case key.Matches(msg, keys.ClearSearch):
		t.projectID = ""
		t.setQuery("")
	case key.Matches(msg, keys.StatusCycle):
		index := slices.Index(bugcache.StatusFilters, t.filter.Status)
		t.filter.Status = bugcache.StatusFilters[(index+1)%len(bugcache.StatusFilters)]
		t.cursor = 0
		t.refresh()
	case key.Matches(msg, keys.Refresh):
		return loadBugs(t.deps, t.collection, t.collection.Scope())
	}
	t.clampOffset()
	return nil
}

func (t *bugTable) advance() tea.Cmd {
	bug, ok := t.selected()
	if !ok {
		return nil
	}
	next := bugcache.NextStatus(bug.Status)
	d, collection := t.deps, t.collection
	return func() tea.Msg {
		updated, err := collection.UpdateField(d.ctx, bug.ID, tracker.StatusPatch(next))
		return bugUpdatedMsg{bug: updated, err: err}
	}
}

func (t *bugTable) deleteBug(id string) tea.Cmd {
	d, collection := t.deps, t.collection
	return func() tea.Msg {
		return bugDeletedMsg{id: id, err: collection.Delete(d.ctx, id)}
	}
}

func (t *bugTable) Help() []key.Binding {
	keys := t.deps.keys
	switch {
	case t.editing:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter/Esc", "done")),
		}
	case t.pendingDelete != "":
		return []key.Binding{
			keys.Confirm,
			key.NewBinding(key.WithKeys("n"), key.WithHelp("any other key", "cancel")),
		}
	case t.detailOpen:
		return []key.Binding{keys.Back, keys.Advance, keys.Delete, keys.PageDown, keys.PageUp}
	}
	return []key.Binding{keys.Open, keys.Filter, keys.StatusCycle, keys.ClearSearch, keys.Advance, keys.Delete, keys.Refresh}
}

func (t *bugTable) View() string {
	theme := t.deps.theme
	if t.detailOpen {
		title := lipgloss.NewStyle().Foreground(theme.FaintText).Render("Esc to return to the list")
		if t.pendingDelete != "" {
			title = t.deletePrompt()
		}
		return title + "\n" + t.detail.View()
	}

	var lines []string
	lines = append(lines, t.renderFilterBar())

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.FaintText)
	lines = append(lines, header.Render(t.formatRow("NUMBER", "STATUS", "PRIORITY", "PROJECT", "TITLE")))

	switch {
	case t.collection.Loading() && len(t.rows) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("Loading bugs..."))
	case len(t.rows) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("No bugs match the current filters."))
	default:
		end := min(t.offset+t.visibleRows(), len(t.rows))
		for index := t.offset; index < end; index++ {
			lines = append(lines, t.renderRow(t.rows[index], index == t.cursor))
		}
	}
	if t.pendingDelete != "" {
		lines = append(lines, t.deletePrompt())
	}
	return strings.Join(lines, "\n")
}

func (t *bugTable) deletePrompt() string {
	label := t.pendingDelete
	if bug, ok := t.collection.Find(t.pendingDelete); ok {
		label = bugLabel(bug)
	}
	return lipgloss.NewStyle().Foreground(t.deps.theme.WarningText).Bold(true).
		Render(fmt.Sprintf("Delete %s? This cannot be undone. (y to confirm)", label))
}

func (t *bugTable) renderFilterBar() string {
	theme := t.deps.theme
	var parts []string
	for _, status := range bugcache.StatusFilters {
		style := lipgloss.NewStyle().Foreground(theme.FaintText)
		if status == t.filter.Status {
			style = lipgloss.NewStyle().Bold(true).Foreground(theme.SelectedForeground).Background(theme.SelectedBackground)
		}
		parts = append(parts, style.Render(statusLabel(status)))
	}
	bar := strings.Join(parts, " ")

	if t.editing || t.filter.Query != "" {
		bar += "  " + t.query.View()
	}
	if t.projectID != "" {
		name := t.projectID
		if project, ok := t.deps.projects.Find(t.projectID); ok {
			name = project.Name
		}
		bar += "  " + lipgloss.NewStyle().Foreground(theme.AccentColor).Render("project: "+name)
	}
	count := lipgloss.NewStyle().Foreground(theme.FaintText).
		Render(fmt.Sprintf("  %d of %d", len(t.rows), t.collection.Len()))
	return bar + count
}

const (
	numberWidth   = 10
	statusWidth   = 12
	priorityWidth = 9
	projectWidth  = 8
)

func (t *bugTable) formatRow(number, status, priority, project, title string) string {
	titleWidth := max(t.width-numberWidth-statusWidth-priorityWidth-projectWidth-4, 10)
	return fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		numberWidth, ansi.Truncate(number, numberWidth, "…"),
		statusWidth, status,
		priorityWidth, priority,
		projectWidth, ansi.Truncate(project, projectWidth, "…"),
		ansi.Truncate(title, titleWidth, "…"))
}

func (t *bugTable) renderRow(bug tracker.Bug, selected bool) string {
	theme := t.deps.theme
	status := lipgloss.NewStyle().Foreground(theme.StatusColor(bug.Status)).Width(statusWidth).
		Render(statusLabel(bug.Status))
	priority := lipgloss.NewStyle().Foreground(theme.PriorityColor(bug.Priority)).Width(priorityWidth).
		Render(string(bug.Priority))

	titleWidth := max(t.width-numberWidth-statusWidth-priorityWidth-projectWidth-4, 10)
	number := fmt.Sprintf("%-*s", numberWidth, ansi.Truncate(bug.BugNumber, numberWidth, "…"))
	project := fmt.Sprintf("%-*s", projectWidth, ansi.Truncate(projectKey(t.deps, bug), projectWidth, "…"))
	title := ansi.Truncate(bug.Title, titleWidth, "…")

	row := number + " " + status + " " + priority + " " + project + " " + title
	if selected {
		return lipgloss.NewStyle().Background(theme.SelectedBackground).Width(t.width).Render(row)
	}
	return row
}

func statusLabel(status tracker.Status) string {
	switch status {
	case bugcache.StatusAll:
		return "All"
	case tracker.StatusOpen:
		return "Open"
	case tracker.StatusInProgress:
		return "In Progress"
	case tracker.StatusResolved:
		return "Resolved"
	case tracker.StatusClosed:
		return "Closed"
	case "":
		return "unknown"
	default:
		return string(status)
	}
}

// bugLabel names a bug for prompts: its number when it has one.
func bugLabel(bug tracker.Bug) string {
	if bug.BugNumber != "" {
		return bug.BugNumber
	}
	return fmt.Sprintf("%q", bug.Title)
}

// projectKey returns the short key for the bug's project from the bug
// itself or the project catalog.
func projectKey(d *deps, bug tracker.Bug) string {
	if bug.Project == nil {
		return ""
	}
	if bug.Project.Key != "" {
		return bug.Project.Key
	}
	if project, ok := d.projects.Find(bug.Project.ID); ok {
		return project.Key
	}
	return bug.Project.Name
}

func projectName(d *deps, bug tracker.Bug) string {
	if bug.Project == nil {
		return ""
	}
	if bug.Project.Name != "" {
		return bug.Project.Name
	}
	if project, ok := d.projects.Find(bug.Project.ID); ok {
		return project.Name
	}
	return bug.Project.ID
}

// renderBugDetail renders the full record for the detail pane.
func renderBugDetail(d *deps, bug tracker.Bug, width int) string {
	theme := d.theme
	width = max(width, 20)
	label := lipgloss.NewStyle().Foreground(theme.FaintText)
	section := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)

	var out strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Width(width).Render(bug.Title)
	if bug.BugNumber != "" {
		out.WriteString(lipgloss.NewStyle().Foreground(theme.AccentColor).Render(bug.BugNumber) + "\n")
	}
	out.WriteString(title + "\n\n")

	field := func(name, value string) {
		if value == "" {
			return
		}
		out.WriteString(label.Render(fmt.Sprintf("%-10s", name)) + value + "\n")
	}
	field("Status", lipgloss.NewStyle().Foreground(theme.StatusColor(bug.Status)).Render(statusLabel(bug.Status)))
	field("Priority", lipgloss.NewStyle().Foreground(theme.PriorityColor(bug.Priority)).Render(string(bug.Priority)))
	severity := bug.Severity
	if severity == "" {
		severity = "unknown"
	}
	field("Severity", severity)
	field("Type", bug.Type)
	field("Project", projectName(d, bug))
	if len(bug.Tags) > 0 {
		field("Tags", strings.Join(bug.Tags, ", "))
	}
	if !bug.CreatedAt.IsZero() {
		field("Reported", bug.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if bug.DueDate != nil {
		field("Due", bug.DueDate.Local().Format("2006-01-02"))
	}
	if environment := bug.Environment; environment != nil {
		var parts []string
		for _, part := range []string{environment.OS, environment.Browser, environment.Device, environment.Version} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		field("Env", strings.Join(parts, " · "))
	}

	if description := renderMarkdown(bug.Description, theme, width); description != "" {
		out.WriteString("\n" + section.Render("Description") + "\n" + description + "\n")
	}
	if len(bug.StepsToReproduce) > 0 {
		var steps strings.Builder
		for index, step := range bug.StepsToReproduce {
			fmt.Fprintf(&steps, "%d. %s\n", index+1, step)
		}
		out.WriteString("\n" + section.Render("Steps to reproduce") + "\n" + renderMarkdown(steps.String(), theme, width) + "\n")
	}
	if expected := renderMarkdown(bug.ExpectedBehavior, theme, width); expected != "" {
		out.WriteString("\n" + section.Render("Expected") + "\n" + expected + "\n")
	}
	if actual := renderMarkdown(bug.ActualBehavior, theme, width); actual != "" {
		out.WriteString("\n" + section.Render("Actual") + "\n" + actual + "\n")
	}
	return strings.TrimRight(out.String(), "\n")
}
