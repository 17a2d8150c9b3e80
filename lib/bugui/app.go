// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/session"
	"github.com/bureau-foundation/bugdesk/lib/signal"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// Config wires the model to the application's state holders.
type Config struct {
	Session *session.Manager
	Router  *router.Router

	// Bugs holds every bug the user can see. The dashboard, the bug
	// list and the bug form share it.
	Bugs *bugcache.Collection

	// ProjectBugs holds the bugs of the project open on the
	// project-bugs screen. It is retired when that screen closes.
	ProjectBugs *bugcache.Collection

	Projects *bugcache.Projects
	Signals  *signal.Channel
	Theme    Theme
	Logger   *slog.Logger

	// StartView, when set, replaces the dashboard the first time the
	// user is signed in. "bugdesk open" uses it to land on a handed-off
	// search or project.
	StartView router.View
}

// deps is what screens need from the model. Screens return commands
// and messages; they never touch the router.
type deps struct {
	ctx         context.Context
	session     *session.Manager
	bugs        *bugcache.Collection
	projectBugs *bugcache.Collection
	projects    *bugcache.Projects
	signals     *signal.Channel
	theme       Theme
	keys        KeyMap
	logger      *slog.Logger
}

// screen is one view of the router's state machine.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	Help() []key.Binding

	// Capturing reports whether a text input has focus, in which case
	// the global single-key shortcuts are not interpreted.
	Capturing() bool
}

// Messages shared between the model and its screens.
type (
	// routeChangedMsg is delivered when the router may have moved
	// because the session changed. The model reads the router's
	// current state rather than trusting a state captured earlier.
	routeChangedMsg struct{}

	navigateMsg struct{ view router.View }

	toggleAuthMsg struct{}

	noticeMsg struct {
		text  string
		level slog.Level
	}

	// failureMsg reports an operation failure for the status bar. A
	// rejected token signs the user out instead.
	failureMsg struct {
		err      error
		fallback string
	}

	sessionRestoredMsg struct{ err error }

	bugsLoadedMsg struct {
		scope bugcache.Scope
		err   error
	}

	projectsLoadedMsg struct{ err error }

	loginResultMsg    struct{ err error }
	registerResultMsg struct{ err error }
)

func navigate(view router.View) tea.Cmd {
	return func() tea.Msg { return navigateMsg{view: view} }
}

func notify(level slog.Level, format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return noticeMsg{text: text, level: level} }
}

func reportFailure(err error, fallback string) tea.Cmd {
	return func() tea.Msg { return failureMsg{err: err, fallback: fallback} }
}

func loadBugs(d *deps, collection *bugcache.Collection, scope bugcache.Scope) tea.Cmd {
	return func() tea.Msg {
		_, err := collection.Load(d.ctx, scope)
		return bugsLoadedMsg{scope: scope, err: err}
	}
}

func loadProjects(d *deps) tea.Cmd {
	return func() tea.Msg {
		_, err := d.projects.Load(d.ctx)
		return projectsLoadedMsg{err: err}
	}
}

// routeMailbox is a single-slot channel of route notifications. A
// notification that arrives while one is pending is merged with it.
type routeMailbox struct {
	slot chan struct{}
	done chan struct{}
}

func newRouteMailbox() *routeMailbox {
	return &routeMailbox{slot: make(chan struct{}, 1), done: make(chan struct{})}
}

func (mailbox *routeMailbox) post() {
	select {
	case mailbox.slot <- struct{}{}:
	default:
	}
}

func (mailbox *routeMailbox) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-mailbox.slot:
			return routeChangedMsg{}
		case <-mailbox.done:
			return nil
		}
	}
}

type notice struct {
	text  string
	level slog.Level
}

// Model is the root bubbletea model.
type Model struct {
	deps    *deps
	router  *router.Router
	routes  *routeMailbox
	unbind  func()
	theme   Theme
	keys    KeyMap
	spinner spinner.Model

	state     router.State
	screen    screen
	startView router.View

	search    textinput.Model
	searching bool

	notice       notice
	noticeSerial int

	width  int
	height int
	ready  bool
}

// New builds the root model and subscribes it to the router. ctx
// bounds every request the interface makes. Call Close when the
// program exits.
func New(ctx context.Context, config Config) (*Model, error) {
	if config.Session == nil || config.Router == nil {
		return nil, errors.New("bugui: Session and Router are required")
	}
	if config.Bugs == nil || config.ProjectBugs == nil || config.Projects == nil || config.Signals == nil {
		return nil, errors.New("bugui: Bugs, ProjectBugs, Projects and Signals are required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	theme := config.Theme
	if theme.NormalText == "" {
		theme = DefaultTheme
	}

	search := textinput.New()
	search.Placeholder = "Search bugs..."
	search.Prompt = "/ "
	search.CharLimit = 200

	indicator := spinner.New()
	indicator.Spinner = spinner.Dot
	indicator.Style = lipgloss.NewStyle().Foreground(theme.AccentColor)

	model := &Model{
		deps: &deps{
			ctx:         ctx,
			session:     config.Session,
			bugs:        config.Bugs,
			projectBugs: config.ProjectBugs,
			projects:    config.Projects,
			signals:     config.Signals,
			theme:       theme,
			keys:        DefaultKeyMap,
			logger:      logger,
		},
		router:  config.Router,
		routes:  newRouteMailbox(),
		theme:   theme,
		keys:    DefaultKeyMap,
		spinner: indicator,
		search:  search,
		state:   router.Loading,

		startView: config.StartView,
	}
	model.unbind = config.Router.Bind(config.Session, func(router.State) {
		model.routes.post()
	})
	model.screen = model.newScreen(router.Loading.View)
	return model, nil
}

// Close unsubscribes from the router and releases the route listener.
func (m *Model) Close() {
	if m.unbind != nil {
		m.unbind()
		m.unbind = nil
		close(m.routes.done)
	}
}

// State returns the router state the model is displaying.
func (m *Model) State() router.State { return m.state }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.routes.next(), m.restoreSession())
}

func (m *Model) restoreSession() tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		return sessionRestoredMsg{err: d.session.Initialize(d.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.search.Width = max(msg.Width/3, 20)
		m.screen.SetSize(m.bodySize())
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case routeChangedMsg:
		return m, tea.Batch(m.apply(m.router.State()), m.routes.next())

	case navigateMsg:
		return m, m.apply(m.router.Navigate(msg.view))

	case toggleAuthMsg:
		return m, m.apply(m.router.ToggleAuthView())

	case sessionRestoredMsg:
		if msg.err != nil {
			m.deps.logger.Info("persisted session not restored", "error", msg.err)
			return m, m.setNotice(slog.LevelWarn, tracker.Reason(msg.err, "Session expired")+". Please sign in.")
		}
		return m, nil

	case registerResultMsg:
		if msg.err == nil {
			return m, tea.Batch(
				m.setNotice(slog.LevelInfo, "Registration successful! Please sign in."),
				m.apply(m.router.State()),
			)
		}
		return m, m.screen.Update(msg)

	case bugsLoadedMsg:
		return m, tea.Batch(m.fail(msg.err, "Failed to fetch bugs"), m.screen.Update(msg))

	case projectsLoadedMsg:
		return m, tea.Batch(m.fail(msg.err, "Failed to fetch projects"), m.screen.Update(msg))

	case failureMsg:
		return m, m.fail(msg.err, msg.fallback)

	case noticeMsg:
		return m, m.setNotice(msg.level, msg.text)

	case logRecordMsg:
		return m, m.setNotice(msg.Level, msg.Summary)

	case noticeFadeMsg:
		if msg.serial == m.noticeSerial {
			m.notice = notice{}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.screen.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.searching {
		return m.updateSearch(msg)
	}
	if m.screen.Capturing() {
		return m.screen.Update(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if m.state.Phase != router.PhaseAuthenticated {
		return m.screen.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.GlobalSearch):
		m.searching = true
		m.search.SetValue("")
		return m.search.Focus()
	case key.Matches(msg, m.keys.ShowDashboard):
		return m.apply(m.router.Navigate(router.ViewDashboard))
	case key.Matches(msg, m.keys.ShowBugs):
		return m.apply(m.router.Navigate(router.ViewBugs))
	case key.Matches(msg, m.keys.ShowCreateBug):
		return m.apply(m.router.Navigate(router.ViewCreateBug))
	case key.Matches(msg, m.keys.ShowProjects):
		return m.apply(m.router.Navigate(router.ViewProjects))
	case key.Matches(msg, m.keys.ShowProfile):
		return m.apply(m.router.Navigate(router.ViewProfile))
	case key.Matches(msg, m.keys.Logout):
		m.deps.session.Logout()
		return m.apply(m.router.State())
	}
	return m.screen.Update(msg)
}

// updateSearch drives the header search box. Submitting an empty
// query just opens the bug list; anything else is handed to the list
// through the signal channel.
func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		m.search.SetValue("")
		if query != "" {
			if err := signal.Write(m.deps.signals, signal.GlobalSearchQuery, query); err != nil {
				m.deps.logger.Warn("cannot hand off search query", "error", err)
			}
		}
		// Re-mount the list even if it is already showing so it picks
		// up the new query.
		m.screen = nil
		return m.apply(m.router.Navigate(router.ViewBugs))
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

// apply makes state the displayed state, replacing the screen when it
// changed.
func (m *Model) apply(state router.State) tea.Cmd {
	if state == m.state && m.screen != nil {
		return nil
	}
	previous := m.state
	m.state = state

	var cmds []tea.Cmd
	wasAuthenticated := previous.Phase == router.PhaseAuthenticated
	isAuthenticated := state.Phase == router.PhaseAuthenticated
	switch {
	case wasAuthenticated && !isAuthenticated:
		m.deps.bugs.Retire()
		m.deps.projectBugs.Retire()
		m.deps.projects.Retire()
		m.searching = false
		m.search.Blur()
	case !wasAuthenticated && isAuthenticated:
		if m.startView != "" {
			state = m.router.Navigate(m.startView)
			m.state = state
			m.startView = ""
		}
		cmds = append(cmds, loadBugs(m.deps, m.deps.bugs, bugcache.AllBugs()))
	}
	if previous.View == router.ViewProjectBugs && state.View != router.ViewProjectBugs {
		m.deps.projectBugs.Retire()
	}

	m.screen = m.newScreen(state.View)
	m.screen.SetSize(m.bodySize())
	cmds = append(cmds, m.screen.Init())
	return tea.Batch(cmds...)
}

func (m *Model) newScreen(view router.View) screen {
	switch view {
	case router.ViewLogin:
		return newLoginScreen(m.deps)
	case router.ViewRegister:
		return newRegisterScreen(m.deps)
	case router.ViewDashboard:
		return newDashboardScreen(m.deps)
	case router.ViewBugs:
		return newBugsScreen(m.deps)
	case router.ViewCreateBug:
		return newBugFormScreen(m.deps)
	case router.ViewProjects:
		return newProjectsScreen(m.deps)
	case router.ViewProjectBugs:
		return newProjectBugsScreen(m.deps)
	case router.ViewProfile:
		return newProfileScreen(m.deps)
	default:
		return newLoadingScreen(&m.spinner)
	}
}

// fail reports err in the status bar. Stale loads and operations on a
// bug that has already left the list are not failures the user can act
// on. A rejected token ends the session.
func (m *Model) fail(err error, fallback string) tea.Cmd {
	if err == nil || errors.Is(err, bugcache.ErrStale) || errors.Is(err, bugcache.ErrNotCached) {
		return nil
	}
	if m.deps.session.Invalidate(err) {
		return tea.Batch(
			m.setNotice(slog.LevelWarn, "Your session has expired. Please sign in again."),
			m.apply(m.router.State()),
		)
	}
	return m.setNotice(slog.LevelError, tracker.Reason(err, fallback))
}

func (m *Model) setNotice(level slog.Level, text string) tea.Cmd {
	m.noticeSerial++
	m.notice = notice{text: text, level: level}
	serial := m.noticeSerial
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{serial: serial}
	})
}

// bodySize is the space between the header and the status bar.
func (m *Model) bodySize() (int, int) {
	return m.width, max(m.height-headerHeight-1, 1)
}

const headerHeight = 2

func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	body := lipgloss.NewStyle().Width(m.width).Height(max(m.height-headerHeight-1, 1)).
		MaxHeight(max(m.height-headerHeight-1, 1)).Render(m.screen.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatusBar())
}

var tabs = []struct {
	view  router.View
	label string
}{
	{router.ViewDashboard, "1 Dashboard"},
	{router.ViewBugs, "2 Bugs"},
	{router.ViewCreateBug, "3 Report"},
	{router.ViewProjects, "4 Projects"},
	{router.ViewProfile, "5 Profile"},
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.AccentColor).Render("bugdesk")
	border := lipgloss.NewStyle().Foreground(m.theme.BorderColor).Render(strings.Repeat("─", max(m.width, 1)))
	if m.state.Phase != router.PhaseAuthenticated {
		return title + "\n" + border
	}

	active := lipgloss.NewStyle().Bold(true).
		Foreground(m.theme.SelectedForeground).Background(m.theme.SelectedBackground).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(m.theme.FaintText).Padding(0, 1)
	parts := []string{title, " "}
	for _, tab := range tabs {
		selected := m.state.View == tab.view ||
			(tab.view == router.ViewProjects && m.state.View == router.ViewProjectBugs)
		if selected {
			parts = append(parts, active.Render(tab.label))
		} else {
			parts = append(parts, inactive.Render(tab.label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	right := ""
	if m.searching {
		right = m.search.View()
	} else if user, ok := m.deps.session.User(); ok {
		right = lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(user.DisplayName())
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right + "\n" + border
}

func (m *Model) renderStatusBar() string {
	if m.notice.text != "" {
		color := m.theme.FaintText
		switch {
		case m.notice.level >= slog.LevelError:
			color = m.theme.ErrorText
		case m.notice.level >= slog.LevelWarn:
			color = m.theme.WarningText
		case m.notice.level >= slog.LevelInfo:
			color = m.theme.SuccessText
		}
		return lipgloss.NewStyle().Foreground(color).MaxWidth(m.width).Render(m.notice.text)
	}

	bindings := m.screen.Help()
	if m.searching {
		bindings = []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "search")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "cancel")),
		}
	} else if m.state.Phase == router.PhaseAuthenticated && !m.screen.Capturing() {
		bindings = append(bindings, m.keys.GlobalSearch, m.keys.Logout, m.keys.Quit)
	}
	return renderHelp(m.theme, bindings, m.width)
}

// renderHelp lays out "key description" pairs on one line.
func renderHelp(theme Theme, bindings []key.Binding, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	descStyle := lipgloss.NewStyle().Foreground(theme.HelpText)
	var parts []string
	for _, binding := range bindings {
		help := binding.Help()
		if help.Key == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(help.Key)+" "+descStyle.Render(help.Desc))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, descStyle.Render("  ·  ")))
}

// Run starts the interface on the terminal and blocks until the user
// quits. Log records from logHandler, if non-nil, show up in the status
// bar.
func Run(ctx context.Context, config Config, logHandler *LogHandler) error {
	model, err := New(ctx, config)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if logHandler != nil {
		logHandler.SetProgram(program)
		defer logHandler.SetProgram(nil)
	}
	_, err = program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
