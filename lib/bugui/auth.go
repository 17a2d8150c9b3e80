// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/lib/secret"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// loadingScreen is shown until the persisted session has been checked.
type loadingScreen struct {
	spinner *spinner.Model
	width   int
	height  int
}

func newLoadingScreen(indicator *spinner.Model) *loadingScreen {
	return &loadingScreen{spinner: indicator}
}

func (s *loadingScreen) Init() tea.Cmd             { return nil }
func (s *loadingScreen) Update(tea.Msg) tea.Cmd    { return nil }
func (s *loadingScreen) SetSize(width, height int) { s.width, s.height = width, height }
func (s *loadingScreen) Help() []key.Binding       { return nil }
func (s *loadingScreen) Capturing() bool           { return false }

func (s *loadingScreen) View() string {
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center,
		s.spinner.View()+" Loading bugdesk...")
}

// authCard centers a titled form card.
func authCard(theme Theme, width, height int, title, subtitle, body string) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(title)
	sub := lipgloss.NewStyle().Foreground(theme.FaintText).Render(subtitle)
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(1, 2).
		Width(min(max(width-4, 30), 64)).
		Render(heading + "\n" + sub + "\n\n" + body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

type loginScreen struct {
	deps   *deps
	form   *form
	email  *formField
	secret *formField
	err    string
	busy   bool
	width  int
	height int
}

func newLoginScreen(d *deps) *loginScreen {
	email := newTextField("Email", "you@example.com")
	password := newPasswordField("Password")
	return &loginScreen{
		deps:   d,
		form:   newForm(d.keys, email, password),
		email:  email,
		secret: password,
	}
}

func (s *loginScreen) Init() tea.Cmd             { return s.form.Focus() }
func (s *loginScreen) SetSize(width, height int) { s.width, s.height = width, height }
func (s *loginScreen) Capturing() bool           { return true }

func (s *loginScreen) Help() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "sign in")),
		s.deps.keys.NextField,
		s.deps.keys.ToggleAuth,
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
	}
}

func (s *loginScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		s.busy = false
		if msg.err != nil {
			s.err = tracker.Reason(msg.err, "Login failed")
			s.secret.clear()
		}
		return nil
	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch {
		case key.Matches(msg, s.deps.keys.ToggleAuth):
			return func() tea.Msg { return toggleAuthMsg{} }
		case msg.Type == tea.KeyEnter && !s.form.onLast():
			return s.form.move(1)
		case msg.Type == tea.KeyEnter, key.Matches(msg, s.deps.keys.Submit):
			return s.submit()
		}
		return s.form.Update(msg)
	}
	return nil
}

func (s *loginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.email.value())
	password := s.secret.value()
	if email == "" || password == "" {
		s.err = "Email and password are required"
		return nil
	}
	s.err = ""
	s.busy = true
	d := s.deps
	return func() tea.Msg {
		buffer, err := secret.NewFromString(password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		defer buffer.Close()
		_, err = d.session.Login(d.ctx, email, buffer)
		return loginResultMsg{err: err}
	}
}

func (s *loginScreen) View() string {
	body := s.form.View(s.deps.theme, 48)
	if s.busy {
		body += "\n\n" + lipgloss.NewStyle().Foreground(s.deps.theme.FaintText).Render("Signing in...")
	} else if s.err != "" {
		body += "\n\n" + renderFormMessage(s.deps.theme, s.err, true)
	}
	return authCard(s.deps.theme, s.width, s.height, "Sign in", "Track and squash bugs with your team.", body)
}

type registerScreen struct {
	deps      *deps
	form      *form
	username  *formField
	email     *formField
	firstName *formField
	lastName  *formField
	password  *formField
	confirm   *formField
	err       string
	busy      bool
	width     int
	height    int
}

func newRegisterScreen(d *deps) *registerScreen {
	s := &registerScreen{
		deps:      d,
		username:  newTextField("Username", ""),
		email:     newTextField("Email", "you@example.com"),
		firstName: newTextField("First name", ""),
		lastName:  newTextField("Last name", ""),
		password:  newPasswordField("Password"),
		confirm:   newPasswordField("Confirm"),
	}
	s.form = newForm(d.keys, s.username, s.email, s.firstName, s.lastName, s.password, s.confirm)
	return s
}

func (s *registerScreen) Init() tea.Cmd             { return s.form.Focus() }
func (s *registerScreen) SetSize(width, height int) { s.width, s.height = width, height }
func (s *registerScreen) Capturing() bool           { return true }

func (s *registerScreen) Help() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "next / register")),
		s.deps.keys.NextField,
		s.deps.keys.ToggleAuth,
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
	}
}

func (s *registerScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case registerResultMsg:
		s.busy = false
		if msg.err != nil {
			s.err = tracker.Reason(msg.err, "Registration failed")
		}
		return nil
	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch {
		case key.Matches(msg, s.deps.keys.ToggleAuth):
			return func() tea.Msg { return toggleAuthMsg{} }
		case msg.Type == tea.KeyEnter && !s.form.onLast():
			return s.form.move(1)
		case msg.Type == tea.KeyEnter, key.Matches(msg, s.deps.keys.Submit):
			return s.submit()
		}
		return s.form.Update(msg)
	}
	return nil
}

func (s *registerScreen) submit() tea.Cmd {
	password := s.password.value()
	if password != s.confirm.value() {
		s.err = "Passwords do not match"
		return nil
	}
	registration := tracker.Registration{
		Username:  strings.TrimSpace(s.username.value()),
		Email:     strings.TrimSpace(s.email.value()),
		FirstName: strings.TrimSpace(s.firstName.value()),
		LastName:  strings.TrimSpace(s.lastName.value()),
	}
	if password == "" {
		s.err = "password is required"
		return nil
	}
	s.err = ""
	s.busy = true
	d := s.deps
	return func() tea.Msg {
		buffer, err := secret.NewFromString(password)
		if err != nil {
			return registerResultMsg{err: err}
		}
		defer buffer.Close()
		registration.Password = buffer
		if err := registration.Validate(); err != nil {
			return registerResultMsg{err: &tracker.StateError{Reason: joinedReason(err)}}
		}
		_, err = d.session.Register(d.ctx, registration)
		return registerResultMsg{err: err}
	}
}

// joinedReason flattens an errors.Join result to one line.
func joinedReason(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var parts []string
		for _, inner := range joined.Unwrap() {
			parts = append(parts, inner.Error())
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

func (s *registerScreen) View() string {
	body := s.form.View(s.deps.theme, 48)
	if s.busy {
		body += "\n\n" + lipgloss.NewStyle().Foreground(s.deps.theme.FaintText).Render("Creating account...")
	} else if s.err != "" {
		body += "\n\n" + renderFormMessage(s.deps.theme, s.err, true)
	}
	return authCard(s.deps.theme, s.width, s.height, "Create an account", "Register, then sign in with your new account.", body)
}
