// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/secret"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// minPasswordLength is the shortest new password the profile screen
// accepts.
const minPasswordLength = 6

type (
	profileSavedMsg struct {
		user *tracker.User
		err  error
	}
	passwordChangedMsg struct{ err error }
)

// profileScreen edits the signed-in user's profile and password. The
// form has two sections; submitting acts on the section holding focus.
type profileScreen struct {
	deps *deps
	form *form

	firstName *formField
	lastName  *formField
	username  *formField
	email     *formField
	current   *formField
	password  *formField
	confirm   *formField

	message string
	isError bool
	busy    bool
	width   int
	height  int
}

// passwordSection is the index of the first password field.
const passwordSection = 4

func newProfileScreen(d *deps) *profileScreen {
	s := &profileScreen{
		deps:      d,
		firstName: newTextField("First name", ""),
		lastName:  newTextField("Last name", ""),
		username:  newTextField("Username", ""),
		email:     newTextField("Email", ""),
		current:   newPasswordField("Current password"),
		password:  newPasswordField("New password"),
		confirm:   newPasswordField("Confirm new password"),
	}
	s.form = newForm(d.keys, s.firstName, s.lastName, s.username, s.email, s.current, s.password, s.confirm)
	if user, ok := d.session.User(); ok {
		s.fill(user)
	}
	return s
}

func (s *profileScreen) fill(user tracker.User) {
	s.firstName.input.SetValue(user.FirstName)
	s.lastName.input.SetValue(user.LastName)
	s.username.input.SetValue(user.Username)
	s.email.input.SetValue(user.Email)
}

func (s *profileScreen) Init() tea.Cmd             { return s.form.Focus() }
func (s *profileScreen) SetSize(width, height int) { s.width, s.height = width, height }
func (s *profileScreen) Capturing() bool           { return true }

func (s *profileScreen) Help() []key.Binding {
	keys := s.deps.keys
	action := "save profile"
	if s.form.focus >= passwordSection {
		action = "change password"
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("C-s", action)),
		keys.NextField,
		keys.Back,
	}
}

func (s *profileScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case profileSavedMsg:
		s.busy = false
		if msg.err != nil {
			s.setMessage(tracker.Reason(msg.err, "Profile update failed"), true)
			return reportFailure(msg.err, "Profile update failed")
		}
		s.fill(*msg.user)
		s.setMessage("Profile updated successfully!", false)
		return nil

	case passwordChangedMsg:
		s.busy = false
		s.current.clear()
		s.password.clear()
		s.confirm.clear()
		if msg.err != nil {
			s.setMessage(tracker.Reason(msg.err, "Password change failed"), true)
			return reportFailure(msg.err, "Password change failed")
		}
		s.setMessage("Password changed successfully!", false)
		return nil

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
			if s.form.focus == passwordSection-1 || s.form.onLast() {
				return s.submit()
			}
			return s.form.move(1)
		}
		return s.form.Update(msg)
	}
	return nil
}

func (s *profileScreen) setMessage(text string, isError bool) {
	s.message = text
	s.isError = isError
}

func (s *profileScreen) submit() tea.Cmd {
	s.setMessage("", false)
	if s.form.focus >= passwordSection {
		return s.changePassword()
	}
	return s.saveProfile()
}

func (s *profileScreen) saveProfile() tea.Cmd {
	patch := tracker.ProfileUpdate{
		FirstName: strings.TrimSpace(s.firstName.value()),
		LastName:  strings.TrimSpace(s.lastName.value()),
		Username:  strings.TrimSpace(s.username.value()),
		Email:     strings.TrimSpace(s.email.value()),
	}
	s.busy = true
	d := s.deps
	return func() tea.Msg {
		user, err := d.session.UpdateProfile(d.ctx, patch)
		return profileSavedMsg{user: user, err: err}
	}
}

func (s *profileScreen) changePassword() tea.Cmd {
	current, next := s.current.value(), s.password.value()
	if next != s.confirm.value() {
		s.setMessage("New passwords do not match", true)
		return nil
	}
	if len(next) < minPasswordLength {
		s.setMessage("New password must be at least 6 characters", true)
		return nil
	}
	s.busy = true
	d := s.deps
	return func() tea.Msg {
		currentBuffer, err := secret.NewFromString(current)
		if err != nil {
			return passwordChangedMsg{err: err}
		}
		defer currentBuffer.Close()
		nextBuffer, err := secret.NewFromString(next)
		if err != nil {
			return passwordChangedMsg{err: err}
		}
		defer nextBuffer.Close()
		err = d.session.ChangePassword(d.ctx, tracker.PasswordChange{Current: currentBuffer, New: nextBuffer})
		return passwordChangedMsg{err: err}
	}
}

func (s *profileScreen) View() string {
	theme := s.deps.theme
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	title := "Profile"
	if user, ok := s.deps.session.User(); ok {
		title = user.DisplayName()
		if user.Role != "" {
			title += faint.Render("  " + user.Role)
		}
	}

	lines := strings.Split(s.form.View(theme, min(s.width, 90)), "\n")
	body := heading.Render(title) + "\n\n" +
		heading.Render("Account details") + "\n" + strings.Join(lines[:passwordSection], "\n") + "\n\n" +
		heading.Render("Change password") + "\n" + strings.Join(lines[passwordSection:], "\n")

	switch {
	case s.busy:
		body += "\n\n" + faint.Render("Saving...")
	case s.message != "":
		body += "\n\n" + renderFormMessage(theme, s.message, s.isError)
	}
	return body
}
