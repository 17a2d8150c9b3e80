// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formField is a labelled text input or, when choices is set, a
// choice cycled with the left and right keys.
type formField struct {
	label   string
	input   textinput.Model
	choices []choice
	chosen  int
}

type choice struct {
	value string
	label string
}

func newTextField(label, placeholder string) *formField {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	input.CharLimit = 500
	return &formField{label: label, input: input}
}

func newPasswordField(label string) *formField {
	field := newTextField(label, "")
	field.input.EchoMode = textinput.EchoPassword
	field.input.EchoCharacter = '•'
	return field
}

func newChoiceField(label string, choices []choice, initial string) *formField {
	field := &formField{label: label, choices: choices}
	field.choose(initial)
	return field
}

// choose selects the choice with value, if present.
func (field *formField) choose(value string) {
	for index, option := range field.choices {
		if option.value == value {
			field.chosen = index
			return
		}
	}
}

func (field *formField) value() string {
	if field.choices != nil {
		if len(field.choices) == 0 {
			return ""
		}
		return field.choices[field.chosen].value
	}
	return field.input.Value()
}

func (field *formField) clear() {
	if field.choices == nil {
		field.input.SetValue("")
	}
}

// form is a vertical list of fields with one focused at a time.
type form struct {
	keys   KeyMap
	fields []*formField
	focus  int
}

func newForm(keys KeyMap, fields ...*formField) *form {
	return &form{keys: keys, fields: fields}
}

// Focus focuses the current field and returns the cursor blink command.
func (f *form) Focus() tea.Cmd {
	for index, field := range f.fields {
		if field.choices == nil && index != f.focus {
			field.input.Blur()
		}
	}
	if current := f.fields[f.focus]; current.choices == nil {
		return current.input.Focus()
	}
	return nil
}

func (f *form) onLast() bool {
	return f.focus == len(f.fields)-1
}

func (f *form) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.Focus()
}

// Update handles field movement and editing. Submit keys are left to
// the owning screen.
func (f *form) Update(msg tea.KeyMsg) tea.Cmd {
	current := f.fields[f.focus]
	switch {
	case key.Matches(msg, f.keys.NextField):
		return f.move(1)
	case key.Matches(msg, f.keys.PrevField):
		return f.move(-1)
	}
	if current.choices != nil {
		if count := len(current.choices); count > 0 {
			switch {
			case key.Matches(msg, f.keys.Right):
				current.chosen = (current.chosen + 1) % count
			case key.Matches(msg, f.keys.Left):
				current.chosen = (current.chosen - 1 + count) % count
			}
		}
		return nil
	}
	var cmd tea.Cmd
	current.input, cmd = current.input.Update(msg)
	return cmd
}

func (f *form) View(theme Theme, width int) string {
	labelWidth := 0
	for _, field := range f.fields {
		labelWidth = max(labelWidth, lipgloss.Width(field.label))
	}
	labelStyle := lipgloss.NewStyle().Foreground(theme.FaintText).Width(labelWidth + 2)
	focusedLabel := labelStyle.Foreground(theme.AccentColor).Bold(true)
	inputWidth := max(width-labelWidth-4, 10)

	var lines []string
	for index, field := range f.fields {
		label := labelStyle.Render(field.label)
		if index == f.focus {
			label = focusedLabel.Render(field.label)
		}
		var value string
		if field.choices != nil {
			value = renderChoices(theme, field, index == f.focus)
		} else {
			field.input.Width = inputWidth
			value = field.input.View()
		}
		lines = append(lines, label+value)
	}
	return strings.Join(lines, "\n")
}

func renderChoices(theme Theme, field *formField, focused bool) string {
	if len(field.choices) == 0 {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("(none available)")
	}
	current := field.choices[field.chosen].label
	style := lipgloss.NewStyle().Foreground(theme.NormalText)
	if focused {
		style = style.Foreground(theme.SelectedForeground).Background(theme.SelectedBackground)
		return style.Render("‹ " + current + " ›")
	}
	return style.Render("  " + current)
}

// renderFormMessage renders an inline error or success line under a form.
func renderFormMessage(theme Theme, text string, isError bool) string {
	if text == "" {
		return ""
	}
	color := theme.SuccessText
	if isError {
		color = theme.ErrorText
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
