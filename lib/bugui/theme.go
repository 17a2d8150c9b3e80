// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bugdesk/tracker"
)

// Theme defines the color palette for the interface.
type Theme struct {
	NormalText         lipgloss.Color
	FaintText          lipgloss.Color
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color
	HeaderForeground   lipgloss.Color
	AccentColor        lipgloss.Color
	BorderColor        lipgloss.Color
	HelpText           lipgloss.Color
	MatchHighlight     lipgloss.Color

	ErrorText   lipgloss.Color
	WarningText lipgloss.Color
	SuccessText lipgloss.Color

	// StatusOpen is green, StatusInProgress amber, StatusResolved blue
	// and StatusClosed gray on the dark palette.
	StatusOpen       lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusResolved   lipgloss.Color
	StatusClosed     lipgloss.Color

	PriorityCritical lipgloss.Color
	PriorityHigh     lipgloss.Color
	PriorityMedium   lipgloss.Color
	PriorityLow      lipgloss.Color

	// Markdown.
	HeadingColor lipgloss.Color
	CodeColor    lipgloss.Color
	LinkColor    lipgloss.Color
	QuoteColor   lipgloss.Color

	// ChromaStyle names the chroma style used for fenced code blocks.
	ChromaStyle string
}

// DefaultTheme is the palette for dark terminals.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("245"),
	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("255"),
	AccentColor:        lipgloss.Color("75"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("241"),
	MatchHighlight:     lipgloss.Color("214"),

	ErrorText:   lipgloss.Color("196"),
	WarningText: lipgloss.Color("220"),
	SuccessText: lipgloss.Color("114"),

	StatusOpen:       lipgloss.Color("114"),
	StatusInProgress: lipgloss.Color("220"),
	StatusResolved:   lipgloss.Color("75"),
	StatusClosed:     lipgloss.Color("245"),

	PriorityCritical: lipgloss.Color("196"),
	PriorityHigh:     lipgloss.Color("208"),
	PriorityMedium:   lipgloss.Color("220"),
	PriorityLow:      lipgloss.Color("245"),

	HeadingColor: lipgloss.Color("75"),
	CodeColor:    lipgloss.Color("180"),
	LinkColor:    lipgloss.Color("111"),
	QuoteColor:   lipgloss.Color("245"),

	ChromaStyle: "monokai",
}

// LightTheme is the palette for light terminals.
var LightTheme = Theme{
	NormalText:         lipgloss.Color("235"),
	FaintText:          lipgloss.Color("242"),
	SelectedBackground: lipgloss.Color("253"),
	SelectedForeground: lipgloss.Color("232"),
	HeaderForeground:   lipgloss.Color("232"),
	AccentColor:        lipgloss.Color("25"),
	BorderColor:        lipgloss.Color("248"),
	HelpText:           lipgloss.Color("244"),
	MatchHighlight:     lipgloss.Color("166"),

	ErrorText:   lipgloss.Color("160"),
	WarningText: lipgloss.Color("136"),
	SuccessText: lipgloss.Color("28"),

	StatusOpen:       lipgloss.Color("28"),
	StatusInProgress: lipgloss.Color("136"),
	StatusResolved:   lipgloss.Color("25"),
	StatusClosed:     lipgloss.Color("244"),

	PriorityCritical: lipgloss.Color("160"),
	PriorityHigh:     lipgloss.Color("166"),
	PriorityMedium:   lipgloss.Color("136"),
	PriorityLow:      lipgloss.Color("244"),

	HeadingColor: lipgloss.Color("25"),
	CodeColor:    lipgloss.Color("94"),
	LinkColor:    lipgloss.Color("26"),
	QuoteColor:   lipgloss.Color("242"),

	ChromaStyle: "github",
}

// ThemeNamed returns the palette for a config ui.theme value. "auto"
// asks the terminal for its background color.
func ThemeNamed(name string) (Theme, error) {
	switch name {
	case "", "auto":
		if lipgloss.HasDarkBackground() {
			return DefaultTheme, nil
		}
		return LightTheme, nil
	case "dark":
		return DefaultTheme, nil
	case "light":
		return LightTheme, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

// StatusColor returns the color for a bug status.
func (t Theme) StatusColor(status tracker.Status) lipgloss.Color {
	switch status {
	case tracker.StatusOpen:
		return t.StatusOpen
	case tracker.StatusInProgress:
		return t.StatusInProgress
	case tracker.StatusResolved:
		return t.StatusResolved
	case tracker.StatusClosed:
		return t.StatusClosed
	default:
		return t.FaintText
	}
}

// PriorityColor returns the color for a bug priority.
func (t Theme) PriorityColor(priority tracker.Priority) lipgloss.Color {
	switch priority {
	case tracker.PriorityCritical:
		return t.PriorityCritical
	case tracker.PriorityHigh:
		return t.PriorityHigh
	case tracker.PriorityMedium:
		return t.PriorityMedium
	case tracker.PriorityLow:
		return t.PriorityLow
	default:
		return t.FaintText
	}
}
