// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries a slog record into the model for display in
// the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// noticeFadeMsg clears the status bar notice with the matching serial.
// A newer notice bumps the serial, so an older fade timer is a no-op.
type noticeFadeMsg struct {
	serial int
}

// noticeFadeDelay is how long a notice stays in the status bar.
const noticeFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that delivers records into a running
// bubbletea program. Records below the level are dropped, as is
// everything logged before SetProgram.
//
// Handlers derived with WithAttrs and WithGroup share the program
// pointer, so one SetProgram call reaches all of them.
type LogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []string
	prefix  string
}

// NewLogHandler creates a handler that delivers records at or above
// level. Call SetProgram once the tea.Program exists.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives records. Safe to call from
// any goroutine.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record as "message (key=value, ...)" and sends it
// to the program. Send blocks until the event loop receives, and
// records can be emitted from inside Update, so delivery happens on
// its own goroutine.
func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	message := logRecordMsg{Summary: handler.summarize(record), Level: record.Level}
	go program.Send(message)
	return nil
}

func (handler *LogHandler) summarize(record slog.Record) string {
	parts := append([]string(nil), handler.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, handler.prefix+attr.Key+"="+attr.Value.String())
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := handler.clone()
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, handler.prefix+attr.Key+"="+attr.Value.String())
	}
	return derived
}

func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := handler.clone()
	derived.prefix = handler.prefix + name + "."
	return derived
}

func (handler *LogHandler) clone() *LogHandler {
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append([]string(nil), handler.attrs...),
		prefix:  handler.prefix,
	}
}
