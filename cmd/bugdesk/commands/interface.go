// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/bugui"
	"github.com/bureau-foundation/bugdesk/lib/config"
	"github.com/bureau-foundation/bugdesk/lib/router"
	bugsignal "github.com/bureau-foundation/bugdesk/lib/signal"
)

// runInterface runs the full-screen interface until the user quits.
// Hand-offs recorded by "bugdesk open" are moved into the in-memory
// channel first and choose the first screen shown after sign-in.
func runInterface(params *configParams) error {
	cfg, err := params.load()
	if err != nil {
		return err
	}
	theme, err := bugui.ThemeNamed(cfg.UI.Theme)
	if err != nil {
		return cli.Validation("%w", err)
	}

	logHandler := bugui.NewLogHandler(cfg.LogLevel())
	logger := slog.New(logHandler)

	stack, err := openStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	signals := bugsignal.NewChannel(bugsignal.Config{TTL: cfg.SignalTTL(), Logger: logger})
	startView := drainHandoff(handoffChannel(cfg, logger), signals)

	ctx, cancel := commandContext()
	defer cancel()

	err = bugui.Run(ctx, bugui.Config{
		Session:     stack.session,
		Router:      router.New(logger),
		Bugs:        bugcache.NewCollection(stack.api, logger),
		ProjectBugs: bugcache.NewCollection(stack.api, logger),
		Projects:    bugcache.NewProjects(stack.api, logger),
		Signals:     signals,
		Theme:       theme,
		Logger:      logger,
		StartView:   startView,
	}, logHandler)
	if err != nil {
		return cli.Internal("%w", err)
	}
	return nil
}

// handoffChannel opens the hand-off file shared with "bugdesk open".
func handoffChannel(cfg *config.Config, logger *slog.Logger) *bugsignal.Channel {
	path := cfg.Signals.File
	if path == "" {
		path = bugsignal.DefaultPath()
	}
	return bugsignal.NewChannel(bugsignal.Config{
		Store:  bugsignal.NewFile(path),
		TTL:    cfg.SignalTTL(),
		Logger: logger,
	})
}

// drainHandoff moves every pending hand-off from one channel to the
// other and returns the view that consumes them, or "" when there were
// none. A search or project filter outranks an opened project.
func drainHandoff(from, to *bugsignal.Channel) router.View {
	var view router.View
	if relay(from, to, bugsignal.ActiveProjectContext) {
		view = router.ViewProjectBugs
	}
	if relay(from, to, bugsignal.ProjectFilter) {
		view = router.ViewBugs
	}
	if relay(from, to, bugsignal.GlobalSearchQuery) {
		view = router.ViewBugs
	}
	return view
}

func relay[T any](from, to *bugsignal.Channel, key bugsignal.Key[T]) bool {
	value, ok := bugsignal.ReadAndClear(from, key)
	if !ok {
		return false
	}
	return bugsignal.Write(to, key, value) == nil
}
