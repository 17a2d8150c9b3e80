// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bureau-foundation/bugdesk/cmd/bugdesk/cli"
	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/config"
	"github.com/bureau-foundation/bugdesk/lib/session"
	"github.com/bureau-foundation/bugdesk/lib/tokenstore"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// configParams is embedded by every command that talks to the server.
type configParams struct {
	ConfigFile string `flag:"config" desc:"config file (default $BUGDESK_CONFIG, then ~/.config/bugdesk/config.yaml)"`
}

// load reads and validates the configuration.
func (p *configParams) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if p.ConfigFile != "" {
		cfg, err = config.LoadFile(p.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %w", err)
	}
	return cfg, nil
}

// stack is the client side of one server: the HTTP client, the token
// file and the session built on them.
type stack struct {
	config  *config.Config
	logger  *slog.Logger
	client  *tracker.Client
	tokens  *tokenstore.File
	session *session.Manager
	api     *tracker.Session
}

func openStack(cfg *config.Config, logger *slog.Logger) (*stack, error) {
	client, err := tracker.NewClient(tracker.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.APITimeout(),
		Logger:  logger,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	tokens, err := tokenstore.NewFile(tokenstore.FileConfig{
		Path:         cfg.Session.File,
		Server:       cfg.API.BaseURL,
		IdentityFile: cfg.Session.IdentityFile,
		Logger:       logger,
	})
	if err != nil {
		return nil, cli.Internal("opening session store: %w", err)
	}
	manager, err := session.New(session.Config{
		Authenticator: client,
		Store:         tokens,
		Logger:        logger,
	})
	if err != nil {
		tokens.Close()
		return nil, cli.Internal("%w", err)
	}
	return &stack{
		config:  cfg,
		logger:  logger,
		client:  client,
		tokens:  tokens,
		session: manager,
		api:     client.Authenticated(manager),
	}, nil
}

func (s *stack) Close() {
	if err := s.tokens.Close(); err != nil {
		s.logger.Warn("closing session store", "error", err)
	}
}

// restore validates the saved session and returns its user. No saved
// session is a not-found error pointing at "bugdesk login".
func (s *stack) restore(ctx context.Context) (tracker.User, error) {
	if err := s.session.Initialize(ctx); err != nil {
		return tracker.User{}, cli.FromTracker("restoring session", err)
	}
	user, ok := s.session.User()
	if !ok {
		return tracker.User{}, cli.NotFound("not signed in").WithHint(`Run "bugdesk login <email>" to sign in.`)
	}
	return user, nil
}

// resolveProject finds a project by id or by key (case-insensitive).
func (s *stack) resolveProject(ctx context.Context, reference string) (tracker.Project, error) {
	catalog := bugcache.NewProjects(s.api, s.logger)
	projects, err := catalog.Load(ctx)
	if err != nil {
		return tracker.Project{}, cli.FromTracker("loading projects", err)
	}
	if project, ok := catalog.Find(reference); ok {
		return project, nil
	}
	for _, project := range projects {
		if strings.EqualFold(project.Key, reference) {
			return project, nil
		}
	}
	return tracker.Project{}, cli.NotFound("no project with id or key %q", reference).
		WithHint(`Run "bugdesk projects list" to see the available projects.`)
}

// commandContext is cancelled by SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
