// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugcache

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/bureau-foundation/bugdesk/tracker"
)

// ProjectService is the slice of the tracker API the project catalog
// uses. *tracker.Session implements it.
type ProjectService interface {
	ListProjects(ctx context.Context) ([]tracker.Project, error)
	CreateProject(ctx context.Context, input tracker.ProjectInput) (*tracker.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

var _ ProjectService = (*tracker.Session)(nil)

// Projects is the catalog of projects the user can see. It follows the
// same rules as Collection: fenced fail-safe-empty loads, and mutations
// applied only after the server confirms.
type Projects struct {
	service ProjectService
	logger  *slog.Logger

	mu       sync.Mutex
	projects []tracker.Project
	loading  bool
	sequence uint64
}

// NewProjects returns an empty catalog. A nil logger means
// slog.Default().
func NewProjects(service ProjectService, logger *slog.Logger) *Projects {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projects{service: service, logger: logger}
}

// List returns a copy of the catalog.
func (p *Projects) List() []tracker.Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.projects)
}

// Loading reports whether the latest load has not resolved yet.
func (p *Projects) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Find returns the project with id.
func (p *Projects) Find(id string) (tracker.Project, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, project := range p.projects {
		if project.ID == id {
			return project, true
		}
	}
	return tracker.Project{}, false
}

// Load replaces the catalog from the server. On failure the catalog is
// empty; a load overtaken by a newer one returns ErrStale.
func (p *Projects) Load(ctx context.Context) ([]tracker.Project, error) {
	p.mu.Lock()
	p.sequence++
	sequence := p.sequence
	p.loading = true
	p.mu.Unlock()

	projects, err := p.service.ListProjects(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if sequence != p.sequence {
		return nil, ErrStale
	}
	p.loading = false
	if err != nil {
		p.projects = nil
		p.logger.Warn("project load failed", "kind", tracker.KindOf(err), "error", err)
		return nil, tracker.Fail("load projects", "Failed to fetch projects", err)
	}
	p.projects = projects
	return slices.Clone(projects), nil
}

// Create submits input and prepends the server's record. Invalid input
// is refused without a request.
func (p *Projects) Create(ctx context.Context, input tracker.ProjectInput) (*tracker.Project, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, tracker.Fail("create project", "Invalid project", &tracker.StateError{Reason: err.Error()})
	}

	created, err := p.service.CreateProject(ctx, input)
	if err != nil {
		p.logger.Warn("project create failed", "key", input.Key, "kind", tracker.KindOf(err), "error", err)
		return nil, tracker.Fail("create project", "Failed to create project", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.ContainsFunc(p.projects, func(project tracker.Project) bool { return project.ID == created.ID }) {
		p.projects = slices.Insert(p.projects, 0, *created)
	}
	p.logger.Info("project created", "id", created.ID, "key", created.Key)
	return created, nil
}

// Delete removes the project on the server, then locally.
func (p *Projects) Delete(ctx context.Context, id string) error {
	if _, ok := p.Find(id); !ok {
		return tracker.Fail("delete project", "Project not found", &tracker.StateError{Reason: "project is no longer in the list"})
	}
	if err := p.service.DeleteProject(ctx, id); err != nil {
		p.logger.Warn("project delete failed", "id", id, "kind", tracker.KindOf(err), "error", err)
		return tracker.Fail("delete project", "Failed to delete project", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.projects = slices.DeleteFunc(p.projects, func(project tracker.Project) bool { return project.ID == id })
	p.logger.Info("project deleted", "id", id)
	return nil
}

// Retire empties the catalog and discards any load in flight.
func (p *Projects) Retire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sequence++
	p.projects = nil
	p.loading = false
}
