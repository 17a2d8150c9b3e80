// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bugcache holds the client's working copy of bugs and projects.
//
// A [Collection] is scoped to either every accessible bug or the bugs of
// one project. It changes only after the server confirms: creates are
// prepended once the server returns the canonical record, updates
// replace the record with the server's version, deletes remove it once
// acknowledged. A failed load leaves the collection empty rather than
// showing stale data.
//
// Loads are fenced. Each load takes the next sequence number for its
// scope, and switching scope (or retiring the collection) starts a new
// epoch. A response that is not from the latest load of the current
// epoch is dropped and its caller gets [ErrStale].
package bugcache

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/bureau-foundation/bugdesk/tracker"
)

// BugService is the slice of the tracker API a Collection uses.
// *tracker.Session implements it.
type BugService interface {
	ListBugs(ctx context.Context) ([]tracker.Bug, error)
	ListProjectBugs(ctx context.Context, projectID string) ([]tracker.Bug, error)
	CreateBug(ctx context.Context, input tracker.BugInput) (*tracker.Bug, error)
	UpdateBug(ctx context.Context, id string, patch tracker.BugPatch) (*tracker.Bug, error)
	DeleteBug(ctx context.Context, id string) error
}

var _ BugService = (*tracker.Session)(nil)

// ErrStale is returned by Load when a newer load or a scope change
// overtook it. The collection was not modified.
var ErrStale = errors.New("bugcache: load superseded")

// ErrNotCached is the cause of a mutation on an id that is not in the
// collection. No request is sent.
var ErrNotCached = &tracker.StateError{Reason: "bug is no longer in the list"}

// Scope selects which bugs a Collection holds. The zero value is every
// accessible bug.
type Scope struct {
	ProjectID string
}

// AllBugs is the scope of every bug the user can see.
func AllBugs() Scope { return Scope{} }

// ProjectScope is the scope of one project's bugs.
func ProjectScope(projectID string) Scope { return Scope{ProjectID: projectID} }

// IsProject reports whether the scope is limited to one project.
func (s Scope) IsProject() bool { return s.ProjectID != "" }

func (s Scope) String() string {
	if s.IsProject() {
		return "project:" + s.ProjectID
	}
	return "all"
}

// Contains reports whether bug belongs in a collection of this scope.
func (s Scope) Contains(bug tracker.Bug) bool {
	return !s.IsProject() || bug.ProjectID() == s.ProjectID
}

// Collection is safe for concurrent use.
type Collection struct {
	service BugService
	logger  *slog.Logger

	mu      sync.Mutex
	scope   Scope
	bugs    []tracker.Bug
	loading bool
	epoch   uint64
	latest  map[Scope]uint64
}

// NewCollection returns an empty collection scoped to all bugs. A nil
// logger means slog.Default().
func NewCollection(service BugService, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{
		service: service,
		logger:  logger,
		latest:  make(map[Scope]uint64),
	}
}

// Scope returns the collection's current scope.
func (c *Collection) Scope() Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Bugs returns a copy of the collection in display order.
func (c *Collection) Bugs() []tracker.Bug {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.bugs)
}

// Len returns the number of cached bugs.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bugs)
}

// Loading reports whether the latest load has not resolved yet.
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Find returns the cached bug with id.
func (c *Collection) Find(id string) (tracker.Bug, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := c.indexLocked(id)
	if index < 0 {
		return tracker.Bug{}, false
	}
	return c.bugs[index], true
}

func (c *Collection) indexLocked(id string) int {
	return slices.IndexFunc(c.bugs, func(bug tracker.Bug) bool { return bug.ID == id })
}

// Load replaces the collection with the server's bugs for scope. On
// failure the collection becomes empty and the error is returned. If a
// later load or a scope change overtakes this one, Load returns
// ErrStale and changes nothing.
func (c *Collection) Load(ctx context.Context, scope Scope) ([]tracker.Bug, error) {
	c.mu.Lock()
	if scope != c.scope {
		c.epoch++
		c.scope = scope
		c.bugs = nil
	}
	c.latest[scope]++
	sequence := c.latest[scope]
	epoch := c.epoch
	c.loading = true
	c.mu.Unlock()

	c.logger.Debug("loading bugs", "scope", scope.String(), "sequence", sequence)

	var (
		bugs []tracker.Bug
		err  error
	)
	if scope.IsProject() {
		bugs, err = c.service.ListProjectBugs(ctx, scope.ProjectID)
	} else {
		bugs, err = c.service.ListBugs(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || sequence != c.latest[scope] {
		c.logger.Debug("dropping stale bug load", "scope", scope.String(), "sequence", sequence)
		return nil, ErrStale
	}
	c.loading = false

	if err != nil {
		c.bugs = nil
		c.logger.Warn("bug load failed", "scope", scope.String(), "kind", tracker.KindOf(err), "error", err)
		return nil, tracker.Fail("load bugs", "Failed to fetch bugs", err)
	}

	c.bugs = dedupe(bugs)
	c.logger.Debug("bugs loaded", "scope", scope.String(), "count", len(c.bugs))
	return slices.Clone(c.bugs), nil
}

// dedupe keeps the first record for each id.
func dedupe(bugs []tracker.Bug) []tracker.Bug {
	seen := make(map[string]bool, len(bugs))
	result := make([]tracker.Bug, 0, len(bugs))
	for _, bug := range bugs {
		if seen[bug.ID] {
			continue
		}
		seen[bug.ID] = true
		result = append(result, bug)
	}
	return result
}

// Create submits input and, once the server returns the created record,
// prepends it if it belongs to the current scope. Invalid input is
// refused without a request.
func (c *Collection) Create(ctx context.Context, input tracker.BugInput) (*tracker.Bug, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, tracker.Fail("create bug", "Invalid bug", &tracker.StateError{Reason: err.Error()})
	}

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	created, err := c.service.CreateBug(ctx, input)
	if err != nil {
		c.logger.Warn("bug create failed", "kind", tracker.KindOf(err), "error", err)
		return nil, tracker.Fail("create bug", "Failed to create bug", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch && c.scope.Contains(*created) && c.indexLocked(created.ID) < 0 {
		c.bugs = slices.Insert(c.bugs, 0, *created)
	}
	c.logger.Info("bug created", "id", created.ID, "bug_number", created.BugNumber)
	return created, nil
}

// UpdateField sends patch for the bug with id and replaces the cached
// record with the server's representation. On failure the record is
// unchanged.
func (c *Collection) UpdateField(ctx context.Context, id string, patch tracker.BugPatch) (*tracker.Bug, error) {
	c.mu.Lock()
	cached := c.indexLocked(id) >= 0
	epoch := c.epoch
	c.mu.Unlock()
	if !cached {
		return nil, tracker.Fail("update bug", "Bug not found", ErrNotCached)
	}

	updated, err := c.service.UpdateBug(ctx, id, patch)
	if err != nil {
		c.logger.Warn("bug update failed", "id", id, "kind", tracker.KindOf(err), "error", err)
		return nil, tracker.Fail("update bug", "Failed to update bug", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		if index := c.indexLocked(id); index >= 0 {
			c.bugs[index] = *updated
		}
	}
	c.logger.Info("bug updated", "id", id, "status", updated.Status)
	return updated, nil
}

// Delete removes the bug with id on the server, then locally.
func (c *Collection) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	cached := c.indexLocked(id) >= 0
	epoch := c.epoch
	c.mu.Unlock()
	if !cached {
		return tracker.Fail("delete bug", "Bug not found", ErrNotCached)
	}

	if err := c.service.DeleteBug(ctx, id); err != nil {
		c.logger.Warn("bug delete failed", "id", id, "kind", tracker.KindOf(err), "error", err)
		return tracker.Fail("delete bug", "Failed to delete bug", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		if index := c.indexLocked(id); index >= 0 {
			c.bugs = slices.Delete(c.bugs, index, index+1)
		}
	}
	c.logger.Info("bug deleted", "id", id)
	return nil
}

// Retire empties the collection and drops the results of anything in
// flight. Used when the owner goes away (sign-out, a closed project
// view); a later Load starts fresh.
func (c *Collection) Retire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.bugs = nil
	c.loading = false
}
