// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the signed-in identity: the bearer token, the
// current user, and the token's lifecycle across restarts.
//
// A [Manager] is created once per process and passed to whatever needs
// it. Consumers read it through [Manager.Snapshot] and learn about
// changes through [Manager.Subscribe]. The token and user always change
// together: no snapshot ever has one without the other.
//
// Every change to the token bumps a generation counter. Work started
// under one generation (the startup validation, a profile update) only
// applies its result if the generation is unchanged when the result
// arrives, so a late answer can never undo a newer login or logout.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/bugdesk/lib/secret"
	"github.com/bureau-foundation/bugdesk/lib/tokenstore"
	"github.com/bureau-foundation/bugdesk/tracker"
)

// Authenticator is the subset of the tracker API the manager uses.
// *tracker.Client implements it.
type Authenticator interface {
	Me(ctx context.Context, token string) (*tracker.User, error)
	Login(ctx context.Context, email string, password *secret.Buffer) (*tracker.Grant, error)
	Register(ctx context.Context, registration tracker.Registration) (*tracker.Grant, error)
	UpdateProfile(ctx context.Context, token string, patch tracker.ProfileUpdate) (*tracker.User, error)
	ChangePassword(ctx context.Context, token string, change tracker.PasswordChange) error
}

var _ Authenticator = (*tracker.Client)(nil)

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	// User is the signed-in user, nil when signed out.
	User *tracker.User
	// Validating is true from construction until Initialize finishes.
	Validating bool
	// Busy is true while a login or registration is in flight.
	Busy bool
	// Generation increases on every token change.
	Generation uint64
}

// Authenticated reports whether a validated user is present.
func (s Snapshot) Authenticated() bool { return s.User != nil }

// Loading reports whether startup validation or a credential exchange
// is in flight.
func (s Snapshot) Loading() bool { return s.Validating || s.Busy }

// Registered is the result of a successful registration.
type Registered struct {
	User tracker.User
	// Token is the newly issued bearer token, so callers can use the
	// session without another round trip.
	Token string
}

// Config holds the manager's collaborators.
type Config struct {
	// Authenticator performs the network calls. Required.
	Authenticator Authenticator
	// Store persists the token. If nil, a tokenstore.Memory is used and
	// nothing survives the process.
	Store tokenstore.Store
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Manager owns the session. It is safe for concurrent use.
type Manager struct {
	auth   Authenticator
	store  tokenstore.Store
	logger *slog.Logger

	mu          sync.Mutex
	token       *secret.Buffer
	user        *tracker.User
	validating  bool
	initialized bool
	busy        int
	generation  uint64

	// notifyMu serializes observer delivery so observers see snapshots
	// in the order state changed.
	notifyMu     sync.Mutex
	observers    map[uint64]func(Snapshot)
	nextObserver uint64
}

// New creates a manager in the validating state. Call Initialize to
// restore a persisted session.
func New(config Config) (*Manager, error) {
	if config.Authenticator == nil {
		return nil, fmt.Errorf("session: Authenticator is required")
	}
	store := config.Store
	if store == nil {
		store = tokenstore.NewMemory("")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		auth:       config.Authenticator,
		store:      store,
		logger:     logger,
		validating: true,
		observers:  make(map[uint64]func(Snapshot)),
	}, nil
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Validating: m.validating,
		Busy:       m.busy > 0,
		Generation: m.generation,
	}
	if m.user != nil {
		user := *m.user
		snapshot.User = &user
	}
	return snapshot
}

// User returns a copy of the signed-in user.
func (m *Manager) User() (tracker.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return tracker.User{}, false
	}
	return *m.user, true
}

// AccessToken returns the bearer token for API calls. It implements
// tracker.TokenSource. The token is only handed out once it has been
// validated (a user is present).
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || m.user == nil {
		return "", false
	}
	return m.token.String(), true
}

// TokenFingerprint identifies the current token in logs and status
// output without revealing it.
func (m *Manager) TokenFingerprint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return tokenstore.Fingerprint(m.token.Bytes())
}

// Subscribe registers fn to be called after every state change with the
// state at delivery time. Calls are serialized. fn must not call back
// into the manager's mutating methods. The returned function
// unsubscribes.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = fn

	return func() {
		m.notifyMu.Lock()
		defer m.notifyMu.Unlock()
		delete(m.observers, id)
	}
}

func (m *Manager) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	snapshot := m.Snapshot()
	for _, fn := range m.observers {
		fn(snapshot)
	}
}

// Initialize restores the persisted session. If a token is stored it is
// validated against the server; a rejected or unverifiable token is
// discarded. The validating state ends exactly once, on every path.
// Initialize returns an error describing why a stored token was dropped;
// callers usually just log it, since the user simply lands on the login
// screen.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return fmt.Errorf("session: Initialize called twice")
	}
	m.initialized = true
	generation := m.generation
	m.mu.Unlock()

	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn("cannot read persisted session", "error", err)
		m.finishValidation(generation, nil, nil)
		return tracker.Fail("restore session", "Stored session is unreadable", err)
	}
	if token == nil {
		m.logger.Debug("no persisted session")
		m.finishValidation(generation, nil, nil)
		return nil
	}

	m.logger.Debug("validating persisted session", "token_fingerprint", tokenstore.Fingerprint(token.Bytes()))
	user, err := m.auth.Me(ctx, token.String())
	if err != nil {
		token.Close()
		superseded := m.finishValidation(generation, nil, err)
		if superseded {
			return nil
		}
		return tracker.Fail("validate session", "Session expired", err)
	}
	m.finishValidation(generation, &validated{token: token, user: *user}, nil)
	return nil
}

type validated struct {
	token *secret.Buffer
	user  tracker.User
}

// finishValidation ends the validating state. result is the validated
// session, or nil. validationErr non-nil means the stored token must be
// dropped. It reports whether the outcome was discarded because the
// session changed while validation was in flight.
func (m *Manager) finishValidation(generation uint64, result *validated, validationErr error) (superseded bool) {
	m.mu.Lock()
	m.validating = false
	superseded = m.generation != generation

	switch {
	case superseded:
		if result != nil {
			result.token.Close()
		}
		m.logger.Info("startup validation superseded by a newer session change")
	case result != nil:
		m.token = result.token
		user := result.user
		m.user = &user
		m.logger.Info("session restored", "user_id", user.ID, "token_fingerprint", tokenstore.Fingerprint(result.token.Bytes()))
	case validationErr != nil:
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("cannot remove rejected session", "error", err)
		}
		m.logger.Info("persisted session rejected", "kind", tracker.KindOf(validationErr), "error", validationErr)
	}
	m.mu.Unlock()

	m.notify()
	return superseded
}

// Login exchanges credentials for a session. On success the token is
// persisted and the token and user are installed together; on failure
// the existing session is untouched. The password buffer is read, not
// closed.
func (m *Manager) Login(ctx context.Context, email string, password *secret.Buffer) (*tracker.User, error) {
	m.beginBusy()
	grant, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.endBusy()
		m.logger.Info("login failed", "email", email, "kind", tracker.KindOf(err))
		return nil, tracker.Fail("login", "Login failed", err)
	}
	user := m.install(grant)
	return &user, nil
}

// Register creates an account and installs its session, exactly as
// Login does, additionally returning the issued token.
func (m *Manager) Register(ctx context.Context, registration tracker.Registration) (*Registered, error) {
	m.beginBusy()
	grant, err := m.auth.Register(ctx, registration)
	if err != nil {
		m.endBusy()
		m.logger.Info("registration failed", "username", registration.Username, "kind", tracker.KindOf(err))
		return nil, tracker.Fail("register", "Registration failed", err)
	}
	token := grant.Token.String()
	user := m.install(grant)
	return &Registered{User: user, Token: token}, nil
}

func (m *Manager) beginBusy() {
	m.mu.Lock()
	m.busy++
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) endBusy() {
	m.mu.Lock()
	m.busy--
	m.mu.Unlock()
	m.notify()
}

// install makes grant the current session, ending one busy operation in
// the same critical section.
func (m *Manager) install(grant *tracker.Grant) tracker.User {
	m.mu.Lock()
	if err := m.store.Save(grant.Token); err != nil {
		// The session still works for this process; it just will not
		// survive a restart.
		m.logger.Warn("cannot persist session", "error", err)
	}
	previous := m.token
	m.token = grant.Token
	user := grant.User
	m.user = &user
	m.generation++
	m.busy--
	m.logger.Info("signed in", "user_id", user.ID, "token_fingerprint", tokenstore.Fingerprint(grant.Token.Bytes()))
	m.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	m.notify()
	return user
}

// Logout discards the session locally and from the token store. It
// makes no network call, cannot fail, and is idempotent.
func (m *Manager) Logout() {
	m.mu.Lock()
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("cannot remove persisted session", "error", err)
	}
	previous := m.token
	changed := m.token != nil || m.user != nil
	m.token = nil
	m.user = nil
	// A pending startup validation must not install its result after
	// this returns.
	if changed || m.validating {
		m.generation++
	}
	m.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	if changed {
		m.logger.Info("signed out")
		m.notify()
	}
}

// Invalidate ends the session if err shows the server rejected the
// token (HTTP 401). It reports whether the session was ended. Screens
// pass every authenticated-call failure through it so an expired token
// returns the user to the login screen instead of showing raw errors.
func (m *Manager) Invalidate(err error) bool {
	if !tracker.IsUnauthorized(err) {
		return false
	}
	m.mu.Lock()
	active := m.user != nil
	m.mu.Unlock()
	if !active {
		return false
	}
	m.logger.Info("session rejected by server", "error", err)
	m.Logout()
	return true
}

// authenticated returns the current token and generation, or
// ErrNotAuthenticated.
func (m *Manager) authenticated() (string, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || m.user == nil {
		return "", 0, tracker.ErrNotAuthenticated
	}
	return m.token.String(), m.generation, nil
}

// UpdateProfile applies patch and replaces the user with the server's
// returned profile. On failure the user is unchanged.
func (m *Manager) UpdateProfile(ctx context.Context, patch tracker.ProfileUpdate) (*tracker.User, error) {
	token, generation, err := m.authenticated()
	if err != nil {
		return nil, tracker.Fail("update profile", "Profile update failed", err)
	}
	if patch.IsEmpty() {
		return nil, tracker.Fail("update profile", "Profile update failed", &tracker.StateError{Reason: "nothing to update"})
	}

	updated, err := m.auth.UpdateProfile(ctx, token, patch)
	if err != nil {
		return nil, tracker.Fail("update profile", "Profile update failed", err)
	}

	m.mu.Lock()
	applied := m.generation == generation && m.user != nil
	if applied {
		user := *updated
		m.user = &user
	}
	m.mu.Unlock()

	if applied {
		m.logger.Info("profile updated", "user_id", updated.ID)
		m.notify()
	}
	return updated, nil
}

// ChangePassword changes the account password. It does not change any
// session state. Both buffers are read, not closed.
func (m *Manager) ChangePassword(ctx context.Context, change tracker.PasswordChange) error {
	token, _, err := m.authenticated()
	if err != nil {
		return tracker.Fail("change password", "Password change failed", err)
	}
	if err := m.auth.ChangePassword(ctx, token, change); err != nil {
		return tracker.Fail("change password", "Password change failed", err)
	}
	m.logger.Info("password changed")
	return nil
}
