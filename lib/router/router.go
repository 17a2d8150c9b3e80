// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package router is the top-level view state machine. It decides which
// screen is active from the session state and the user's navigation
// requests:
//
//	loading
//	unauthenticated:{login, register}
//	authenticated:{dashboard, bugs, create-bug, projects, project-bugs, profile}
//
// The router never talks to the network. It is fed session snapshots
// (directly through [Router.Evaluate], or by [Router.Bind]) and
// navigation requests from screens, and answers with the [State] to
// render.
package router

import (
	"log/slog"
	"sync"

	"github.com/bureau-foundation/bugdesk/lib/session"
)

// View names a screen.
type View string

const (
	ViewLoading     View = "loading"
	ViewLogin       View = "login"
	ViewRegister    View = "register"
	ViewDashboard   View = "dashboard"
	ViewBugs        View = "bugs"
	ViewCreateBug   View = "create-bug"
	ViewProjects    View = "projects"
	ViewProjectBugs View = "project-bugs"
	ViewProfile     View = "profile"
)

// AuthenticatedViews lists the screens reachable by navigation, in menu
// order.
var AuthenticatedViews = []View{
	ViewDashboard,
	ViewBugs,
	ViewCreateBug,
	ViewProjects,
	ViewProjectBugs,
	ViewProfile,
}

// ParseView returns the authenticated view named by name, or false.
func ParseView(name string) (View, bool) {
	for _, view := range AuthenticatedViews {
		if string(view) == name {
			return view, true
		}
	}
	return "", false
}

// Phase is the top-level gate.
type Phase string

const (
	PhaseLoading         Phase = "loading"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseAuthenticated   Phase = "authenticated"
)

// State is the router's output: which phase, and which screen within it.
type State struct {
	Phase Phase
	View  View
}

// Loading is the startup state.
var Loading = State{Phase: PhaseLoading, View: ViewLoading}

func (s State) String() string {
	if s.Phase == PhaseLoading {
		return string(PhaseLoading)
	}
	return string(s.Phase) + ":" + string(s.View)
}

// SessionSource is what Bind needs from the session. *session.Manager
// implements it.
type SessionSource interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (cancel func())
}

var _ SessionSource = (*session.Manager)(nil)

// Router is safe for concurrent use.
type Router struct {
	logger *slog.Logger

	mu sync.Mutex
	// started is set once startup validation has finished. The router
	// never returns to loading afterwards.
	started  bool
	state    State
	authView View
	view     View

	// generation is the session generation seen by the last evaluation.
	generation uint64

	// holdLogin keeps the router on the login screen after a successful
	// registration, even though the session is authenticated, until the
	// session generation moves past holdGeneration.
	holdLogin      bool
	holdGeneration uint64
}

// New returns a router in the loading state. A nil logger means
// slog.Default().
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:   logger,
		state:    Loading,
		authView: ViewLogin,
		view:     ViewDashboard,
	}
}

// State returns the current state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Evaluate folds a session snapshot into the state machine and returns
// the resulting state.
func (r *Router) Evaluate(snapshot session.Snapshot) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evaluateLocked(snapshot)
}

func (r *Router) evaluateLocked(snapshot session.Snapshot) State {
	if !r.started {
		if snapshot.Validating {
			return r.state
		}
		r.started = true
	}

	authenticated := snapshot.Authenticated()

	// A session that appears while the register form is showing came
	// from that registration. Hold on login until the user signs in.
	registerForm := State{Phase: PhaseUnauthenticated, View: ViewRegister}
	if authenticated && r.state == registerForm && snapshot.Generation != r.generation {
		r.holdLogin = true
		r.holdGeneration = snapshot.Generation
		r.authView = ViewLogin
		r.logger.Info("registration complete, sign in to continue")
	}
	if r.holdLogin && (!authenticated || snapshot.Generation != r.holdGeneration) {
		r.holdLogin = false
	}
	r.generation = snapshot.Generation

	var next State
	if authenticated && !r.holdLogin {
		if r.state.Phase != PhaseAuthenticated {
			r.view = ViewDashboard
		}
		next = State{Phase: PhaseAuthenticated, View: r.view}
	} else {
		if r.state.Phase == PhaseAuthenticated {
			r.authView = ViewLogin
		}
		next = State{Phase: PhaseUnauthenticated, View: r.authView}
	}
	r.transition(next)
	return next
}

func (r *Router) transition(next State) {
	if next != r.state {
		r.logger.Debug("view changed", "from", r.state.String(), "to", next.String())
	}
	r.state = next
}

// Navigate switches between authenticated screens. Unknown targets fall
// back to the dashboard. Outside the authenticated phase the request is
// ignored.
func (r *Router) Navigate(view View) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != PhaseAuthenticated {
		r.logger.Debug("navigation ignored", "state", r.state.String(), "to", string(view))
		return r.state
	}
	if _, ok := ParseView(string(view)); !ok {
		r.logger.Warn("unknown view, showing dashboard", "view", string(view))
		view = ViewDashboard
	}
	r.view = view
	r.transition(State{Phase: PhaseAuthenticated, View: view})
	return r.state
}

// ShowLogin switches the auth screens to the login form.
func (r *Router) ShowLogin() State {
	return r.showAuth(ViewLogin)
}

// ShowRegister switches the auth screens to the registration form.
func (r *Router) ShowRegister() State {
	return r.showAuth(ViewRegister)
}

// ToggleAuthView flips between the login and registration forms.
func (r *Router) ToggleAuthView() State {
	r.mu.Lock()
	target := ViewRegister
	if r.authView == ViewRegister {
		target = ViewLogin
	}
	r.mu.Unlock()
	return r.showAuth(target)
}

func (r *Router) showAuth(view View) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != PhaseUnauthenticated {
		return r.state
	}
	r.authView = view
	r.transition(State{Phase: PhaseUnauthenticated, View: view})
	return r.state
}

// Bind evaluates the source's current snapshot and every later one,
// calling onChange whenever the resulting state differs from the last
// one delivered. The returned function stops the subscription.
func (r *Router) Bind(source SessionSource, onChange func(State)) (cancel func()) {
	var (
		mu        sync.Mutex
		delivered State
	)
	deliver := func(snapshot session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		state := r.Evaluate(snapshot)
		if state != delivered {
			delivered = state
			onChange(state)
		}
	}

	cancel = source.Subscribe(deliver)
	deliver(source.Snapshot())
	return cancel
}
