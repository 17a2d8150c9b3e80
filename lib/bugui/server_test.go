// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/bugdesk/lib/bugcache"
	"github.com/bureau-foundation/bugdesk/lib/router"
	"github.com/bureau-foundation/bugdesk/lib/session"
	"github.com/bureau-foundation/bugdesk/lib/signal"
	"github.com/bureau-foundation/bugdesk/lib/tokenstore"
	"github.com/bureau-foundation/bugdesk/tracker"
)

const (
	testToken    = "tok-1"
	testEmail    = "dev@example.com"
	testPassword = "correct-horse"
)

var testUser = tracker.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: testEmail}

// trackerServer is an in-memory bug tracker API.
type trackerServer struct {
	mu       sync.Mutex
	bugs     []tracker.Bug
	projects []tracker.Project
	revoked  bool
	server   *httptest.Server
}

func newTrackerServer(t *testing.T) *trackerServer {
	t.Helper()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := &trackerServer{
		projects: []tracker.Project{
			{ID: "p1", Name: "Web Portal", Key: "WEB", Status: tracker.ProjectActive},
			{ID: "p2", Name: "Mobile App", Key: "MOB", Status: tracker.ProjectActive},
		},
		bugs: []tracker.Bug{
			{
				ID: "b1", BugNumber: "WEB-001", Title: "Login page broken",
				Description: "The **login** button does nothing.",
				Status:      tracker.StatusOpen, Priority: tracker.PriorityHigh,
				Tags: []string{"auth"}, Project: &tracker.ProjectRef{ID: "p1"}, CreatedAt: created,
			},
			{
				ID: "b2", BugNumber: "MOB-001", Title: "Mobile issue",
				Description: "Crash on rotate",
				Status:      tracker.StatusInProgress, Priority: tracker.PriorityMedium,
				Tags: []string{"android"}, Project: &tracker.ProjectRef{ID: "p2"}, CreatedAt: created,
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(request.Body).Decode(&body)
		if body.Email != testEmail || body.Password != testPassword {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		fake.mu.Lock()
		fake.revoked = false
		fake.mu.Unlock()
		writeJSON(writer, http.StatusOK, map[string]any{"token": testToken, "user": testUser})
	})
	mux.HandleFunc("GET /auth/me", fake.authorized(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"user": testUser})
	}))
	mux.HandleFunc("GET /bugs", fake.authorized(func(writer http.ResponseWriter, request *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		writeJSON(writer, http.StatusOK, map[string]any{"bugs": fake.bugs})
	}))
	mux.HandleFunc("GET /projects/{id}/bugs", fake.authorized(func(writer http.ResponseWriter, request *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		var bugs []tracker.Bug
		for _, bug := range fake.bugs {
			if bug.ProjectID() == request.PathValue("id") {
				bugs = append(bugs, bug)
			}
		}
		writeJSON(writer, http.StatusOK, map[string]any{"bugs": bugs})
	}))
	mux.HandleFunc("PUT /bugs/{id}", fake.authorized(func(writer http.ResponseWriter, request *http.Request) {
		var patch tracker.BugPatch
		json.NewDecoder(request.Body).Decode(&patch)
		fake.mu.Lock()
		defer fake.mu.Unlock()
		index := slices.IndexFunc(fake.bugs, func(bug tracker.Bug) bool { return bug.ID == request.PathValue("id") })
		if index < 0 {
			writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Bug not found"})
			return
		}
		if patch.Status != nil {
			fake.bugs[index].Status = *patch.Status
		}
		writeJSON(writer, http.StatusOK, fake.bugs[index])
	}))
	mux.HandleFunc("GET /projects", fake.authorized(func(writer http.ResponseWriter, request *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		writeJSON(writer, http.StatusOK, fake.projects)
	}))

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func (fake *trackerServer) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		fake.mu.Lock()
		revoked := fake.revoked
		fake.mu.Unlock()
		if revoked || request.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Token is not valid"})
			return
		}
		next(writer, request)
	}
}

func (fake *trackerServer) revoke() {
	fake.mu.Lock()
	fake.revoked = true
	fake.mu.Unlock()
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}

// harness is a model wired to a trackerServer, the way the CLI wires
// it to the real API.
type harness struct {
	model   *Model
	server  *trackerServer
	manager *session.Manager
	config  Config
}

// newHarness builds a model. storedToken seeds the token store; empty
// means no persisted session.
func newHarness(t *testing.T, storedToken string) *harness {
	t.Helper()
	server := newTrackerServer(t)
	client, err := tracker.NewClient(tracker.ClientConfig{BaseURL: server.server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	manager, err := session.New(session.Config{
		Authenticator: client,
		Store:         tokenstore.NewMemory(storedToken),
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(manager.Logout)

	api := client.Authenticated(manager)
	config := Config{
		Session:     manager,
		Router:      router.New(nil),
		Bugs:        bugcache.NewCollection(api, nil),
		ProjectBugs: bugcache.NewCollection(api, nil),
		Projects:    bugcache.NewProjects(api, nil),
		Signals:     signal.NewChannel(signal.Config{}),
		Theme:       DefaultTheme,
	}
	model, err := New(context.Background(), config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(model.Close)
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &harness{model: model, server: server, manager: manager, config: config}
}

// start finishes session restore and applies the resulting route.
// The returned command is whatever the model issued on the transition.
func (h *harness) start(t *testing.T) tea.Cmd {
	t.Helper()
	h.manager.Initialize(context.Background())
	_, cmd := h.model.Update(routeChangedMsg{})
	return cmd
}

// signIn starts from a persisted session and waits for the initial
// bug load.
func (h *harness) signIn(t *testing.T) {
	t.Helper()
	loaded, ok := awaitMsg[bugsLoadedMsg](h.start(t))
	if !ok {
		t.Fatal("no bug load issued on sign-in")
	}
	h.model.Update(loaded)
}

func (h *harness) press(keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range keys {
		_, cmd = h.model.Update(msg)
	}
	return cmd
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
)

// awaitMsg runs cmd, expanding batches, and returns the first message
// of type T produced within a second. Commands that block (the route
// listener, fade timers) are left running in the background.
func awaitMsg[T tea.Msg](cmd tea.Cmd) (T, bool) {
	results := make(chan tea.Msg, 32)
	var launch func(tea.Cmd)
	launch = func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		go func() {
			msg := cmd()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, inner := range batch {
					launch(inner)
				}
				return
			}
			select {
			case results <- msg:
			default:
			}
		}()
	}
	launch(cmd)

	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-results:
			if typed, ok := msg.(T); ok {
				return typed, true
			}
		case <-deadline:
			var zero T
			return zero, false
		}
	}
}
