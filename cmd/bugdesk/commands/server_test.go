// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bureau-foundation/bugdesk/tracker"
)

const (
	testEmail    = "dev@example.com"
	testPassword = "correct-horse"
	testToken    = "tok-1"
)

var testUser = tracker.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: testEmail, Role: "developer"}

// fakeTracker serves the endpoints the commands call.
type fakeTracker struct {
	mu      sync.Mutex
	revoked bool
	server  *httptest.Server
}

func newFakeTracker(t *testing.T) *fakeTracker {
	t.Helper()
	fake := &fakeTracker{}
	projects := []tracker.Project{
		{ID: "p1", Name: "Web Portal", Key: "WEB", Status: tracker.ProjectActive},
		{ID: "p2", Name: "Mobile App", Key: "MOB", Status: tracker.ProjectActive},
	}
	bugs := []tracker.Bug{
		{ID: "b1", BugNumber: "WEB-001", Title: "Login page broken", Status: tracker.StatusOpen,
			Priority: tracker.PriorityHigh, Project: &tracker.ProjectRef{ID: "p1", Key: "WEB"}},
		{ID: "b2", BugNumber: "MOB-001", Title: "Mobile issue", Description: "Crash on rotate",
			Status: tracker.StatusInProgress, Priority: tracker.PriorityMedium, Project: &tracker.ProjectRef{ID: "p2", Key: "MOB"}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(request.Body).Decode(&body)
		if body.Email != testEmail || body.Password != testPassword {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(writer, http.StatusOK, map[string]any{"token": testToken, "user": testUser})
	})
	mux.HandleFunc("GET /auth/me", fake.authorized(func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"user": testUser})
	}))
	mux.HandleFunc("GET /bugs", fake.authorized(func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"bugs": bugs})
	}))
	mux.HandleFunc("GET /projects/{id}/bugs", fake.authorized(func(writer http.ResponseWriter, request *http.Request) {
		var matched []tracker.Bug
		for _, bug := range bugs {
			if bug.ProjectID() == request.PathValue("id") {
				matched = append(matched, bug)
			}
		}
		writeJSON(writer, http.StatusOK, matched)
	}))
	mux.HandleFunc("GET /projects", fake.authorized(func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"projects": projects})
	}))

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func (fake *fakeTracker) authorized(next http.HandlerFunc) http.HandlerFunc {
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

func (fake *fakeTracker) revoke() {
	fake.mu.Lock()
	fake.revoked = true
	fake.mu.Unlock()
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}

// testEnv is a config file pointing at a fakeTracker, with the session
// and hand-off files in a temporary directory.
type testEnv struct {
	tracker      *fakeTracker
	directory    string
	configPath   string
	passwordPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := newFakeTracker(t)
	directory := t.TempDir()

	configPath := filepath.Join(directory, "config.yaml")
	content := fmt.Sprintf(`environment: development
api:
  base_url: %s
  timeout: 5s
session:
  file: %s
signals:
  file: %s
  ttl: 10m
log:
  level: error
`, fake.server.URL, filepath.Join(directory, "session.json"), filepath.Join(directory, "signals.cbor"))
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	passwordPath := filepath.Join(directory, "password")
	if err := os.WriteFile(passwordPath, []byte(testPassword+"\n"), 0600); err != nil {
		t.Fatalf("writing password: %v", err)
	}
	t.Setenv("BUGDESK_CONFIG", "")

	return &testEnv{tracker: fake, directory: directory, configPath: configPath, passwordPath: passwordPath}
}

// run executes a command line against the environment's config and
// returns what it wrote.
func (env *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newRoot(&out).Execute(append(args, "--config", env.configPath))
	return out.String(), err
}

func (env *testEnv) login(t *testing.T) {
	t.Helper()
	if _, err := env.run(t, "login", testEmail, "--password-file", env.passwordPath); err != nil {
		t.Fatalf("login: %v", err)
	}
}
