// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tokenstore persists the session bearer token across process
// restarts. It is the only durable state bugdesk keeps about a session:
// the user profile is always re-fetched from the server.
//
// [File] writes a small JSON record at mode 0600 under the user's config
// directory. When configured with an age identity file, the token is
// sealed to that identity so the record on disk is useless without the
// key. [Memory] is an in-process store for tests and for --no-persist
// runs.
package tokenstore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/bugdesk/lib/secret"
)

// Store loads, saves and clears the persisted token.
type Store interface {
	// Load returns the persisted token, or (nil, nil) when there is none.
	// The caller owns the returned buffer.
	Load() (*secret.Buffer, error)

	// Save persists token, replacing any previous value. The buffer is
	// read, not retained.
	Save(token *secret.Buffer) error

	// Clear removes the persisted token. Clearing an empty store is not
	// an error.
	Clear() error
}

// DefaultPath returns the well-known session file path. Checks
// BUGDESK_SESSION_FILE first, then $XDG_CONFIG_HOME/bugdesk/session.json,
// then ~/.config/bugdesk/session.json.
func DefaultPath() string {
	if envPath := os.Getenv("BUGDESK_SESSION_FILE"); envPath != "" {
		return envPath
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "bugdesk-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "bugdesk", "session.json")
}

// Memory keeps the token in process memory only.
type Memory struct {
	mu    sync.Mutex
	token []byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store. A non-empty initial value
// pre-seeds it, which tests use to simulate a token left by a previous
// run.
func NewMemory(initial string) *Memory {
	store := &Memory{}
	if initial != "" {
		store.token = []byte(initial)
	}
	return store
}

func (m *Memory) Load() (*secret.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.token) == 0 {
		return nil, nil
	}
	return secret.NewFromBytes(append([]byte(nil), m.token...))
}

func (m *Memory) Save(token *secret.Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = append(m.token[:0], token.Bytes()...)
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	secret.Zero(m.token)
	m.token = nil
	return nil
}

// Peek returns the stored token as a string. Test helper.
func (m *Memory) Peek() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return string(m.token)
}
