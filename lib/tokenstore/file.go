// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bureau-foundation/bugdesk/lib/secret"
)

// record is the on-disk session file. Exactly one of Token and
// SealedToken is set.
type record struct {
	// Server is the API base URL the token was issued by. A token for a
	// different server is ignored on Load.
	Server string `json:"server"`

	Token       string `json:"token,omitempty"`
	SealedToken string `json:"sealed_token,omitempty"`

	SavedAt time.Time `json:"saved_at"`
}

// FileConfig configures a File store.
type FileConfig struct {
	// Path is the session file. Defaults to DefaultPath().
	Path string
	// Server is the API base URL tokens are bound to.
	Server string
	// IdentityFile, when set, seals the token to the age identity in
	// this file, creating the file on first use.
	IdentityFile string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// File is a Store backed by a JSON file written at mode 0600.
type File struct {
	mu     sync.Mutex
	path   string
	server string
	sealer *sealer
	logger *slog.Logger
}

var _ Store = (*File)(nil)

// NewFile creates a file-backed store. It does not touch the session
// file; it does load (or create) the identity file when sealing is
// configured.
func NewFile(config FileConfig) (*File, error) {
	if config.Server == "" {
		return nil, fmt.Errorf("tokenstore: Server is required")
	}
	path := config.Path
	if path == "" {
		path = DefaultPath()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := &File{path: path, server: config.Server, logger: logger}
	if config.IdentityFile != "" {
		sealer, err := loadOrCreateIdentity(config.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("tokenstore: %w", err)
		}
		store.sealer = sealer
	}
	return store, nil
}

// Path returns the session file path.
func (f *File) Path() string {
	return f.path
}

// Close releases the sealing key, if any.
func (f *File) Close() error {
	if f.sealer != nil {
		return f.sealer.close()
	}
	return nil
}

func (f *File) Load() (*secret.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: reading session file %s: %w", f.path, err)
	}

	var stored record
	err = json.Unmarshal(data, &stored)
	secret.Zero(data)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: parsing session file %s: %w", f.path, err)
	}

	if stored.Server != f.server {
		f.logger.Info("ignoring session for a different server",
			"path", f.path,
			"stored_server", stored.Server,
			"server", f.server,
		)
		return nil, nil
	}

	switch {
	case stored.SealedToken != "":
		if f.sealer == nil {
			return nil, fmt.Errorf("tokenstore: session file %s is sealed but no identity file is configured", f.path)
		}
		token, err := f.sealer.unseal(stored.SealedToken)
		if err != nil {
			return nil, fmt.Errorf("tokenstore: unsealing %s: %w", f.path, err)
		}
		return token, nil
	case stored.Token != "":
		return secret.NewFromString(stored.Token)
	default:
		return nil, nil
	}
}

func (f *File) Save(token *secret.Buffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := record{Server: f.server, SavedAt: time.Now().UTC()}
	if f.sealer != nil {
		sealed, err := f.sealer.seal(token.Bytes())
		if err != nil {
			return fmt.Errorf("tokenstore: sealing token: %w", err)
		}
		stored.SealedToken = sealed
	} else {
		stored.Token = token.String()
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: marshaling session: %w", err)
	}
	data = append(data, '\n')
	defer secret.Zero(data)

	directory := filepath.Dir(f.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("tokenstore: creating session directory %s: %w", directory, err)
	}

	// Write to a sibling temp file and rename so a crash never leaves a
	// truncated session file behind.
	temporary, err := os.CreateTemp(directory, ".session-*.json")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp session file: %w", err)
	}
	temporaryPath := temporary.Name()
	if err := temporary.Chmod(0600); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("tokenstore: chmod temp session file: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("tokenstore: writing temp session file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("tokenstore: closing temp session file: %w", err)
	}
	if err := os.Rename(temporaryPath, f.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("tokenstore: replacing session file %s: %w", f.path, err)
	}

	f.logger.Debug("session saved",
		"path", f.path,
		"sealed", f.sealer != nil,
		"token_fingerprint", Fingerprint(token.Bytes()),
	)
	return nil
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore: removing session file %s: %w", f.path, err)
	}
	return nil
}
