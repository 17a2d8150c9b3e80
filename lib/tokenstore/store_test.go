// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/bugdesk/lib/secret"
)

func testToken(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating token buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func loadString(t *testing.T, store Store) string {
	t.Helper()
	token, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if token == nil {
		return ""
	}
	defer token.Close()
	return token.String()
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewFile(FileConfig{Path: path, Server: "http://localhost:5000/api"})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if got := loadString(t, store); got != "" {
		t.Fatalf("empty store loaded %q", got)
	}

	if err := store.Save(testToken(t, "jwt-abc")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("session file mode = %o, want 0600", info.Mode().Perm())
	}
	if got := loadString(t, store); got != "jwt-abc" {
		t.Errorf("Load() = %q, want jwt-abc", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear should be a no-op: %v", err)
	}
	if got := loadString(t, store); got != "" {
		t.Errorf("Load() after Clear = %q", got)
	}
}

func TestFileIgnoresOtherServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	staging, _ := NewFile(FileConfig{Path: path, Server: "https://staging.example/api"})
	if err := staging.Save(testToken(t, "staging-token")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	production, _ := NewFile(FileConfig{Path: path, Server: "https://bugs.example/api"})
	if got := loadString(t, production); got != "" {
		t.Errorf("token for another server leaked: %q", got)
	}
}

func TestFileSealed(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "session.json")
	identityPath := filepath.Join(directory, "identity.txt")

	store, err := NewFile(FileConfig{Path: path, Server: "http://x", IdentityFile: identityPath})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer store.Close()

	if err := store.Save(testToken(t, "sealed-jwt")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "sealed-jwt") {
		t.Fatal("sealed session file contains the plaintext token")
	}
	var stored record
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.SealedToken == "" || stored.Token != "" {
		t.Errorf("unexpected record: %+v", stored)
	}

	// A second store reading the same identity file can unseal.
	reopened, err := NewFile(FileConfig{Path: path, Server: "http://x", IdentityFile: identityPath})
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()
	if got := loadString(t, reopened); got != "sealed-jwt" {
		t.Errorf("Load() = %q", got)
	}

	// Without the identity the sealed record cannot be read.
	plain, _ := NewFile(FileConfig{Path: path, Server: "http://x"})
	if _, err := plain.Load(); err == nil {
		t.Error("expected error loading a sealed record without an identity")
	}
}

func TestMemory(t *testing.T) {
	store := NewMemory("seeded")
	if got := loadString(t, store); got != "seeded" {
		t.Errorf("Load() = %q", got)
	}
	if err := store.Save(testToken(t, "next")); err != nil {
		t.Fatal(err)
	}
	if store.Peek() != "next" {
		t.Errorf("Peek() = %q", store.Peek())
	}
	store.Clear()
	if got := loadString(t, store); got != "" {
		t.Errorf("Load() after Clear = %q", got)
	}
}

func TestFingerprint(t *testing.T) {
	first := Fingerprint([]byte("token-one"))
	if len(first) != 12 {
		t.Errorf("fingerprint length = %d, want 12 hex chars", len(first))
	}
	if first != Fingerprint([]byte("token-one")) {
		t.Error("fingerprint is not stable")
	}
	if first == Fingerprint([]byte("token-two")) {
		t.Error("distinct tokens share a fingerprint")
	}
	if Fingerprint(nil) != "" {
		t.Error("empty token should have an empty fingerprint")
	}
}
