// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/bugdesk/lib/codec"
)

// Store holds entries by slot name.
type Store interface {
	// Put stores entry under name, replacing any existing entry.
	Put(name string, entry Entry) error
	// Take removes and returns the entry under name.
	Take(name string) (entry Entry, found bool, err error)
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Put(name string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = entry
	return nil
}

func (m *Memory) Take(name string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, found := m.entries[name]
	delete(m.entries, name)
	return entry, found, nil
}

// File is a Store shared between processes: the CLI writes an intent
// ("open the bug list searching for X") that the terminal UI it launches
// consumes. Every operation takes an exclusive flock on the file, so a
// read-and-clear in one process cannot interleave with a write in
// another.
type File struct {
	path string
}

var _ Store = (*File)(nil)

// NewFile returns a store backed by the CBOR file at path. The file and
// its directory are created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns $XDG_STATE_HOME/bugdesk/signals.cbor, falling back
// to ~/.local/state.
func DefaultPath() string {
	stateDirectory := os.Getenv("XDG_STATE_HOME")
	if stateDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "bugdesk-signals.cbor")
		}
		stateDirectory = filepath.Join(homeDirectory, ".local", "state")
	}
	return filepath.Join(stateDirectory, "bugdesk", "signals.cbor")
}

func (f *File) Put(name string, entry Entry) error {
	return f.update(func(entries map[string]Entry) bool {
		entries[name] = entry
		return true
	})
}

func (f *File) Take(name string) (Entry, bool, error) {
	var taken Entry
	var found bool
	err := f.update(func(entries map[string]Entry) bool {
		taken, found = entries[name]
		delete(entries, name)
		return found
	})
	return taken, found, err
}

// update runs mutate over the decoded entries under an exclusive lock
// and writes the result back when mutate reports a change.
func (f *File) update(mutate func(map[string]Entry) bool) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("creating signal directory: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.path, err)
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("locking %s: %w", f.path, err)
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.path, err)
	}
	entries := make(map[string]Entry)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := codec.Unmarshal(data, &entries); err != nil {
			// A corrupt file holds nothing worth keeping; start over.
			entries = make(map[string]Entry)
		}
	}

	if !mutate(entries) {
		return nil
	}

	encoded, err := codec.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding signals: %w", err)
	}
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncating %s: %w", f.path, err)
	}
	if _, err := file.WriteAt(encoded, 0); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}

// Remove deletes the backing file. Missing files are not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
