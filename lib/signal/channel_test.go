// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/bugdesk/lib/clock"
	"github.com/bureau-foundation/bugdesk/tracker"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestReadAndClearIsOneShot(t *testing.T) {
	channel := NewChannel(Config{})

	if err := Write(channel, GlobalSearchQuery, "foo"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	first, ok := ReadAndClear(channel, GlobalSearchQuery)
	if !ok || first != "foo" {
		t.Fatalf("first read = (%q, %v), want (foo, true)", first, ok)
	}
	second, ok := ReadAndClear(channel, GlobalSearchQuery)
	if ok || second != "" {
		t.Fatalf("second read = (%q, %v), want absent", second, ok)
	}
}

func TestWriteReplacesUnreadEntry(t *testing.T) {
	channel := NewChannel(Config{})
	Write(channel, ProjectFilter, "p1")
	Write(channel, ProjectFilter, "p2")

	if got, _ := ReadAndClear(channel, ProjectFilter); got != "p2" {
		t.Errorf("ReadAndClear = %q, want the latest write", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	channel := NewChannel(Config{})
	Write(channel, GlobalSearchQuery, "crash")
	Write(channel, ProjectFilter, "p1")

	if _, ok := ReadAndClear(channel, ProjectFilter); !ok {
		t.Fatal("project filter missing")
	}
	if got, ok := ReadAndClear(channel, GlobalSearchQuery); !ok || got != "crash" {
		t.Errorf("search query = (%q, %v)", got, ok)
	}
}

func TestProjectSnapshotIsCopied(t *testing.T) {
	channel := NewChannel(Config{})
	project := tracker.Project{
		ID:        "p1",
		Name:      "Web",
		Key:       "WEB",
		BugTypes:  []tracker.BugType{{Name: "ui", Color: "#6B7280"}},
		CreatedAt: epoch,
	}
	if err := Write(channel, ActiveProjectContext, project); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Mutating the writer's value after the write must not leak through.
	project.Name = "Renamed"
	project.BugTypes[0].Name = "changed"

	got, ok := ReadAndClear(channel, ActiveProjectContext)
	if !ok {
		t.Fatal("project context missing")
	}
	if got.Name != "Web" || got.BugTypes[0].Name != "ui" {
		t.Errorf("snapshot observed later mutation: %+v", got)
	}
	if !got.CreatedAt.Equal(epoch) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, epoch)
	}
}

func TestExpiry(t *testing.T) {
	fake := clock.Fake(epoch)
	channel := NewChannel(Config{Clock: fake, TTL: time.Minute})

	Write(channel, GlobalSearchQuery, "stale")
	fake.Advance(2 * time.Minute)
	if got, ok := ReadAndClear(channel, GlobalSearchQuery); ok {
		t.Errorf("expired entry delivered: %q", got)
	}

	Write(channel, GlobalSearchQuery, "fresh")
	fake.Advance(30 * time.Second)
	if got, ok := ReadAndClear(channel, GlobalSearchQuery); !ok || got != "fresh" {
		t.Errorf("fresh entry = (%q, %v)", got, ok)
	}
}

func TestClear(t *testing.T) {
	channel := NewChannel(Config{})
	Write(channel, ProjectFilter, "p1")
	Clear(channel, ProjectFilter)
	if _, ok := ReadAndClear(channel, ProjectFilter); ok {
		t.Error("entry survived Clear")
	}
}

func TestConcurrentReadersSeeOneDelivery(t *testing.T) {
	channel := NewChannel(Config{})
	Write(channel, GlobalSearchQuery, "race")

	var delivered sync.WaitGroup
	results := make(chan bool, 8)
	for range 8 {
		delivered.Add(1)
		go func() {
			defer delivered.Done()
			_, ok := ReadAndClear(channel, GlobalSearchQuery)
			results <- ok
		}()
	}
	delivered.Wait()
	close(results)

	count := 0
	for ok := range results {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%d readers received the entry, want exactly 1", count)
	}
}

func TestFileStoreAcrossChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "signals.cbor")

	// One channel per process: the CLI writes, the UI reads.
	writer := NewChannel(Config{Store: NewFile(path)})
	if err := Write(writer, GlobalSearchQuery, "login"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(writer, ActiveProjectContext, tracker.Project{ID: "p9", Name: "API"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reader := NewChannel(Config{Store: NewFile(path)})
	if got, ok := ReadAndClear(reader, GlobalSearchQuery); !ok || got != "login" {
		t.Errorf("search = (%q, %v)", got, ok)
	}
	if _, ok := ReadAndClear(writer, GlobalSearchQuery); ok {
		t.Error("entry consumed in one channel was still visible in the other")
	}
	if project, ok := ReadAndClear(reader, ActiveProjectContext); !ok || project.ID != "p9" {
		t.Errorf("project = (%+v, %v)", project, ok)
	}
}
