// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	originalCommit, originalDirty, originalTime := GitCommit, GitDirty, BuildTime
	t.Cleanup(func() { GitCommit, GitDirty, BuildTime = originalCommit, originalDirty, originalTime })

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-02-10T00:00:00Z"
	if got, want := Info(), Version+" (abc1234-dirty, 2026-02-10T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q should not mark a clean build dirty", Info())
	}

	if !strings.HasPrefix(Full(), Info()+"\n  Go: ") {
		t.Errorf("Full() = %q", Full())
	}
}

func TestUserAgent(t *testing.T) {
	if !strings.HasPrefix(UserAgent(), "bugdesk/"+Short()+" (") {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}

func TestBuildInfoFallback(t *testing.T) {
	originalCommit, originalDirty, originalTime := GitCommit, GitDirty, BuildTime
	originalRead := readBuildInfo
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime = originalCommit, originalDirty, originalTime
		readBuildInfo = originalRead
	})
	GitCommit, GitDirty, BuildTime = "unknown", "false", "unknown"

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		}}, true
	}
	if got, want := Info(), Version+" (0123456-dirty, 2026-03-01T12:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if Commit() != "0123456" {
		t.Errorf("Commit() = %q", Commit())
	}

	t.Run("ldflags win", func(t *testing.T) {
		GitCommit = "fedcba9"
		t.Cleanup(func() { GitCommit = "unknown" })
		if Commit() != "fedcba9" {
			t.Errorf("Commit() = %q", Commit())
		}
	})

	t.Run("no build info", func(t *testing.T) {
		readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
		if got, want := Info(), Version+" (unknown, unknown)"; got != want {
			t.Errorf("Info() = %q, want %q", got, want)
		}
	})
}
