// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X. Left at their defaults, the commit fields fall
// back to the VCS stamp the go command embeds in the binary.
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"

	// Version is bumped by hand for releases.
	Version = "0.1.0-dev"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

type stamp struct {
	commit string
	dirty  bool
	time   string
}

func current() stamp {
	result := stamp{commit: GitCommit, dirty: GitDirty == "true", time: BuildTime}
	if result.commit != "unknown" {
		return result
	}
	info, ok := readBuildInfo()
	if !ok {
		return result
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			result.commit = setting.Value
			if len(result.commit) > 7 {
				result.commit = result.commit[:7]
			}
		case "vcs.modified":
			result.dirty = setting.Value == "true"
		case "vcs.time":
			if result.time == "unknown" {
				result.time = setting.Value
			}
		}
	}
	return result
}

// Info is the one-line form printed by "bugdesk version":
// "0.1.0-dev (abc1234-dirty, 2026-02-10T00:00:00Z)".
func Info() string {
	build := current()
	commit := build.commit
	if build.dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, build.time)
}

// Full adds the Go toolchain and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func Short() string {
	return Version
}

// Commit returns the short SHA, or "unknown".
func Commit() string {
	return current().commit
}

// UserAgent is the User-Agent header value sent to the tracker API.
func UserAgent() string {
	return fmt.Sprintf("bugdesk/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
