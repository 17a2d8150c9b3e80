// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for bugdesk.
//
// Configuration comes from a single file. [Load] reads the path from the
// BUGDESK_CONFIG environment variable, falling back to
// $XDG_CONFIG_HOME/bugdesk/config.yaml; a missing fallback file means
// defaults. [LoadFile] reads an explicit path (the --config flag), which
// must exist.
//
// Files are YAML. Files ending in .json or .jsonc are accepted too; their
// comments and trailing commas are stripped before parsing.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults are quieter: log
// level warn.
//
// Variable expansion is performed on path and URL fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// This package depends on no other bugdesk packages.
package config
