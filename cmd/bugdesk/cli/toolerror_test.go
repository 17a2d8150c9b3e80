// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/bureau-foundation/bugdesk/tracker"
)

func TestToolError(t *testing.T) {
	t.Run("hint follows the message", func(t *testing.T) {
		err := NotFound("not signed in").WithHint(`Run "bugdesk login".`)
		if err.Error() != "not signed in\n\nRun \"bugdesk login\"." {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("no hint means no blank line", func(t *testing.T) {
		if strings.Contains(Internal("unexpected").Error(), "\n\n") {
			t.Error("empty hint added a blank line")
		}
	})

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("listing: %w", Conflict("duplicate key").WithHint("pick another key"))
		var toolErr *ToolError
		if !errors.As(wrapped, &toolErr) {
			t.Fatal("errors.As did not find the ToolError")
		}
		if toolErr.Category != CategoryConflict || toolErr.Hint != "pick another key" {
			t.Errorf("got %+v", toolErr)
		}
	})

	t.Run("constructors", func(t *testing.T) {
		tests := []struct {
			err      *ToolError
			category ErrorCategory
		}{
			{Validation("bad"), CategoryValidation},
			{NotFound("missing"), CategoryNotFound},
			{Forbidden("denied"), CategoryForbidden},
			{Conflict("duplicate"), CategoryConflict},
			{Transient("timeout"), CategoryTransient},
			{Internal("bug"), CategoryInternal},
		}
		for _, test := range tests {
			if test.err.Category != test.category {
				t.Errorf("%v: Category = %q, want %q", test.err, test.err.Category, test.category)
			}
		}
	})
}

func TestFromTracker(t *testing.T) {
	rejected := func(status int, message string) error {
		return tracker.Fail("load bugs", "Failed to fetch bugs", &tracker.APIError{StatusCode: status, Message: message})
	}

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		message  string
		hinted   bool
	}{
		{"bad request", rejected(http.StatusBadRequest, "Title is required"), CategoryValidation, "listing: Title is required", false},
		{"rejected token", rejected(http.StatusUnauthorized, "Token is not valid"), CategoryForbidden, "listing: Token is not valid", true},
		{"forbidden", rejected(http.StatusForbidden, "Not allowed"), CategoryForbidden, "listing: Not allowed", false},
		{"not found", rejected(http.StatusNotFound, "Bug not found"), CategoryNotFound, "listing: Bug not found", false},
		{"conflict", rejected(http.StatusConflict, "Project key already exists"), CategoryConflict, "listing: Project key already exists", false},
		{"unavailable", rejected(http.StatusServiceUnavailable, ""), CategoryTransient, "listing: Failed to fetch bugs", false},
		{"server error", rejected(http.StatusInternalServerError, "boom"), CategoryInternal, "listing: boom", false},
		{"not signed in", tracker.Fail("load bugs", "Failed to fetch bugs", tracker.ErrNotAuthenticated), CategoryNotFound, "listing: not signed in", true},
		{
			"transport",
			&tracker.TransportError{Method: "GET", Path: "/bugs", Err: errors.New("connection refused")},
			CategoryTransient, "listing: tracker: GET /bugs: connection refused", false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := FromTracker("listing", test.err)
			if got.Category != test.category {
				t.Errorf("Category = %q, want %q", got.Category, test.category)
			}
			if got.Err.Error() != test.message {
				t.Errorf("message = %q, want %q", got.Err.Error(), test.message)
			}
			if (got.Hint != "") != test.hinted {
				t.Errorf("Hint = %q, hinted want %v", got.Hint, test.hinted)
			}
		})
	}

	t.Run("nil", func(t *testing.T) {
		if FromTracker("listing", nil) != nil {
			t.Error("FromTracker(nil) should be nil")
		}
	})

	t.Run("tool errors pass through", func(t *testing.T) {
		original := Validation("bad status")
		if FromTracker("listing", original) != original {
			t.Error("an existing ToolError should be returned unchanged")
		}
	})
}
