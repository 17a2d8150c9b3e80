// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/bugdesk/tracker"
)

// ErrorCategory tells a script what kind of failure ended a command
// without parsing the message.
type ErrorCategory string

const (
	// CategoryValidation: bad flags or arguments. Fix the input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: the named bug or project does not exist, or
	// nobody is signed in.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: the server refused the credentials or the
	// operation.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict: the server reported a clash with existing data,
	// such as a taken project key.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: the server was unreachable or timed out.
	// Retrying may work.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command failure. Hint, when set, is printed
// after the message as a suggested next step.
type ToolError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver for chaining.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// FromTracker categorizes a failure from the tracker, session or cache
// layers. The message is the user-facing reason, prefixed with what.
// An existing ToolError is returned unchanged.
func FromTracker(what string, err error) *ToolError {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	wrapped := &ToolError{Category: CategoryInternal, Err: fmt.Errorf("%s: %s", what, reason(err))}
	if errors.Is(err, tracker.ErrNotAuthenticated) {
		wrapped.Category = CategoryNotFound
		return wrapped.WithHint(`Run "bugdesk login" to sign in.`)
	}

	var apiErr *tracker.APIError
	switch {
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			wrapped.Category = CategoryValidation
		case http.StatusUnauthorized:
			wrapped.Category = CategoryForbidden
			wrapped.Hint = `The saved session was rejected. Run "bugdesk login" again.`
		case http.StatusForbidden:
			wrapped.Category = CategoryForbidden
		case http.StatusNotFound:
			wrapped.Category = CategoryNotFound
		case http.StatusConflict:
			wrapped.Category = CategoryConflict
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wrapped.Category = CategoryTransient
		}
	case tracker.KindOf(err) == tracker.KindTransport:
		wrapped.Category = CategoryTransient
	}
	return wrapped
}

// reason is the display text for err. A Failure already carries one;
// a bare transport error is shown as-is.
func reason(err error) string {
	var failure *tracker.Failure
	if errors.As(err, &failure) {
		return failure.Reason
	}
	if tracker.KindOf(err) == tracker.KindTransport {
		return err.Error()
	}
	return tracker.Reason(err, err.Error())
}
