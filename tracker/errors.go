// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure for callers that branch on it.
type Kind string

const (
	// KindTransport: the server was unreachable, the request timed
	// out, or the response could not be decoded.
	KindTransport Kind = "transport"

	// KindRejected: the server answered with a non-success status.
	KindRejected Kind = "rejected"

	// KindInvalidState: the operation is not valid for the local state,
	// for example an authenticated call with no session.
	KindInvalidState Kind = "invalid_state"
)

// APIError is a non-2xx response. Callers can extract it with errors.As:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict { ... }
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// Message is the server's "error" field. Empty when the body was not
	// the expected JSON shape.
	Message string `json:"error"`
	// Details carries field-level validation messages when present.
	Details []json.RawMessage `json:"details,omitempty"`
	// Body is the raw response body when it was not JSON.
	Body string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tracker: unexpected %d response", e.StatusCode)
	}
	return fmt.Sprintf("tracker: %d: %s", e.StatusCode, e.Message)
}

// DetailMessages renders Details as strings. Entries may be plain
// strings or validator objects carrying "msg" or "message".
func (e *APIError) DetailMessages() []string {
	var messages []string
	for _, raw := range e.Details {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			messages = append(messages, text)
			continue
		}
		var object struct {
			Msg     string `json:"msg"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &object); err == nil {
			if object.Msg != "" {
				messages = append(messages, object.Msg)
			} else if object.Message != "" {
				messages = append(messages, object.Message)
			}
		}
	}
	return messages
}

// TransportError is a failure to complete the exchange at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tracker: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StateError is an operation refused locally before any request is made.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "tracker: " + e.Reason }

// ErrNotAuthenticated is returned by authenticated calls made without a
// session token.
var ErrNotAuthenticated = &StateError{Reason: "not signed in"}

// Failure is the error returned by every user-facing operation in the
// session and cache layers. Reason is suitable for display as-is.
type Failure struct {
	Op     string
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	return f.Op + ": " + f.Reason
}

func (f *Failure) Unwrap() error { return f.Err }

// Kind classifies the underlying cause.
func (f *Failure) Kind() Kind { return KindOf(f.Err) }

// Fail wraps err as a Failure for op. The display reason comes from the
// server when it sent one, otherwise fallback is used.
func Fail(op, fallback string, err error) *Failure {
	return &Failure{Op: op, Reason: Reason(err, fallback), Err: err}
}

// KindOf classifies err. A nil error has no kind. Errors that are not
// from this package count as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindRejected
	}
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		return KindInvalidState
	}
	return KindTransport
}

// Reason returns a human-readable explanation of err: the server's
// message (with validation details appended) for a rejected request, the
// state description for an invalid state, and fallback otherwise. A
// transport failure appends its cause to fallback.
func Reason(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" {
			return fallback
		}
		if details := apiErr.DetailMessages(); len(details) > 0 {
			return apiErr.Message + ": " + strings.Join(details, "; ")
		}
		return apiErr.Message
	}
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		return stateErr.Reason
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return fallback + ": " + transportErr.Err.Error()
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401 from the server, meaning
// the bearer token was rejected.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
