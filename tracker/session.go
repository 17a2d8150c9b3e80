// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// TokenSource supplies the bearer token for authenticated calls. ok is
// false when there is no session.
type TokenSource interface {
	AccessToken() (token string, ok bool)
}

// Session serves the authenticated bug and project endpoints. The token
// is fetched from its TokenSource on every call.
type Session struct {
	client *Client
	tokens TokenSource
}

// Authenticated returns a Session that authenticates with tokens.
func (c *Client) Authenticated(tokens TokenSource) *Session {
	return &Session{client: c, tokens: tokens}
}

func (s *Session) token() (string, error) {
	token, ok := s.tokens.AccessToken()
	if !ok || token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func (s *Session) call(ctx context.Context, method, path string, requestBody, out any) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	return s.client.call(ctx, method, path, token, requestBody, out)
}

// ListBugs returns every bug the account can see.
func (s *Session) ListBugs(ctx context.Context) ([]Bug, error) {
	return s.listBugs(ctx, "/bugs")
}

// ListProjectBugs returns the bugs of one project.
func (s *Session) ListProjectBugs(ctx context.Context, projectID string) ([]Bug, error) {
	if projectID == "" {
		return nil, &StateError{Reason: "project id is required"}
	}
	return s.listBugs(ctx, "/projects/"+url.PathEscape(projectID)+"/bugs")
}

func (s *Session) listBugs(ctx context.Context, path string) ([]Bug, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	bugs, err := decodeList[Bug](body, "bugs")
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, Path: path, Err: err}
	}
	return bugs, nil
}

// CreateBug files a new bug and returns the server's record, which
// carries the assigned id and bug number.
func (s *Session) CreateBug(ctx context.Context, input BugInput) (*Bug, error) {
	var bug Bug
	if err := s.call(ctx, http.MethodPost, "/bugs", input, &bug); err != nil {
		return nil, err
	}
	if bug.ID == "" {
		return nil, &TransportError{Method: http.MethodPost, Path: "/bugs", Err: fmt.Errorf("response has no bug id")}
	}
	return &bug, nil
}

// UpdateBug applies patch and returns the server's full record.
func (s *Session) UpdateBug(ctx context.Context, id string, patch BugPatch) (*Bug, error) {
	if id == "" {
		return nil, &StateError{Reason: "bug id is required"}
	}
	path := "/bugs/" + url.PathEscape(id)
	var bug Bug
	if err := s.call(ctx, http.MethodPut, path, patch, &bug); err != nil {
		return nil, err
	}
	if bug.ID == "" {
		return nil, &TransportError{Method: http.MethodPut, Path: path, Err: fmt.Errorf("response has no bug id")}
	}
	return &bug, nil
}

// DeleteBug deletes a bug.
func (s *Session) DeleteBug(ctx context.Context, id string) error {
	if id == "" {
		return &StateError{Reason: "bug id is required"}
	}
	return s.call(ctx, http.MethodDelete, "/bugs/"+url.PathEscape(id), nil, nil)
}

// ListProjects returns every project the account can see.
func (s *Session) ListProjects(ctx context.Context) ([]Project, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	body, err := s.client.doRequest(ctx, http.MethodGet, "/projects", token, nil)
	if err != nil {
		return nil, err
	}
	projects, err := decodeList[Project](body, "projects")
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, Path: "/projects", Err: err}
	}
	return projects, nil
}

// CreateProject creates a project and returns the server's record.
func (s *Session) CreateProject(ctx context.Context, input ProjectInput) (*Project, error) {
	var project Project
	if err := s.call(ctx, http.MethodPost, "/projects", input, &project); err != nil {
		return nil, err
	}
	if project.ID == "" {
		return nil, &TransportError{Method: http.MethodPost, Path: "/projects", Err: fmt.Errorf("response has no project id")}
	}
	return &project, nil
}

// DeleteProject deletes a project.
func (s *Session) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return &StateError{Reason: "project id is required"}
	}
	return s.call(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

// decodeList decodes a collection response. The server answers with a
// bare array, or an object holding the array under the resource name
// (e.g. "bugs") or under "data".
func decodeList[T any](body []byte, field string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decoding list envelope: %w", err)
	}
	for _, key := range []string{field, "data"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("response has neither %q nor \"data\"", field)
}
