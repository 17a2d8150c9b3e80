// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bureau-foundation/bugdesk/lib/netutil"
	"github.com/bureau-foundation/bugdesk/lib/secret"
	"github.com/bureau-foundation/bugdesk/lib/version"
)

const (
	// DefaultBaseURL is the API root of a locally running tracker server.
	DefaultBaseURL = "http://localhost:5000/api"

	// DefaultTimeout bounds each request when ClientConfig.Timeout is
	// zero.
	DefaultTimeout = 30 * time.Second
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root (e.g., "http://localhost:5000/api").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Timeout bounds each request, on top of any deadline carried by the
	// caller's context. Zero means DefaultTimeout; negative disables it.
	Timeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated tracker API client. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("tracker: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("tracker: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("tracker: BaseURL %q must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type userResponse struct {
	User User `json:"user"`
}

// Login exchanges an email and password for a bearer token. The password
// buffer is read but not closed.
func (c *Client) Login(ctx context.Context, email string, password *secret.Buffer) (*Grant, error) {
	if email == "" {
		return nil, &StateError{Reason: "email is required"}
	}
	if password == nil || password.Len() == 0 {
		return nil, &StateError{Reason: "password is required"}
	}

	// Password becomes a string only at the JSON serialization boundary.
	var response authResponse
	request := loginRequest{Email: email, Password: password.String()}
	if err := c.call(ctx, http.MethodPost, "/auth/login", "", request, &response); err != nil {
		return nil, err
	}

	grant, err := grantFrom(&response, http.MethodPost, "/auth/login")
	if err != nil {
		return nil, err
	}
	c.logger.Info("logged in", "user_id", grant.User.ID, "email", grant.User.Email)
	return grant, nil
}

// Register creates an account and returns its first bearer token.
func (c *Client) Register(ctx context.Context, registration Registration) (*Grant, error) {
	if err := registration.Validate(); err != nil {
		return nil, &StateError{Reason: err.Error()}
	}

	var response authResponse
	request := registerRequest{
		Username:  registration.Username,
		Email:     registration.Email,
		Password:  registration.Password.String(),
		FirstName: registration.FirstName,
		LastName:  registration.LastName,
	}
	if err := c.call(ctx, http.MethodPost, "/auth/register", "", request, &response); err != nil {
		return nil, err
	}

	grant, err := grantFrom(&response, http.MethodPost, "/auth/register")
	if err != nil {
		return nil, err
	}
	c.logger.Info("registered account", "user_id", grant.User.ID, "username", grant.User.Username)
	return grant, nil
}

// Me returns the user the token belongs to. A rejected token surfaces as
// an *APIError for which IsUnauthorized is true.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	var response userResponse
	if err := c.call(ctx, http.MethodGet, "/auth/me", token, nil, &response); err != nil {
		return nil, err
	}
	if response.User.ID == "" {
		return nil, &TransportError{Method: http.MethodGet, Path: "/auth/me", Err: fmt.Errorf("response has no user")}
	}
	return &response.User, nil
}

// UpdateProfile applies patch to the token's account and returns the
// server's updated profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch ProfileUpdate) (*User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	var response userResponse
	if err := c.call(ctx, http.MethodPut, "/auth/profile", token, patch, &response); err != nil {
		return nil, err
	}
	if response.User.ID == "" {
		return nil, &TransportError{Method: http.MethodPut, Path: "/auth/profile", Err: fmt.Errorf("response has no user")}
	}
	return &response.User, nil
}

// ChangePassword replaces the account password. Both buffers are read
// but not closed.
func (c *Client) ChangePassword(ctx context.Context, token string, change PasswordChange) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	if change.Current == nil || change.New == nil || change.New.Len() == 0 {
		return &StateError{Reason: "current and new password are required"}
	}
	request := passwordRequest{
		CurrentPassword: change.Current.String(),
		NewPassword:     change.New.String(),
	}
	return c.call(ctx, http.MethodPut, "/auth/password", token, request, nil)
}

func grantFrom(response *authResponse, method, path string) (*Grant, error) {
	if response.Token == "" {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("response has no token")}
	}
	token, err := secret.NewFromString(response.Token)
	if err != nil {
		return nil, fmt.Errorf("tracker: protecting token: %w", err)
	}
	return &Grant{Token: token, User: response.User}, nil
}

// call performs a request and decodes a successful JSON body into out.
// A nil out discards the body.
func (c *Client) call(ctx context.Context, method, path, token string, requestBody, out any) error {
	body, err := c.doRequest(ctx, method, path, token, requestBody)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// doRequest performs an HTTP request against the API and returns the
// decoded response body. Non-2xx responses return *APIError; anything
// that prevents a response from being read returns *TransportError.
func (c *Client) doRequest(ctx context.Context, method, path, token string, requestBody any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("tracker: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("tracker: failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	request.Header.Set("Accept-Encoding", netutil.AcceptEncoding)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Header.Get("Content-Encoding"), response.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"duration", time.Since(started),
	)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	apiErr := &APIError{}
	if jsonErr := json.Unmarshal(responseBody, apiErr); jsonErr != nil {
		apiErr = &APIError{Body: string(responseBody)}
	}
	apiErr.StatusCode = response.StatusCode
	return nil, apiErr
}
