// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/huddle/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the REST client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so callers can compare
// against the sentinels with errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeServer
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "chat server is not reachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrNotFound    = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the REST client.
type ClientConfig struct {
	// BaseURL is the API root (default: http://localhost:8000/api).
	// The health endpoint lives at the server root, outside this path.
	BaseURL string

	// Timeout for each request (default: 10s)
	Timeout time.Duration

	// ClientID, if set, is sent as X-Client-ID.
	ClientID string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://localhost:8000/api",
		Timeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client reads server state over REST. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	base       *url.URL
	httpClient *http.Client
}

// NewClientWithConfig creates a client with a custom configuration.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", config.BaseURL)
	}
	// Relative references resolve under the API path only with a trailing slash.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	return &Client{
		config:     config,
		base:       base,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Health calls GET /health at the server root.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.get(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns the server's active users.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.get(ctx, "users/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser returns one user by id, or ErrNotFound.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var out model.User
	if err := c.get(ctx, "users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentMessages returns the most recent messages across rooms. limit is
// clamped to [1, 100].
func (c *Client) RecentMessages(ctx context.Context, limit int) ([]model.Message, error) {
	var out []model.Message
	q := url.Values{"limit": {strconv.Itoa(ClampLimit(limit))}}
	if err := c.get(ctx, "messages/recent", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RoomMessages returns the latest messages of one room. limit is clamped to
// [1, 100].
func (c *Client) RoomMessages(ctx context.Context, room string, limit int) ([]model.Message, error) {
	if room == "" {
		room = model.DefaultRoom
	}
	var out []model.Message
	q := url.Values{"limit": {strconv.Itoa(ClampLimit(limit))}}
	if err := c.get(ctx, "messages/room/"+url.PathEscape(room), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

func (c *Client) get(ctx context.Context, ref string, query url.Values, out any) error {
	rel, err := url.Parse(ref)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "invalid path", Cause: err}
	}
	target := c.base.ResolveReference(rel)
	if query != nil {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.ClientID != "" {
		req.Header.Set("X-Client-ID", c.config.ClientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		return &ClientError{Type: ErrTypeUnreachable, Message: ErrUnreachable.Message, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &ClientError{Type: ErrTypeNotFound, Message: "not found: " + target.Path, Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeServer,
			Message: "server returned " + resp.Status + detail(resp.Body),
			Status:  resp.StatusCode,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// detail extracts the server's error detail, if any.
func detail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Detail != "" {
		return ": " + eb.Detail
	}
	return ""
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
