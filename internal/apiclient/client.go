// Package apiclient is a thin REST client for the jobtrack API.
//
// It sends the access token as a Bearer header. When a request comes back
// 401 and a refresh token is available, the client refreshes the access
// token once and retries the original request. If the refresh also fails
// the tokens are cleared and the 401 is returned.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/jobtrack/internal/analytics"
	"github.com/sakif/jobtrack/internal/kanban"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/tracker"
	"github.com/sakif/jobtrack/internal/view"
)

// DefaultBaseURL matches the API's default local address.
const DefaultBaseURL = "http://localhost:8080/api"

var _ tracker.Persistence = (*Client)(nil)

// ErrNotAuthenticated is returned when no tokens are available.
var ErrNotAuthenticated = errors.New("apiclient: not authenticated")

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"error"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api: %s (HTTP %d)", e.Message, e.StatusCode)
}

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	tokens    model.TokenPair
	onRefresh func(model.TokenPair)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokens seeds the client with a saved session.
func WithTokens(t model.TokenPair) Option {
	return func(c *Client) { c.tokens = t }
}

// OnTokenRefresh registers a callback invoked whenever the token pair
// changes (login, refresh, logout), e.g. to persist the session.
func OnTokenRefresh(fn func(model.TokenPair)) Option {
	return func(c *Client) { c.onRefresh = fn }
}

// New creates a client for baseURL (e.g. "http://localhost:8080/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the current token pair.
func (c *Client) Tokens() model.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setTokens(t model.TokenPair) {
	c.mu.Lock()
	c.tokens = t
	fn := c.onRefresh
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

// === Applications ===

// ListApplications fetches the whole collection.
func (c *Client) ListApplications(ctx context.Context) ([]model.Application, error) {
	var out []model.Application
	if err := c.do(ctx, http.MethodGet, "/applications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryApplications fetches the server-side derived view for f.
func (c *Client) QueryApplications(ctx context.Context, f view.FilterState) ([]model.Application, error) {
	var out []model.Application
	path := "/applications?" + f.Values().Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateApplication creates a record and returns it with its assigned id.
func (c *Client) CreateApplication(ctx context.Context, in model.ApplicationInput) (*model.Application, error) {
	var out model.Application
	if err := c.do(ctx, http.MethodPost, "/applications", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateApplication sends a partial update.
func (c *Client) UpdateApplication(ctx context.Context, id int64, patch model.ApplicationPatch) (*model.Application, error) {
	var out model.Application
	if err := c.do(ctx, http.MethodPatch, applicationPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteApplication removes a record.
func (c *Client) DeleteApplication(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, applicationPath(id), nil, nil)
}

// Board fetches the kanban grouping computed by the server.
func (c *Client) Board(ctx context.Context) (kanban.Board, error) {
	var out kanban.Board
	err := c.do(ctx, http.MethodGet, "/applications/board", nil, &out)
	return out, err
}

// Analytics fetches the analytics snapshot computed by the server.
func (c *Client) Analytics(ctx context.Context) (*analytics.Snapshot, error) {
	var out analytics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func applicationPath(id int64) string {
	return "/applications/" + strconv.FormatInt(id, 10)
}

// === Session ===

// Login exchanges credentials for a token pair and keeps it.
func (c *Client) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	var out model.TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return model.TokenPair{}, err
	}
	c.setTokens(out)
	return out, nil
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var out model.User
	if err := c.send(ctx, http.MethodPost, "/auth/register", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the refresh token and forgets the session. A failed
// revocation (e.g. the token is already revoked) still clears the local
// session.
func (c *Client) Logout(ctx context.Context) error {
	refresh := c.Tokens().Refresh
	var err error
	if refresh != "" {
		err = c.send(ctx, http.MethodPost, "/auth/logout", map[string]string{"refresh": refresh}, nil, false)
	}
	c.setTokens(model.TokenPair{})
	return err
}

// refresh trades the refresh token for a new access token.
func (c *Client) refresh(ctx context.Context) error {
	current := c.Tokens()
	if current.Refresh == "" {
		return ErrNotAuthenticated
	}
	var out model.TokenPair
	body := map[string]string{"refresh": current.Refresh}
	if err := c.send(ctx, http.MethodPost, "/auth/token/refresh", body, &out, false); err != nil {
		c.setTokens(model.TokenPair{})
		return err
	}
	if out.Refresh == "" {
		out.Refresh = current.Refresh
	}
	c.setTokens(out)
	return nil
}

// === Transport ===

// do sends an authenticated request, refreshing once on 401.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	err := c.send(ctx, method, path, in, out, true)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		if rerr := c.refresh(ctx); rerr != nil {
			return err
		}
		return c.send(ctx, method, path, in, out, true)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, in, out any, auth bool) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if access := c.Tokens().Access; access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// A body that is not our JSON error shape still yields a usable error.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decoding %s %s response: %w", method, path, err)
	}
	return nil
}
