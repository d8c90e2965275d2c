// Package client is a small HTTP client for the auth server API. It keeps
// the current token pair in memory and sends the access token as a bearer
// header, so it works against servers that only issue Secure cookies.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const apiPrefix = "/api/v1/auth"

// ErrUnavailable wraps transport failures.
var ErrUnavailable = errors.New("server unavailable")

// ErrNotLoggedIn is returned by calls that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a failure reported by the server in its error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type User struct {
	ID        string    `json:"_id"`
	UserName  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	UserName string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client

	mu     sync.Mutex
	tokens tokenPair
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	return &Client{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) session() tokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setSession(p tokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = p
}

// LoggedIn reports whether the client holds a token pair.
func (c *Client) LoggedIn() bool {
	return c.session().RefreshToken != ""
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/register", req, &u, ""); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login treats an identifier containing "@" as an email, anything else as
// a username.
func (c *Client) Login(ctx context.Context, identifier, password string) (*User, error) {
	body := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var out struct {
		User *User `json:"user"`
		tokenPair
	}
	if err := c.do(ctx, http.MethodPost, "/login", body, &out, ""); err != nil {
		return nil, err
	}
	c.setSession(out.tokenPair)
	return out.User, nil
}

// Refresh rotates the token pair. A rejected refresh drops the session.
func (c *Client) Refresh(ctx context.Context) error {
	s := c.session()
	if s.RefreshToken == "" {
		return ErrNotLoggedIn
	}

	var pair tokenPair
	err := c.do(ctx, http.MethodPost, "/refresh-token", map[string]string{"refreshToken": s.RefreshToken}, &pair, "")
	if err != nil {
		if IsUnauthorized(err) {
			c.setSession(tokenPair{})
		}
		return err
	}
	c.setSession(pair)
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	err := c.authed(ctx, func(token string) error {
		return c.do(ctx, http.MethodGet, "/current-user", nil, &u, token)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.authed(ctx, func(token string) error {
		return c.do(ctx, http.MethodPost, "/logout", nil, nil, token)
	})
	if err != nil {
		return err
	}
	c.setSession(tokenPair{})
	return nil
}

// authed runs call with the access token and, if the server rejects it,
// refreshes once and retries.
func (c *Client) authed(ctx context.Context, call func(token string) error) error {
	s := c.session()
	if s.RefreshToken == "" {
		return ErrNotLoggedIn
	}

	err := call(s.AccessToken)
	if !IsUnauthorized(err) {
		return err
	}
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	return call(c.session().AccessToken)
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, token string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+apiPrefix+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
