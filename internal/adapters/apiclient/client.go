// Package apiclient is a typed client for the public SmartStay HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"smartstay/internal/adapters/observability"
	"smartstay/internal/domain"
)

// ErrUserNotFound matches failures whose message says the user does not exist.
var ErrUserNotFound = errors.New("user not found")

// NetworkError means no response was received: unreachable host, reset, or timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a response with success:false. Code is the HTTP status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %d", e.Code)
	}
	return e.Message
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUserNotFound && strings.Contains(strings.ToLower(e.Message), "not found")
}

// TokenSource returns the bearer token for authenticated calls; empty means signed out.
type TokenSource func(ctx context.Context) (string, error)

type Client struct {
	base  string
	hc    *http.Client
	rl    *rate.Limiter
	token TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithToken(ts TokenSource) Option       { return func(c *Client) { c.token = ts } }

// WithRateLimit bounds outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.rl = rate.NewLimiter(rate.Limit(rps), burst) }
}

func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// UserState is the caller's profile summary.
type UserState struct {
	Role                 domain.Role `json:"role"`
	RecentSearchedCities []string    `json:"recentSearchedCities"`
}

func (u UserState) IsOwner() bool { return u.Role == domain.RoleHotelOwner }

// ErrNoToken is returned by authenticated calls when the token source yields nothing.
var ErrNoToken = errors.New("no token available")

func (c *Client) Rooms(ctx context.Context) ([]domain.RoomView, error) {
	var out struct {
		Rooms []domain.RoomView `json:"rooms"`
	}
	if err := c.get(ctx, "/api/rooms", false, &out); err != nil {
		return nil, err
	}
	if out.Rooms == nil {
		out.Rooms = []domain.RoomView{}
	}
	return out.Rooms, nil
}

func (c *Client) User(ctx context.Context) (UserState, error) {
	var out UserState
	if err := c.get(ctx, "/api/user", true, &out); err != nil {
		return UserState{}, err
	}
	if out.RecentSearchedCities == nil {
		out.RecentSearchedCities = []string{}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, auth bool, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		if c.token == nil {
			return ErrNoToken
		}
		tok, err := c.token(ctx)
		if err != nil {
			return err
		}
		if tok == "" {
			return ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("smartstay", path, 0, time.Since(start))
		// caller cancellation is not a network failure
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("smartstay", path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Op: "read " + path, Err: err}
	}
	var env struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &env)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || (env.Success != nil && !*env.Success) {
		return &StatusError{Code: resp.StatusCode, Message: env.Message}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
