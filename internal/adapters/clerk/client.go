// internal/adapters/clerk/client.go
package clerk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"smartstay/internal/adapters/observability"
	"smartstay/internal/app"
	"smartstay/internal/domain"
	"smartstay/internal/retry"
)

// Client talks to the identity provider's backend API.
type Client struct {
	base   string
	hc     *http.Client
	key    string
	rl     *rate.Limiter
	cb     *gobreaker.CircuitBreaker
	policy retry.Policy
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: 20 * time.Second},
		key:    key,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
		cb:     newBreaker("clerk"),
		policy: transientPolicy(200*time.Millisecond, 3),
	}, nil
}

// StatusError is a non-2xx answer.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("clerk: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Code == http.StatusNotFound
	case domain.ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}

// ---- Public API ----

func (c *Client) GetUser(ctx context.Context, id string) (domain.Profile, error) {
	var out map[string]any
	if err := c.get(ctx, "/users/"+url.PathEscape(id), &out); err != nil {
		return domain.Profile{}, err
	}
	return app.MapProfile(out), nil
}

func (c *Client) ListUsers(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("order_by", "created_at")
	var out []map[string]any
	if err := c.get(ctx, "/users?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	profiles := make([]domain.Profile, 0, len(out))
	for _, m := range out {
		profiles = append(profiles, app.MapProfile(m))
	}
	return profiles, nil
}

// ---- Internals ----

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		// 4xx answers mean the service is up
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests)
		},
	})
}

// transientPolicy retries network errors, 429 and 5xx with exponential backoff,
// honoring Retry-After when the server sends it.
func transientPolicy(base time.Duration, retries int) retry.Policy {
	return retry.Policy{Rules: []retry.Rule{
		{
			Name: "network",
			Match: func(err error) bool {
				var ne net.Error
				return errors.As(err, &ne)
			},
			MaxRetries: retries,
			Delay:      retry.Exponential(base, 5*time.Second),
		},
		{
			Name: "transient",
			Match: func(err error) bool {
				var se *StatusError
				if !errors.As(err, &se) {
					return false
				}
				switch se.Code {
				case http.StatusTooManyRequests, http.StatusInternalServerError,
					http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
					return true
				}
				return false
			},
			MaxRetries: retries,
			Delay:      retry.Exponential(base, 5*time.Second),
			Hint: func(err error) time.Duration {
				var se *StatusError
				if errors.As(err, &se) {
					return se.RetryAfter
				}
				return 0
			},
		},
	}}
}

// get performs a GET with client-side rate limiting, retries and a circuit
// breaker, decoding the JSON answer into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, retry.Do(ctx, c.policy, func(ctx context.Context) error {
			return c.once(ctx, path, out)
		})
	})
	return err
}

func (c *Client) once(ctx context.Context, path string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "smartstay/1.0")

	endpoint := strings.SplitN(path, "?", 2)[0]
	if strings.HasPrefix(endpoint, "/users/") {
		endpoint = "/users/{id}"
	}
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("clerk", endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("clerk", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	// read a small error body for diagnostics
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b)), RetryAfter: retryAfter(resp)}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
