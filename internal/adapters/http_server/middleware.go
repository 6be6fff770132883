package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"smartstay/internal/adapters/observability"
	"smartstay/internal/domain"
)

// BodyLimit caps the request body; reads past n fail.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// AccessLog records one metric sample and one log line per request.
// It runs after RealIP, so RemoteAddr already holds the client address.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route, took := routeOf(r), time.Since(start)
		observability.ObserveHTTP(route, r.Method, status, took)

		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("req_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("took", took).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// ---- Auth ----

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type principalKey struct{}

func principalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey{}).(domain.Principal)
	return p
}

// Auth rejects requests without a valid bearer token.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" || v == nil {
				writeFail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			p, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				log.Debug().Err(err).Msg("token rejected")
				writeFail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
		})
	}
}

// ---- DB readiness ----

// Readiness is the part of the connection gate handlers depend on.
type Readiness interface {
	Wait(ctx context.Context) error
}

const dbConnectingMessage = "Database is connecting, please retry shortly"

// RequireDB holds a request until the database is ready, or answers 503.
func RequireDB(g Readiness) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			err := g.Wait(r.Context())
			observability.ObserveGate(err == nil, time.Since(start))
			if err != nil {
				if !errors.Is(err, domain.ErrUnavailable) {
					log.Warn().Err(err).Msg("gate wait failed")
				}
				w.Header().Set("Retry-After", "3")
				writeFail(w, http.StatusServiceUnavailable, dbConnectingMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
