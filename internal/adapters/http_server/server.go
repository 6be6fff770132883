package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
)

const (
	requestTimeout = 15 * time.Second
	uploadTimeout  = 2 * time.Minute
	uploadMaxBody  = 50 << 20
	jsonMaxBody    = 1 << 20
)

type Server struct{ mux *chi.Mux }

type Option func(*options)

type options struct {
	origins []string
	headers []string
}

// WithCORS lets browsers on origins call the API, sending the given request
// headers. Without it no CORS headers are emitted.
func WithCORS(origins, headers []string) Option {
	return func(o *options) { o.origins, o.headers = origins, headers }
}

func New(opts ...Option) *Server {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	m := chi.NewRouter()

	// All middlewares go here, before any routes are added; timeouts are per route group.
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	if len(o.origins) > 0 {
		m.Use(handlers.CORS(
			handlers.AllowedOrigins(o.origins),
			handlers.AllowedHeaders(o.headers),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut}),
			handlers.OptionStatusCode(http.StatusNoContent),
			handlers.MaxAge(600),
		))
	}
	m.Use(AccessLog)

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
