package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger tagged with the service name.
// APP_ENV=dev (or development) uses a human-friendly console writer and debug level.
func NewLogger(env, service string) zerolog.Logger {
	if env == "dev" || env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Str("svc", service).Logger()
	}
	return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).
		With().Timestamp().Str("svc", service).Logger()
}
