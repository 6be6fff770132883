package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid input")
	// ErrUnavailable means a dependency cannot serve right now; callers may retry.
	ErrUnavailable = errors.New("service unavailable")
	// ErrDatabaseNotReady is the ErrUnavailable reported while the store connection is down.
	ErrDatabaseNotReady = fmt.Errorf("database not ready: %w", ErrUnavailable)
)
