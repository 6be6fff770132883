// Package appstate holds client-side application state loaded from the API,
// retrying transient failures and falling back to defaults when loads fail.
package appstate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"smartstay/internal/adapters/apiclient"
	"smartstay/internal/domain"
	"smartstay/internal/retry"
)

const (
	MsgCannotConnect = "Cannot connect to server. Please check your connection."
	MsgStartingUp    = "Server is starting up. Please try again in a moment."
	MsgRoomsFailed   = "Failed to load rooms"
	MsgUserDefaults  = "Could not load your profile; showing defaults."
)

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// API is the part of the server the store reads.
type API interface {
	Rooms(ctx context.Context) ([]domain.RoomView, error)
	User(ctx context.Context) (apiclient.UserState, error)
}

// State is a snapshot of the store.
type State struct {
	Rooms          []domain.RoomView
	IsOwner        bool
	SearchedCities []string
	RoomsLoading   bool
	UserLoading    bool
}

type loader struct {
	seq    uint64
	cancel context.CancelFunc
}

// begin cancels the in-flight chain, if any, and returns the new chain's context and sequence.
func (l *loader) begin(parent context.Context) (context.Context, uint64) {
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.seq++
	l.cancel = cancel
	return ctx, l.seq
}

func (l *loader) end(seq uint64) bool {
	if seq != l.seq {
		return false
	}
	l.cancel()
	l.cancel = nil
	return true
}

type Store struct {
	api    API
	notify Notifier
	rooms  retry.Policy
	user   retry.Policy

	mu          sync.Mutex
	state       State
	roomsLoader loader
	userLoader  loader
}

type Option func(*Store)

// WithTiming replaces the waits of both default policies.
func WithTiming(t Timing) Option {
	return func(s *Store) {
		s.rooms = RoomsPolicy(t)
		s.user = UserPolicy(t)
	}
}

func New(api API, n Notifier, opts ...Option) *Store {
	s := &Store{
		api:    api,
		notify: n,
		rooms:  RoomsPolicy(DefaultTiming),
		user:   UserPolicy(DefaultTiming),
		state:  State{Rooms: []domain.RoomView{}, SearchedCities: []string{}},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Rooms = append([]domain.RoomView(nil), s.state.Rooms...)
	st.SearchedCities = append([]string(nil), s.state.SearchedCities...)
	return st
}

func (s *Store) emit(level Level, msg string) {
	if s.notify != nil {
		s.notify.Notify(level, msg)
	}
}

// LoadRooms fetches the room list. It blocks until the chain ends and never
// returns an error: failures leave an empty list and a notification. A newer
// call supersedes an older one still in flight.
func (s *Store) LoadRooms(parent context.Context) {
	s.mu.Lock()
	ctx, seq := s.roomsLoader.begin(parent)
	s.state.RoomsLoading = true
	s.mu.Unlock()

	rooms, err := retry.Value(ctx, s.rooms, s.api.Rooms)
	// read before end() releases the chain context
	stopped := ctx.Err() != nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.roomsLoader.end(seq) {
		return
	}
	s.state.RoomsLoading = false
	switch {
	case err == nil:
		s.state.Rooms = rooms
		return
	case stopped:
		return
	}
	s.state.Rooms = []domain.RoomView{}
	rule, _ := retry.Exhausted(err)
	msg := MsgRoomsFailed
	switch {
	case rule == RuleNetwork:
		msg = MsgCannotConnect
	case rule == RuleUnavailable:
		msg = MsgStartingUp
	default:
		var se *apiclient.StatusError
		if errors.As(err, &se) && se.Message != "" {
			msg = se.Message
		}
	}
	log.Warn().Err(err).Msg("rooms load failed")
	s.emit(LevelError, msg)
}

// LoadUser fetches the caller's role and recent searches. A missing user, a
// rejected token or no token at all quietly yields the defaults.
func (s *Store) LoadUser(parent context.Context) {
	s.mu.Lock()
	ctx, seq := s.userLoader.begin(parent)
	s.state.UserLoading = true
	s.mu.Unlock()

	u, err := retry.Value(ctx, s.user, s.api.User)
	// read before end() releases the chain context
	stopped := ctx.Err() != nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.userLoader.end(seq) {
		return
	}
	s.state.UserLoading = false
	switch {
	case err == nil:
		s.state.IsOwner = u.IsOwner()
		s.state.SearchedCities = u.RecentSearchedCities
		return
	case stopped:
		return
	}
	s.state.IsOwner = false
	s.state.SearchedCities = []string{}

	var se *apiclient.StatusError
	switch {
	case errors.Is(err, apiclient.ErrNoToken), errors.Is(err, apiclient.ErrUserNotFound):
		log.Debug().Err(err).Msg("user defaults")
	case errors.As(err, &se) && se.Code == 401:
		log.Info().Msg("authentication failed; user defaults")
	default:
		log.Warn().Err(err).Msg("user load failed")
		s.emit(LevelInfo, MsgUserDefaults)
	}
}
