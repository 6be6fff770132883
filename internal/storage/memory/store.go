// Package memory is a process-local Store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartstay/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	hotels   map[string]domain.Hotel
	rooms    map[string]domain.Room
	bookings map[string]domain.Booking
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    map[string]domain.User{},
		hotels:   map[string]domain.Hotel{},
		rooms:    map[string]domain.Room{},
		bookings: map[string]domain.Booking{},
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source; tests use it to order records.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Close(context.Context) error { return nil }

func clone(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

// ---- users ----

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	u.RecentSearchedCities = clone(u.RecentSearchedCities)
	return u, nil
}

func (s *Store) UpsertUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	cur, ok := s.users[u.ID]
	if !ok {
		if u.Role == "" {
			u.Role = domain.RoleUser
		}
		u.RecentSearchedCities = clone(u.RecentSearchedCities)
		u.CreatedAt, u.UpdatedAt = now, now
		s.users[u.ID] = u
		return nil
	}
	cur.Email, cur.Username, cur.Image = u.Email, u.Username, u.Image
	cur.UpdatedAt = now
	s.users[u.ID] = cur
	return nil
}

func (s *Store) SetRole(_ context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	u.Role = role
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *Store) SetRecentCities(_ context.Context, id string, cities []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	u.RecentSearchedCities = clone(cities)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// ---- hotels ----

func (s *Store) CreateHotel(_ context.Context, h domain.Hotel) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.hotels {
		if x.Owner == h.Owner {
			return domain.Hotel{}, fmt.Errorf("owner %s: %w", h.Owner, domain.ErrConflict)
		}
	}
	h.ID = uuid.NewString()
	h.CreatedAt = s.now()
	s.hotels[h.ID] = h
	return h, nil
}

// PutHotel stores h as-is; tests use it to seed fixed ids.
func (s *Store) PutHotel(h domain.Hotel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.ID] = h
}

// DeleteHotel removes a hotel without touching its rooms.
func (s *Store) DeleteHotel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hotels, id)
}

func (s *Store) GetHotel(_ context.Context, id string) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("hotel %s: %w", id, domain.ErrNotFound)
	}
	return h, nil
}

func (s *Store) GetHotelByOwner(_ context.Context, owner string) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hotels {
		if h.Owner == owner {
			return h, nil
		}
	}
	return domain.Hotel{}, fmt.Errorf("hotel of %s: %w", owner, domain.ErrNotFound)
}

func (s *Store) GetHotels(_ context.Context, ids []string) (map[string]domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Hotel, len(ids))
	for _, id := range ids {
		if h, ok := s.hotels[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

// ---- rooms ----

func (s *Store) CreateRoom(_ context.Context, r domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	r.Amenities, r.Images = clone(r.Amenities), clone(r.Images)
	s.rooms[r.ID] = r
	return r, nil
}

func (s *Store) GetRoom(_ context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, fmt.Errorf("room %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (s *Store) UpdateRoom(_ context.Context, r domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rooms[r.ID]
	if !ok {
		return fmt.Errorf("room %s: %w", r.ID, domain.ErrNotFound)
	}
	r.CreatedAt = cur.CreatedAt
	r.UpdatedAt = s.now()
	r.Amenities, r.Images = clone(r.Amenities), clone(r.Images)
	s.rooms[r.ID] = r
	return nil
}

func (s *Store) listRooms(keep func(domain.Room) bool) []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListAvailableRooms(context.Context) ([]domain.Room, error) {
	return s.listRooms(func(r domain.Room) bool { return r.IsAvailable }), nil
}

func (s *Store) ListRoomsByHotel(_ context.Context, hotelID string) ([]domain.Room, error) {
	return s.listRooms(func(r domain.Room) bool { return r.Hotel == hotelID }), nil
}

// ---- bookings ----

func (s *Store) CreateBooking(_ context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uuid.NewString()
	b.CreatedAt = s.now()
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) CountOverlapping(_ context.Context, room string, in, out time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bookings {
		if b.Room == room && b.Status != domain.BookingCancelled &&
			b.CheckInDate.Before(out) && b.CheckOutDate.After(in) {
			n++
		}
	}
	return n, nil
}

func (s *Store) listBookings(keep func(domain.Booking) bool) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListBookingsByUser(_ context.Context, user string) ([]domain.Booking, error) {
	return s.listBookings(func(b domain.Booking) bool { return b.User == user }), nil
}

func (s *Store) ListBookingsByHotel(_ context.Context, hotel string) ([]domain.Booking, error) {
	return s.listBookings(func(b domain.Booking) bool { return b.Hotel == hotel }), nil
}
