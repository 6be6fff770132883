package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	// UpsertUser writes profile fields; role and recent cities are only set on insert.
	UpsertUser(ctx context.Context, u User) error
	SetRole(ctx context.Context, id string, role Role) error
	SetRecentCities(ctx context.Context, id string, cities []string) error
}

type HotelRepository interface {
	// CreateHotel returns ErrConflict when the owner already has a hotel.
	CreateHotel(ctx context.Context, h Hotel) (Hotel, error)
	GetHotel(ctx context.Context, id string) (Hotel, error)
	GetHotelByOwner(ctx context.Context, owner string) (Hotel, error)
	// GetHotels resolves ids; unknown ids are absent from the result.
	GetHotels(ctx context.Context, ids []string) (map[string]Hotel, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, r Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, r Room) error
	// ListAvailableRooms returns rooms with IsAvailable set, newest first.
	ListAvailableRooms(ctx context.Context) ([]Room, error)
	ListRoomsByHotel(ctx context.Context, hotelID string) ([]Room, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	// CountOverlapping counts non-cancelled bookings of room intersecting [in, out).
	CountOverlapping(ctx context.Context, room string, in, out time.Time) (int, error)
	ListBookingsByUser(ctx context.Context, user string) ([]Booking, error)
	ListBookingsByHotel(ctx context.Context, hotel string) ([]Booking, error)
}

// Store is the full persistence surface; both storage drivers implement it.
type Store interface {
	UserRepository
	HotelRepository
	RoomRepository
	BookingRepository
	Close(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ImageStore uploads an image and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

// Directory looks up user profiles at the identity provider.
type Directory interface {
	GetUser(ctx context.Context, id string) (Profile, error)
}

// Policy answers role-level permission questions (role, resource, action).
type Policy interface {
	Allow(role Role, resource, action string) bool
}
