package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"smartstay/internal/domain"
)

type BookingService struct {
	bookings domain.BookingRepository
	rooms    domain.RoomRepository
	hotels   domain.HotelRepository
	owners   *HotelService
	users    *UserService
	authz    *Authorizer
	now      func() time.Time
}

func NewBookingService(b domain.BookingRepository, r domain.RoomRepository, h domain.HotelRepository,
	owners *HotelService, users *UserService, a *Authorizer) *BookingService {
	return &BookingService{bookings: b, rooms: r, hotels: h, owners: owners, users: users, authz: a, now: time.Now}
}

func (s *BookingService) CheckAvailability(ctx context.Context, q domain.AvailabilityQuery) (bool, error) {
	if err := check(q); err != nil {
		return false, err
	}
	if _, err := s.rooms.GetRoom(ctx, q.Room); err != nil {
		return false, err
	}
	return s.available(ctx, q.Room, q.CheckInDate, q.CheckOutDate)
}

func (s *BookingService) available(ctx context.Context, roomID string, in, out time.Time) (bool, error) {
	n, err := s.bookings.CountOverlapping(ctx, roomID, in, out)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *BookingService) Create(ctx context.Context, p domain.Principal, in domain.BookingInput) (domain.Booking, error) {
	if err := check(in); err != nil {
		return domain.Booking{}, err
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if in.CheckInDate.Before(today) {
		return domain.Booking{}, fmt.Errorf("check-in date is in the past: %w", domain.ErrInvalid)
	}
	u, err := s.users.Current(ctx, p)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.authz.Check(u, "create", Resource{Kind: "booking"}); err != nil {
		return domain.Booking{}, err
	}
	room, err := s.rooms.GetRoom(ctx, in.Room)
	if err != nil {
		return domain.Booking{}, err
	}
	if !room.IsAvailable {
		return domain.Booking{}, fmt.Errorf("room is not open for booking: %w", domain.ErrConflict)
	}
	hotel, err := s.hotels.GetHotel(ctx, room.Hotel)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("room has no hotel: %w", domain.ErrNotFound)
		}
		return domain.Booking{}, err
	}
	ok, err := s.available(ctx, room.ID, in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return domain.Booking{}, err
	}
	if !ok {
		return domain.Booking{}, fmt.Errorf("room is not available for these dates: %w", domain.ErrConflict)
	}

	b, err := s.bookings.CreateBooking(ctx, domain.Booking{
		User:          u.ID,
		Room:          room.ID,
		Hotel:         hotel.ID,
		CheckInDate:   in.CheckInDate,
		CheckOutDate:  in.CheckOutDate,
		TotalPrice:    float64(domain.Nights(in.CheckInDate, in.CheckOutDate)) * room.PricePerNight,
		Guests:        in.Guests,
		Status:        domain.BookingPending,
		PaymentMethod: domain.DefaultPaymentMethod,
	})
	if err != nil {
		return domain.Booking{}, err
	}
	log.Info().Str("booking", b.ID).Str("room", room.ID).Float64("total", b.TotalPrice).Msg("booking created")
	return b, nil
}

func (s *BookingService) UserBookings(ctx context.Context, p domain.Principal) ([]domain.BookingView, error) {
	u, err := s.users.Current(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(u, "read", Resource{Kind: "booking", Owner: u.ID}); err != nil {
		return nil, err
	}
	bs, err := s.bookings.ListBookingsByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, bs), nil
}

func (s *BookingService) HotelDashboard(ctx context.Context, p domain.Principal) (domain.HotelDashboard, error) {
	_, h, err := s.owners.OwnedHotel(ctx, p, "dashboard", "read")
	if err != nil {
		return domain.HotelDashboard{}, err
	}
	bs, err := s.bookings.ListBookingsByHotel(ctx, h.ID)
	if err != nil {
		return domain.HotelDashboard{}, err
	}
	d := domain.HotelDashboard{TotalBookings: len(bs), Bookings: s.views(ctx, bs)}
	for _, b := range bs {
		if b.Status != domain.BookingCancelled {
			d.TotalRevenue += b.TotalPrice
		}
	}
	return d, nil
}

// views attaches room and hotel details; lookups that fail leave them empty.
func (s *BookingService) views(ctx context.Context, bs []domain.Booking) []domain.BookingView {
	out := make([]domain.BookingView, 0, len(bs))
	rooms := map[string]*domain.Room{}
	ids := make([]string, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.Hotel)
	}
	hotels, err := s.hotels.GetHotels(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("resolve booking hotels failed")
	}
	for _, b := range bs {
		v := domain.BookingView{Booking: b}
		r, ok := rooms[b.Room]
		if !ok {
			if got, err := s.rooms.GetRoom(ctx, b.Room); err == nil {
				r = &got
			}
			rooms[b.Room] = r
		}
		v.RoomDetails = r
		if h, ok := hotels[b.Hotel]; ok {
			v.HotelDetails = &h
		}
		out = append(out, v)
	}
	return out
}
