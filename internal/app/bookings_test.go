package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartstay/internal/domain"
)

func future(days int) time.Time {
	return time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, days)
}

func TestBooking_CreateAndAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	r := f.room("owner_1", "Double Bed", 120)

	in := domain.BookingInput{Room: r.ID, CheckInDate: future(10), CheckOutDate: future(13), Guests: 2}
	b, err := f.bookings.Create(ctx, principal("guest_1"), in)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.TotalPrice != 360 || b.Status != domain.BookingPending || b.PaymentMethod != domain.DefaultPaymentMethod {
		t.Fatalf("unexpected booking: %+v", b)
	}

	ok, err := f.bookings.CheckAvailability(ctx, domain.AvailabilityQuery{Room: r.ID, CheckInDate: future(12), CheckOutDate: future(14)})
	if err != nil || ok {
		t.Fatalf("expected overlap to be unavailable, got %v %v", ok, err)
	}
	ok, _ = f.bookings.CheckAvailability(ctx, domain.AvailabilityQuery{Room: r.ID, CheckInDate: future(13), CheckOutDate: future(15)})
	if !ok {
		t.Fatalf("back-to-back stay should be available")
	}

	if _, err := f.bookings.Create(ctx, principal("guest_2"), in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for double booking, got %v", err)
	}
}

func TestBooking_RejectsBadDates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	r := f.room("owner_1", "Double Bed", 120)

	cases := []domain.BookingInput{
		{Room: r.ID, CheckInDate: future(5), CheckOutDate: future(5), Guests: 1},
		{Room: r.ID, CheckInDate: future(-3), CheckOutDate: future(2), Guests: 1},
		{Room: r.ID, CheckInDate: future(1), CheckOutDate: future(2), Guests: 0},
	}
	for i, in := range cases {
		if _, err := f.bookings.Create(ctx, principal("guest_1"), in); !errors.Is(err, domain.ErrInvalid) {
			t.Fatalf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}

func TestBooking_UnavailableRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	r := f.room("owner_1", "Double Bed", 120)
	_, _ = f.rooms.ToggleAvailability(ctx, principal("owner_1"), r.ID)

	_, err := f.bookings.Create(ctx, principal("guest_1"), domain.BookingInput{Room: r.ID, CheckInDate: future(1), CheckOutDate: future(2), Guests: 1})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBooking_UserListAndDashboard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	h := f.owner("owner_1", "Dubai")
	r := f.room("owner_1", "Double Bed", 100)
	for i, g := range []string{"guest_1", "guest_2"} {
		in := domain.BookingInput{Room: r.ID, CheckInDate: future(10 + i*5), CheckOutDate: future(12 + i*5), Guests: 1}
		if _, err := f.bookings.Create(ctx, principal(g), in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	mine, err := f.bookings.UserBookings(ctx, principal("guest_1"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(mine) != 1 || mine[0].RoomDetails == nil || mine[0].HotelDetails == nil || mine[0].HotelDetails.ID != h.ID {
		t.Fatalf("unexpected bookings: %+v", mine)
	}

	d, err := f.bookings.HotelDashboard(ctx, principal("owner_1"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d.TotalBookings != 2 || d.TotalRevenue != 400 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}

	if _, err := f.bookings.HotelDashboard(ctx, principal("guest_1")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
}

func TestCheckAvailability_UnknownRoom(t *testing.T) {
	f := newFixture()
	q := domain.AvailabilityQuery{Room: "no-such-room", CheckInDate: future(3), CheckOutDate: future(5)}
	ok, err := f.bookings.CheckAvailability(context.Background(), q)
	if !errors.Is(err, domain.ErrNotFound) || ok {
		t.Fatalf("expected ErrNotFound, got %v %v", ok, err)
	}
}
