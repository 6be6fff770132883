package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartstay/internal/domain"
	"smartstay/internal/storage/memory"
)

func TestUpsertUser_KeepsRoleAndCities(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	if err := s.UpsertUser(ctx, domain.User{ID: "user_1", Email: "a@x.io"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = s.SetRole(ctx, "user_1", domain.RoleHotelOwner)
	_ = s.SetRecentCities(ctx, "user_1", []string{"Dubai"})
	if err := s.UpsertUser(ctx, domain.User{ID: "user_1", Email: "b@x.io", Role: domain.RoleUser}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	u, err := s.GetUser(ctx, "user_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Email != "b@x.io" || u.Role != domain.RoleHotelOwner || len(u.RecentSearchedCities) != 1 {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestCreateHotel_OnePerOwner(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	if _, err := s.CreateHotel(ctx, domain.Hotel{Name: "A", Owner: "user_1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateHotel(ctx, domain.Hotel{Name: "B", Owner: "user_1"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestListAvailableRooms_NewestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) })

	old, _ := s.CreateRoom(ctx, domain.Room{Hotel: "h", RoomType: "Single", IsAvailable: true})
	hidden, _ := s.CreateRoom(ctx, domain.Room{Hotel: "h", RoomType: "Suite", IsAvailable: false})
	fresh, _ := s.CreateRoom(ctx, domain.Room{Hotel: "h", RoomType: "Double", IsAvailable: true})

	rooms, _ := s.ListAvailableRooms(ctx)
	if len(rooms) != 2 || rooms[0].ID != fresh.ID || rooms[1].ID != old.ID {
		t.Fatalf("unexpected order: %+v", rooms)
	}
	all, _ := s.ListRoomsByHotel(ctx, "h")
	if len(all) != 3 || all[1].ID != hidden.ID {
		t.Fatalf("expected all rooms of hotel, got %+v", all)
	}
}

func TestCountOverlapping(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }
	_, _ = s.CreateBooking(ctx, domain.Booking{Room: "r", CheckInDate: day(10), CheckOutDate: day(12), Status: domain.BookingPending})
	_, _ = s.CreateBooking(ctx, domain.Booking{Room: "r", CheckInDate: day(20), CheckOutDate: day(22), Status: domain.BookingCancelled})

	cases := []struct {
		in, out int
		want    int
	}{
		{8, 10, 0},  // ends on check-in day
		{12, 14, 0}, // starts on check-out day
		{11, 13, 1},
		{9, 15, 1},
		{20, 22, 0}, // cancelled booking does not block
	}
	for _, tc := range cases {
		n, err := s.CountOverlapping(ctx, "r", day(tc.in), day(tc.out))
		if err != nil || n != tc.want {
			t.Fatalf("[%d,%d): got %d (%v), want %d", tc.in, tc.out, n, err, tc.want)
		}
	}
}
