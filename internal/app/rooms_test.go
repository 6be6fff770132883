package app_test

import (
	"context"
	"errors"
	"testing"

	"smartstay/internal/domain"
)

func ids(vs []domain.RoomView) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func TestList_NewestFirstWithHotel(t *testing.T) {
	f := newFixture()
	h := f.owner("owner_1", "Dubai")
	r1 := f.room("owner_1", "Single Bed", 99)
	r2 := f.room("owner_1", "Double Bed", 149)

	got, err := f.rooms.List(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 2 || got[0].ID != r2.ID || got[1].ID != r1.ID {
		t.Fatalf("unexpected rooms: %v", ids(got))
	}
	if got[0].Hotel.ID != h.ID || got[0].Hotel.City != "Dubai" {
		t.Fatalf("hotel not resolved: %+v", got[0].Hotel)
	}
	if got[0].Images[0] != "https://img.example/Double Bed.jpg" {
		t.Fatalf("unexpected image url: %v", got[0].Images)
	}
}

func TestList_SkipsRoomsWithUnknownHotel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	keep := f.room("owner_1", "Single Bed", 99)
	orphan, _ := f.store.CreateRoom(ctx, domain.Room{Hotel: "missing", RoomType: "Ghost", IsAvailable: true})

	got, err := f.rooms.List(ctx)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("expected only %s, got %v (orphan %s)", keep.ID, ids(got), orphan.ID)
	}
}

func TestList_RepeatedCallsAreStable(t *testing.T) {
	f := newFixture()
	f.owner("owner_1", "Dubai")
	f.room("owner_1", "Single Bed", 99)
	f.room("owner_1", "Suite", 299)

	first, _ := f.rooms.List(context.Background())
	for i := 0; i < 3; i++ {
		again, err := f.rooms.List(context.Background())
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		a, b := ids(first), ids(again)
		if len(a) != len(b) {
			t.Fatalf("length changed: %v vs %v", a, b)
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("rooms changed: %v vs %v", a, b)
			}
		}
	}
}

func TestList_CacheInvalidatedOnToggle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	r := f.room("owner_1", "Single Bed", 99)

	if got, _ := f.rooms.List(ctx); len(got) != 1 {
		t.Fatalf("expected 1 room, got %d", len(got))
	}
	if _, err := f.rooms.ToggleAvailability(ctx, principal("owner_1"), r.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got, _ := f.rooms.List(ctx); len(got) != 0 {
		t.Fatalf("expected toggled room to be hidden, got %v", ids(got))
	}
}

func TestCreate_RequiresOwnerRole(t *testing.T) {
	f := newFixture()
	_, err := f.rooms.Create(context.Background(), principal("user_1"), domain.RoomInput{RoomType: "Single", PricePerNight: 10})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreate_UploadFailureCreatesNothing(t *testing.T) {
	f := newFixture()
	f.owner("owner_1", "Dubai")
	f.images.fail = true
	_, err := f.rooms.Create(context.Background(), principal("owner_1"), domain.RoomInput{
		RoomType: "Single", PricePerNight: 10, Images: []domain.Upload{{Name: "a.jpg"}},
	})
	if err == nil {
		t.Fatalf("expected upload error")
	}
	h, _ := f.store.GetHotelByOwner(context.Background(), "owner_1")
	if rs, _ := f.store.ListRoomsByHotel(context.Background(), h.ID); len(rs) != 0 {
		t.Fatalf("no room should be stored, got %d", len(rs))
	}
}

func TestCreate_ValidatesInput(t *testing.T) {
	f := newFixture()
	f.owner("owner_1", "Dubai")
	_, err := f.rooms.Create(context.Background(), principal("owner_1"), domain.RoomInput{RoomType: "Single", PricePerNight: 0})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestUpdate_KeepsImagesWithoutNewFiles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	r := f.room("owner_1", "Single Bed", 99)
	calls := f.images.calls

	up, err := f.rooms.Update(ctx, principal("owner_1"), r.ID, domain.RoomInput{
		RoomType: "Luxury Room", PricePerNight: 250, Amenities: []string{"Pool Access"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if up.RoomType != "Luxury Room" || up.PricePerNight != 250 || len(up.Images) != 1 {
		t.Fatalf("unexpected room: %+v", up)
	}
	if f.images.calls != calls {
		t.Fatalf("no upload expected")
	}
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	f.owner("owner_2", "Paris")
	r := f.room("owner_1", "Single Bed", 99)

	if _, err := f.rooms.ToggleAvailability(ctx, principal("owner_2"), r.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("toggle by another owner: expected ErrForbidden, got %v", err)
	}
	if _, err := f.rooms.Update(ctx, principal("owner_2"), r.ID, domain.RoomInput{RoomType: "x", PricePerNight: 1}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("update by another owner: expected ErrForbidden, got %v", err)
	}
	if _, err := f.rooms.ToggleAvailability(ctx, principal("guest"), r.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("toggle by plain user: expected ErrForbidden, got %v", err)
	}
	if _, err := f.rooms.ToggleAvailability(ctx, principal("owner_1"), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOwnerRooms(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.owner("owner_1", "Dubai")
	f.owner("owner_2", "Paris")
	r := f.room("owner_1", "Single Bed", 99)
	f.room("owner_2", "Suite", 500)
	_, _ = f.rooms.ToggleAvailability(ctx, principal("owner_1"), r.ID)

	got, err := f.rooms.OwnerRooms(ctx, principal("owner_1"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].ID != r.ID || got[0].IsAvailable {
		t.Fatalf("unexpected owner rooms: %+v", got)
	}
}
