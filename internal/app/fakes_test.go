package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"smartstay/internal/app"
	"smartstay/internal/domain"
	"smartstay/internal/storage/memory"
)

// ---- fakes ----

// rolePolicy mirrors configs/policy.csv.
type rolePolicy struct{}

func (rolePolicy) Allow(role domain.Role, resource, action string) bool {
	user := map[string]bool{
		"profile:read": true, "profile:update": true, "hotel:create": true,
		"booking:create": true, "booking:read": true,
	}
	owner := map[string]bool{
		"room:create": true, "room:update": true, "room:read": true, "dashboard:read": true,
	}
	k := resource + ":" + action
	switch role {
	case domain.RoleHotelOwner:
		return owner[k] || user[k]
	case domain.RoleUser:
		return user[k]
	}
	return false
}

type fakeImages struct {
	calls int32
	fail  bool
}

func (f *fakeImages) Upload(_ context.Context, u domain.Upload) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return "", fmt.Errorf("cloud down")
	}
	return "https://img.example/" + u.Name, nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  int
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	c.store[key] = b
	return err
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels++
	return nil
}

type fakeDir struct {
	profiles map[string]domain.Profile
	err      error
}

func (d *fakeDir) GetUser(_ context.Context, id string) (domain.Profile, error) {
	if d.err != nil {
		return domain.Profile{}, d.err
	}
	p, ok := d.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

// ---- fixture ----

type fixture struct {
	store    *memory.Store
	images   *fakeImages
	cache    *fakeCache
	users    *app.UserService
	hotels   *app.HotelService
	rooms    *app.RoomService
	bookings *app.BookingService
}

func newFixture() *fixture {
	st := memory.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var tick int64
	st.SetClock(func() time.Time { return base.Add(time.Duration(atomic.AddInt64(&tick, 1)) * time.Second) })

	az := app.NewAuthorizer(rolePolicy{})
	f := &fixture{store: st, images: &fakeImages{}, cache: &fakeCache{}}
	f.users = app.NewUserService(st, nil, az)
	f.hotels = app.NewHotelService(f.users, st, st, az)
	f.rooms = app.NewRoomService(app.RoomDeps{
		Rooms: st, Hotels: st, Owners: f.hotels, Users: f.users,
		Images: f.images, Cache: f.cache, CacheTTL: time.Minute, Authz: az,
	})
	f.bookings = app.NewBookingService(st, st, st, f.hotels, f.users, az)
	return f
}

func principal(id string) domain.Principal { return domain.Principal{UserID: id} }

// owner registers a hotel for id and returns it.
func (f *fixture) owner(id, city string) domain.Hotel {
	h, err := f.hotels.Register(context.Background(), principal(id), domain.HotelInput{
		Name: "Hotel " + id, Address: "1 Main St", Contact: "+1 555 0100", City: city,
	})
	if err != nil {
		panic(err)
	}
	return h
}

func (f *fixture) room(ownerID, kind string, price float64) domain.Room {
	r, err := f.rooms.Create(context.Background(), principal(ownerID), domain.RoomInput{
		RoomType: kind, PricePerNight: price, Amenities: []string{"Free Wifi"},
		Images: []domain.Upload{{Name: kind + ".jpg", Data: []byte{1}}},
	})
	if err != nil {
		panic(err)
	}
	return r
}
