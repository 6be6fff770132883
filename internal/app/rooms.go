package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"smartstay/internal/domain"
)

const (
	roomsCacheKey   = "rooms:available"
	uploadFanOut    = 4
	unresolvedOwner = "\x00unresolved"
)

type RoomService struct {
	rooms    domain.RoomRepository
	hotels   domain.HotelRepository
	owners   *HotelService
	users    *UserService
	images   domain.ImageStore
	cache    domain.Cache
	cacheTTL time.Duration
	authz    *Authorizer
}

type RoomDeps struct {
	Rooms    domain.RoomRepository
	Hotels   domain.HotelRepository
	Owners   *HotelService
	Users    *UserService
	Images   domain.ImageStore
	Cache    domain.Cache
	CacheTTL time.Duration
	Authz    *Authorizer
}

func NewRoomService(d RoomDeps) *RoomService {
	return &RoomService{
		rooms: d.Rooms, hotels: d.Hotels, owners: d.Owners, users: d.Users,
		images: d.Images, cache: d.Cache, cacheTTL: d.CacheTTL, authz: d.Authz,
	}
}

// List returns available rooms, newest first, with their hotel resolved.
// Rooms whose hotel no longer resolves are left out.
func (s *RoomService) List(ctx context.Context) ([]domain.RoomView, error) {
	var cached []domain.RoomView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, roomsCacheKey, &cached); ok {
			return cached, nil
		}
	}

	rooms, err := s.rooms.ListAvailableRooms(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.resolve(ctx, rooms)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, roomsCacheKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *RoomService) resolve(ctx context.Context, rooms []domain.Room) ([]domain.RoomView, error) {
	seen := make(map[string]struct{}, len(rooms))
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if _, ok := seen[r.Hotel]; !ok {
			seen[r.Hotel] = struct{}{}
			ids = append(ids, r.Hotel)
		}
	}
	hotels, err := s.hotels.GetHotels(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomView, 0, len(rooms))
	for _, r := range rooms {
		h, ok := hotels[r.Hotel]
		if !ok {
			log.Warn().Str("room", r.ID).Str("hotel", r.Hotel).Msg("room references unknown hotel; skipped")
			continue
		}
		out = append(out, domain.NewRoomView(r, h))
	}
	return out, nil
}

func (s *RoomService) Create(ctx context.Context, p domain.Principal, in domain.RoomInput) (domain.Room, error) {
	if err := check(in); err != nil {
		return domain.Room{}, err
	}
	_, h, err := s.owners.OwnedHotel(ctx, p, "room", "create")
	if err != nil {
		return domain.Room{}, err
	}
	urls, err := s.upload(ctx, in.Images)
	if err != nil {
		return domain.Room{}, err
	}
	r, err := s.rooms.CreateRoom(ctx, domain.Room{
		Hotel:         h.ID,
		RoomType:      in.RoomType,
		PricePerNight: in.PricePerNight,
		Amenities:     nonNil(in.Amenities),
		Images:        urls,
		IsAvailable:   true,
	})
	if err != nil {
		return domain.Room{}, err
	}
	s.invalidate(ctx)
	log.Info().Str("room", r.ID).Str("hotel", h.ID).Int("images", len(urls)).Msg("room created")
	return r, nil
}

// Update rewrites a room's fields. Images are replaced only when new files are sent.
func (s *RoomService) Update(ctx context.Context, p domain.Principal, id string, in domain.RoomInput) (domain.Room, error) {
	if err := check(in); err != nil {
		return domain.Room{}, err
	}
	r, err := s.ownedRoom(ctx, p, id, "update")
	if err != nil {
		return domain.Room{}, err
	}
	r.RoomType = in.RoomType
	r.PricePerNight = in.PricePerNight
	r.Amenities = nonNil(in.Amenities)
	if len(in.Images) > 0 {
		urls, err := s.upload(ctx, in.Images)
		if err != nil {
			return domain.Room{}, err
		}
		r.Images = urls
	}
	if err := s.rooms.UpdateRoom(ctx, r); err != nil {
		return domain.Room{}, err
	}
	s.invalidate(ctx)
	return r, nil
}

func (s *RoomService) ToggleAvailability(ctx context.Context, p domain.Principal, id string) (domain.Room, error) {
	r, err := s.ownedRoom(ctx, p, id, "update")
	if err != nil {
		return domain.Room{}, err
	}
	r.IsAvailable = !r.IsAvailable
	if err := s.rooms.UpdateRoom(ctx, r); err != nil {
		return domain.Room{}, err
	}
	s.invalidate(ctx)
	return r, nil
}

// OwnerRooms lists every room of the caller's hotel, available or not.
func (s *RoomService) OwnerRooms(ctx context.Context, p domain.Principal) ([]domain.RoomView, error) {
	_, h, err := s.owners.OwnedHotel(ctx, p, "room", "read")
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListRoomsByHotel(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, domain.NewRoomView(r, h))
	}
	return out, nil
}

func (s *RoomService) ownedRoom(ctx context.Context, p domain.Principal, id, action string) (domain.Room, error) {
	u, err := s.users.Current(ctx, p)
	if err != nil {
		return domain.Room{}, err
	}
	r, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return domain.Room{}, err
	}
	owner := unresolvedOwner
	if h, err := s.hotels.GetHotel(ctx, r.Hotel); err == nil {
		owner = h.Owner
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Room{}, err
	}
	if err := s.authz.Check(u, action, Resource{Kind: "room", Owner: owner}); err != nil {
		return domain.Room{}, err
	}
	return r, nil
}

// upload sends files to the image store concurrently, keeping their order.
func (s *RoomService) upload(ctx context.Context, files []domain.Upload) ([]string, error) {
	urls := make([]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}
	if s.images == nil {
		return nil, fmt.Errorf("image store not configured: %w", domain.ErrUnavailable)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadFanOut)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			u, err := s.images.Upload(gctx, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *RoomService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, roomsCacheKey)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
