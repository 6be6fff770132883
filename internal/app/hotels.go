package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"smartstay/internal/domain"
)

type HotelService struct {
	users  *UserService
	hotels domain.HotelRepository
	roles  domain.UserRepository
	authz  *Authorizer
}

func NewHotelService(u *UserService, h domain.HotelRepository, r domain.UserRepository, a *Authorizer) *HotelService {
	return &HotelService{users: u, hotels: h, roles: r, authz: a}
}

// Register creates the caller's hotel and promotes them to hotel owner.
// An owner has at most one hotel.
func (s *HotelService) Register(ctx context.Context, p domain.Principal, in domain.HotelInput) (domain.Hotel, error) {
	if err := check(in); err != nil {
		return domain.Hotel{}, err
	}
	u, err := s.users.Current(ctx, p)
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := s.authz.Check(u, "create", Resource{Kind: "hotel"}); err != nil {
		return domain.Hotel{}, err
	}

	if _, err := s.hotels.GetHotelByOwner(ctx, u.ID); err == nil {
		return domain.Hotel{}, fmt.Errorf("hotel already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Hotel{}, err
	}

	h, err := s.hotels.CreateHotel(ctx, domain.Hotel{
		Name:    in.Name,
		Address: in.Address,
		Contact: in.Contact,
		City:    in.City,
		Owner:   u.ID,
	})
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := s.roles.SetRole(ctx, u.ID, domain.RoleHotelOwner); err != nil {
		return domain.Hotel{}, fmt.Errorf("promote owner %s: %w", u.ID, err)
	}
	log.Info().Str("hotel", h.ID).Str("owner", u.ID).Msg("hotel registered")
	return h, nil
}

// OwnedHotel returns the hotel of a caller allowed to perform action on kind.
func (s *HotelService) OwnedHotel(ctx context.Context, p domain.Principal, kind, action string) (domain.User, domain.Hotel, error) {
	u, err := s.users.Current(ctx, p)
	if err != nil {
		return domain.User{}, domain.Hotel{}, err
	}
	if err := s.authz.Check(u, action, Resource{Kind: kind}); err != nil {
		return domain.User{}, domain.Hotel{}, err
	}
	h, err := s.hotels.GetHotelByOwner(ctx, u.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.Hotel{}, fmt.Errorf("no hotel found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, domain.Hotel{}, err
	}
	return u, h, nil
}
