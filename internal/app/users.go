package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"smartstay/internal/domain"
)

type UserService struct {
	repo  domain.UserRepository
	dir   domain.Directory // optional
	authz *Authorizer
}

func NewUserService(r domain.UserRepository, dir domain.Directory, a *Authorizer) *UserService {
	return &UserService{repo: r, dir: dir, authz: a}
}

// Current returns the caller's user record, provisioning it on first sight.
func (s *UserService) Current(ctx context.Context, p domain.Principal) (domain.User, error) {
	if p.UserID == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	u, err := s.repo.GetUser(ctx, p.UserID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	prof := domain.Profile{ID: p.UserID}
	if s.dir != nil {
		dp, derr := s.dir.GetUser(ctx, p.UserID)
		switch {
		case derr == nil:
			prof = dp
		case errors.Is(derr, domain.ErrNotFound):
			return domain.User{}, fmt.Errorf("user %s: %w", p.UserID, domain.ErrNotFound)
		default:
			// provision with what the token told us; the webhook fills the rest
			log.Warn().Err(derr).Str("user", p.UserID).Msg("directory lookup failed; provisioning bare user")
		}
	}
	if err := s.Sync(ctx, prof); err != nil {
		return domain.User{}, err
	}
	log.Info().Str("user", p.UserID).Msg("user provisioned")
	return s.repo.GetUser(ctx, p.UserID)
}

// Sync upserts profile fields; new users start with the "user" role.
func (s *UserService) Sync(ctx context.Context, prof domain.Profile) error {
	if prof.ID == "" {
		return fmt.Errorf("profile without id: %w", domain.ErrInvalid)
	}
	return s.repo.UpsertUser(ctx, domain.User{
		ID:                   prof.ID,
		Email:                prof.Email,
		Username:             prof.Username,
		Image:                prof.Image,
		Role:                 domain.RoleUser,
		RecentSearchedCities: []string{},
	})
}

func (s *UserService) StoreRecentSearch(ctx context.Context, p domain.Principal, city string) ([]string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("recentSearchedCity is required: %w", domain.ErrInvalid)
	}
	u, err := s.Current(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(u, "update", Resource{Kind: "profile", Owner: u.ID}); err != nil {
		return nil, err
	}
	u.PushRecentCity(city)
	if err := s.repo.SetRecentCities(ctx, u.ID, u.RecentSearchedCities); err != nil {
		return nil, err
	}
	return u.RecentSearchedCities, nil
}

// WebhookEvent is an identity-provider user event.
type WebhookEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// HandleWebhook applies user events. Deletions are acknowledged but users are
// never removed.
func (s *UserService) HandleWebhook(ctx context.Context, evt WebhookEvent) error {
	switch evt.Type {
	case "user.created", "user.updated":
		prof := MapProfile(evt.Data)
		if err := s.Sync(ctx, prof); err != nil {
			return err
		}
		log.Info().Str("type", evt.Type).Str("user", prof.ID).Msg("webhook applied")
	case "user.deleted":
		log.Info().Str("user", lookupStr(evt.Data, "id")).Msg("user deleted at identity provider; record kept")
	default:
		log.Debug().Str("type", evt.Type).Msg("webhook event ignored")
	}
	return nil
}
