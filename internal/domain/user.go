package domain

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleHotelOwner Role = "hotelOwner"
)

// MaxRecentCities bounds User.RecentSearchedCities.
const MaxRecentCities = 3

type User struct {
	ID                   string    `json:"_id"` // identity-provider subject
	Email                string    `json:"email"`
	Username             string    `json:"username"`
	Image                string    `json:"image"`
	Role                 Role      `json:"role"`
	RecentSearchedCities []string  `json:"recentSearchedCities"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (u User) IsOwner() bool { return u.Role == RoleHotelOwner }

// PushRecentCity appends city, dropping an earlier copy and the oldest entries beyond MaxRecentCities.
func (u *User) PushRecentCity(city string) {
	out := make([]string, 0, MaxRecentCities)
	for _, c := range u.RecentSearchedCities {
		if c != city {
			out = append(out, c)
		}
	}
	out = append(out, city)
	if len(out) > MaxRecentCities {
		out = out[len(out)-MaxRecentCities:]
	}
	u.RecentSearchedCities = out
}

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	UserID string
}

// Profile is what the identity provider knows about a user.
type Profile struct {
	ID       string
	Email    string
	Username string
	Image    string
}
