package clerk

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"smartstay/internal/domain"
)

type sessionClaims struct {
	AuthorizedParty string `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks RS256 session tokens against the provider's PEM public key,
// without a network round trip.
type Verifier struct {
	key     any
	parties []string
}

func NewVerifier(pemKey string, authorizedParties ...string) (*Verifier, error) {
	// env files often carry the PEM with escaped newlines
	pemKey = strings.ReplaceAll(pemKey, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse jwt public key: %w", err)
	}
	return &Verifier{key: key, parties: authorizedParties}, nil
}

func (v *Verifier) Verify(token string) (domain.Principal, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%v: %w", err, domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return domain.Principal{}, fmt.Errorf("token without subject: %w", domain.ErrUnauthorized)
	}
	if len(v.parties) > 0 && claims.AuthorizedParty != "" && !slices.Contains(v.parties, claims.AuthorizedParty) {
		return domain.Principal{}, fmt.Errorf("unexpected azp %q: %w", claims.AuthorizedParty, domain.ErrUnauthorized)
	}
	return domain.Principal{UserID: claims.Subject}, nil
}
