package app

import (
	"fmt"

	"smartstay/internal/domain"
)

// Resource is something a principal acts on. Owner is the user id that owns
// it, empty when the action does not target an existing resource.
type Resource struct {
	Kind  string
	Owner string
}

// Authorizer is the single capability check used by every service: the
// caller's role must allow the action and, for owned resources, the caller
// must be the owner.
type Authorizer struct{ policy domain.Policy }

func NewAuthorizer(p domain.Policy) *Authorizer { return &Authorizer{policy: p} }

func (a *Authorizer) Check(u domain.User, action string, res Resource) error {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !a.policy.Allow(role, res.Kind, action) {
		return fmt.Errorf("%s may not %s %s: %w", role, action, res.Kind, domain.ErrForbidden)
	}
	if res.Owner != "" && res.Owner != u.ID {
		return fmt.Errorf("%s is not owned by caller: %w", res.Kind, domain.ErrForbidden)
	}
	return nil
}
