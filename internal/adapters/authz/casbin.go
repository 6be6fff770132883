package authz

import (
	"github.com/casbin/casbin"
	"github.com/rs/zerolog/log"

	"smartstay/internal/domain"
)

// Enforcer answers role permissions from a casbin RBAC model and policy file.
type Enforcer struct{ e *casbin.Enforcer }

func New(modelPath, policyPath string) (*Enforcer, error) {
	e, err := casbin.NewEnforcerSafe(modelPath, policyPath)
	if err != nil {
		return nil, err
	}
	return &Enforcer{e: e}, nil
}

func (a *Enforcer) Allow(role domain.Role, resource, action string) bool {
	ok, err := a.e.EnforceSafe(string(role), resource, action)
	if err != nil {
		log.Error().Err(err).Str("role", string(role)).Str("resource", resource).Str("action", action).Msg("casbin enforce failed")
		return false
	}
	return ok
}
