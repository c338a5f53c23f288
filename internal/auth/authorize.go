package auth

import (
	"context"
	"fmt"
	"strings"
)

// Policy declares what an operation requires. AnyRole passes when the
// effective role set intersects it (ANY-of); AllPermissions passes when the
// permissions derived from the effective roles cover every entry (ALL-of).
// An empty policy accepts any authenticated principal.
type Policy struct {
	AnyRole        []string
	AllPermissions []string
}

// Gate is the enforcement point. It holds no per-request state; every
// decision recomputes effective roles through the resolver.
type Gate struct {
	resolver *Resolver
}

func NewGate(resolver *Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// Authorize resolves effective roles for (userID, clientID) and checks them
// against the policy. On rejection the returned error wraps ErrForbidden and
// names the unmet requirement; it never echoes the roles the principal does
// hold. The resolved set is returned on success so callers can reuse it.
func (g *Gate) Authorize(ctx context.Context, userID string, clientID *string, pol Policy) (RoleSet, error) {
	roles, err := g.resolver.EffectiveRoles(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if len(pol.AnyRole) > 0 && !roles.HasAny(pol.AnyRole...) {
		return nil, fmt.Errorf("%w: requires one of roles [%s]", ErrForbidden, strings.Join(pol.AnyRole, ", "))
	}
	if len(pol.AllPermissions) > 0 {
		granted := PermissionsForRoles(roles)
		for _, perm := range pol.AllPermissions {
			if _, ok := granted[perm]; !ok {
				return nil, fmt.Errorf("%w: missing permission %s", ErrForbidden, perm)
			}
		}
	}
	return roles, nil
}
