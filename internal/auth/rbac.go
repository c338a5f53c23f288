package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// RoleSet is a deduplicated set of role names.
type RoleSet map[string]struct{}

// Has reports membership of a single role name.
func (s RoleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether any of the given role names is in the set.
func (s RoleSet) HasAny(names ...string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// Names returns the set as a sorted slice.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolver computes effective roles for a (user, client) pair. It is
// stateless: every call goes back to the store, so assignment changes take
// effect on the very next authorization check.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// EffectiveRoles returns the union of the user's direct role assignments and
// the role assignments of every group the user belongs to. A nil clientID
// queries global assignments only; a non-nil clientID includes both that
// client's scoped assignments and global ones, since global roles apply
// everywhere. A user with no assignments resolves to the empty set.
func (r *Resolver) EffectiveRoles(ctx context.Context, userID string, clientID *string) (RoleSet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	set := make(RoleSet)

	direct, err := r.store.DirectRoleNames(ctx, userID, clientID)
	if err != nil {
		return nil, fmt.Errorf("direct assignments: %w", err)
	}
	for _, name := range direct {
		set[name] = struct{}{}
	}

	groups, err := r.store.GroupIDsOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("group memberships: %w", err)
	}
	if len(groups) > 0 {
		derived, err := r.store.GroupRoleNames(ctx, groups, clientID)
		if err != nil {
			return nil, fmt.Errorf("group assignments: %w", err)
		}
		for _, name := range derived {
			set[name] = struct{}{}
		}
	}
	return set, nil
}
