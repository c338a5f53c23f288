package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations the auth subsystem needs. The
// backing database owns all consistency guarantees (uniqueness, transactions);
// the core holds no state of its own. Uniqueness violations surface as
// ErrConflict, missing rows as ErrNotFound.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, email, username, passwordHash string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)

	// Token lifecycle. The lookup methods combine token equality with
	// freshness (expires_at > now) in a single predicate so expired and
	// unknown tokens are indistinguishable. The consume methods are
	// compare-and-clear: they apply the authorized state change and null
	// the token fields in one atomic write conditioned on the token still
	// matching, returning ErrInvalidToken when it no longer does.
	SetConfirmToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	UserByConfirmToken(ctx context.Context, token string, now time.Time) (User, error)
	UserByResetToken(ctx context.Context, token string, now time.Time) (User, error)
	ConfirmEmail(ctx context.Context, userID, token string) error
	ResetPassword(ctx context.Context, userID, token, passwordHash string) error

	// Reference data and tenants.
	EnsureRoles(ctx context.Context, roles []Role) error
	RoleByName(ctx context.Context, name string) (Role, error)
	CreateClient(ctx context.Context, name string, parentID, ownerID *string) (Client, error)
	ClientByID(ctx context.Context, id string) (Client, error)

	// Role assignment. Assign* are idempotent: re-inserting an existing
	// (user|group, role, client) triple is a no-op, not a conflict.
	AssignRole(ctx context.Context, userID, roleID string, clientID *string) error
	DirectRoleNames(ctx context.Context, userID string, clientID *string) ([]string, error)

	// Groups.
	CreateGroup(ctx context.Context, name string) (Group, error)
	AddGroupMember(ctx context.Context, groupID, userID string) error
	GroupIDsOf(ctx context.Context, userID string) ([]string, error)
	AssignGroupRole(ctx context.Context, groupID, roleID string, clientID *string) error
	GroupRoleNames(ctx context.Context, groupIDs []string, clientID *string) ([]string, error)
}
