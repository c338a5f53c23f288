package auth

import "time"

// User is an account on the platform. Confirmation and reset tokens are
// embedded: each is an opaque random value plus an absolute expiry, cleared
// back to null once consumed.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	PasswordHash          string     `json:"-"`
	EmailConfirmed        bool       `json:"email_confirmed"`
	ConfirmToken          *string    `json:"-"`
	ConfirmTokenExpiresAt *time.Time `json:"-"`
	ResetToken            *string    `json:"-"`
	ResetTokenExpiresAt   *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Client is the tenant boundary role assignments may be scoped to. Clients
// can nest (ParentID) and may be owned by a user.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role is reference data seeded at install time and looked up by name.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleAssignment ties a user to a role, optionally scoped to a client.
// A nil ClientID is a global assignment, applicable in every tenant scope.
// Unique on (user, role, client); re-assigning the triple is a no-op.
type RoleAssignment struct {
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	RoleName  string    `json:"role"`
	ClientID  *string   `json:"client_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is a named collection of users used for bulk role assignment.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupRoleAssignment ties a group to a role with the same optional client
// scoping semantics as RoleAssignment. Unique on (group, role, client).
type GroupRoleAssignment struct {
	GroupID   string    `json:"group_id"`
	RoleID    string    `json:"role_id"`
	RoleName  string    `json:"role"`
	ClientID  *string   `json:"client_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
