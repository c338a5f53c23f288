package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"vernis.app/internal/mailer"
	"vernis.app/internal/obs"
)

const (
	defaultConfirmTTL = 24 * time.Hour
	defaultResetTTL   = 2 * time.Hour

	minPasswordLength = 8
)

// Service owns the credential and token lifecycle flows plus role/group
// management. All state lives in the injected Store; the service itself is
// safe for concurrent use and keeps nothing between requests.
type Service struct {
	store  Store
	tokens *TokenManager
	mail   mailer.Mailer
	now    func() time.Time

	confirmTTL time.Duration
	resetTTL   time.Duration
}

// Session is the signed artifact returned by a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithMailer sets the outbound notification collaborator.
func WithMailer(m mailer.Mailer) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.mail = m
		}
	}
}

// WithConfirmTTL overrides the confirmation token lifetime.
func WithConfirmTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.confirmTTL = ttl
		}
	}
}

// WithResetTTL overrides the reset token lifetime.
func WithResetTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the Service.
func NewService(store Store, tokens *TokenManager, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if tokens == nil {
		return nil, errors.New("token manager is required")
	}
	svc := &Service{
		store:      store,
		tokens:     tokens,
		mail:       mailer.LogMailer{},
		now:        time.Now,
		confirmTTL: defaultConfirmTTL,
		resetTTL:   defaultResetTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EnsureBuiltins seeds the fixed role catalog.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	return s.store.EnsureRoles(ctx, BuiltinRoles)
}

// Register creates an account and issues its confirmation token. The token
// reaches the user through the mailer; a mail failure after the account is
// committed is logged and reported through the audit trail, never rolled
// back.
func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.CreateUser(ctx, email, username, hash)
	if err != nil {
		return User{}, err
	}

	token, expiresAt, err := s.issueConfirmToken(ctx, user.ID)
	if err != nil {
		return User{}, err
	}
	user.ConfirmToken = &token
	user.ConfirmTokenExpiresAt = &expiresAt

	if err := s.mail.SendConfirmation(ctx, user.Email, token, expiresAt); err != nil {
		s.logMailFailure("confirmation", user.Email, err)
	}
	return user, nil
}

// ResendConfirmation issues a fresh confirmation token for an unconfirmed
// account, invalidating the previous one by overwrite.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Same outcome as success: no account enumeration.
			return nil
		}
		return err
	}
	if user.EmailConfirmed {
		return nil
	}
	token, expiresAt, err := s.issueConfirmToken(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.mail.SendConfirmation(ctx, user.Email, token, expiresAt); err != nil {
		s.logMailFailure("confirmation", user.Email, err)
	}
	return nil
}

// ConfirmEmail validates a confirmation token and flips the confirmed flag.
// Validation and consumption are a single compare-and-clear against the
// store, so a token succeeds exactly once even under concurrent attempts.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrInvalidToken
	}
	user, err := s.store.UserByConfirmToken(ctx, token, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	if err := s.store.ConfirmEmail(ctx, user.ID, token); err != nil {
		return User{}, err
	}
	user.EmailConfirmed = true
	user.ConfirmToken = nil
	user.ConfirmTokenExpiresAt = nil
	return user, nil
}

// Login verifies credentials and mints a session token. Wrong email and
// wrong password are indistinguishable; a correct password on an
// unconfirmed account reports ErrEmailNotConfirmed.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	if password == "" {
		return Session{}, ErrUnauthorized
	}
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, err
	}
	if !user.EmailConfirmed {
		return Session{}, ErrEmailNotConfirmed
	}
	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to its principal.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.store.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	return Principal{User: user}, nil
}

// RequestPasswordReset issues a reset token for the account behind email.
// The outcome is identical whether or not the account exists, and an unknown
// email performs no token mutation at all.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil
	}
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := GenerateToken()
	if err != nil {
		return err
	}
	expiresAt := ExpiryFromNow(s.now, s.resetTTL)
	if err := s.store.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}
	if err := s.mail.SendPasswordReset(ctx, user.Email, token, expiresAt); err != nil {
		s.logMailFailure("password_reset", user.Email, err)
	}
	return nil
}

// ResetPassword validates a reset token and replaces the password hash. The
// hash update and the token clear are one atomic compare-and-clear.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.store.UserByResetToken(ctx, token, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.ResetPassword(ctx, user.ID, token, hash)
}

// AssignRole grants a role to a user, optionally scoped to a client.
// Re-assigning an existing triple is a no-op.
func (s *Service) AssignRole(ctx context.Context, userID, roleName string, clientID *string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	role, err := s.roleByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.store.AssignRole(ctx, userID, role.ID, clientID)
}

// CreateClient registers a tenant, optionally nested under a parent and
// owned by a user.
func (s *Service) CreateClient(ctx context.Context, name string, parentID, ownerID *string) (Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Client{}, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	return s.store.CreateClient(ctx, name, parentID, ownerID)
}

// ClientByID fetches a tenant. Handlers use it to derive the tenant scope of
// a resource-bound operation from the stored owner rather than from
// client-supplied input.
func (s *Service) ClientByID(ctx context.Context, id string) (Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Client{}, fmt.Errorf("%w: client id is required", ErrInvalidInput)
	}
	return s.store.ClientByID(ctx, id)
}

// CreateGroup creates a named user collection.
func (s *Service) CreateGroup(ctx context.Context, name string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	return s.store.CreateGroup(ctx, name)
}

// AddGroupMember adds a user to a group; repeats are no-ops.
func (s *Service) AddGroupMember(ctx context.Context, groupID, userID string) error {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return fmt.Errorf("%w: group id and user id are required", ErrInvalidInput)
	}
	return s.store.AddGroupMember(ctx, groupID, userID)
}

// AssignGroupRole grants a role to every member of a group, optionally
// scoped to a client. Re-assigning an existing triple is a no-op.
func (s *Service) AssignGroupRole(ctx context.Context, groupID, roleName string, clientID *string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	role, err := s.roleByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.store.AssignGroupRole(ctx, groupID, role.ID, clientID)
}

func (s *Service) issueConfirmToken(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := ExpiryFromNow(s.now, s.confirmTTL)
	if err := s.store.SetConfirmToken(ctx, userID, token, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) roleByName(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role, err := s.store.RoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Role{}, fmt.Errorf("%w: role %q", ErrNotFound, name)
		}
		return Role{}, err
	}
	return role, nil
}

func (s *Service) logMailFailure(kind, email string, err error) {
	obs.LogRequest(map[string]any{
		"ts":    s.now().UTC().Format(time.RFC3339Nano),
		"level": "error",
		"msg":   "mail_delivery_failed",
		"kind":  kind,
		"email": email,
		"error": err.Error(),
	})
}

// NormalizeClientID maps an optional client scope parameter to the internal
// representation: blank means global.
func NormalizeClientID(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || !utf8.ValidString(password) {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}
