package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory Store used by the package tests. It mirrors the
// database semantics the interface documents: conflict on duplicate keys,
// idempotent assignment triples, compare-and-clear token consumption.
type memStore struct {
	mu sync.Mutex

	seq        int
	users      map[string]*User
	roles      map[string]Role
	clients    map[string]Client
	groups     map[string]Group
	userRoles  map[string]*string // "userID|roleID|client" -> clientID
	groupRoles map[string]*string
	members    map[string]map[string]bool // groupID -> userIDs
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*User),
		roles:      make(map[string]Role),
		clients:    make(map[string]Client),
		groups:     make(map[string]Group),
		userRoles:  make(map[string]*string),
		groupRoles: make(map[string]*string),
		members:    make(map[string]map[string]bool),
	}
}

var _ Store = (*memStore)(nil)

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func scopeKey(a, b string, clientID *string) string {
	c := "<global>"
	if clientID != nil {
		c = *clientID
	}
	return a + "|" + b + "|" + c
}

func (m *memStore) CreateUser(_ context.Context, email, username, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return User{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	u := &User{
		ID:           m.nextID("user"),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	return *u, nil
}

func (m *memStore) UserByID(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return *u, nil
	}
	return User{}, ErrNotFound
}

func (m *memStore) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) UserByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) SetConfirmToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.ConfirmToken = &token
	u.ConfirmTokenExpiresAt = &expiresAt
	return nil
}

func (m *memStore) SetResetToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (m *memStore) UserByConfirmToken(_ context.Context, token string, now time.Time) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ConfirmToken != nil && *u.ConfirmToken == token &&
			u.ConfirmTokenExpiresAt != nil && now.Before(*u.ConfirmTokenExpiresAt) {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) UserByResetToken(_ context.Context, token string, now time.Time) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt) {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) ConfirmEmail(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.ConfirmToken == nil || *u.ConfirmToken != token {
		return ErrInvalidToken
	}
	u.EmailConfirmed = true
	u.ConfirmToken = nil
	u.ConfirmTokenExpiresAt = nil
	return nil
}

func (m *memStore) ResetPassword(_ context.Context, userID, token, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return ErrInvalidToken
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (m *memStore) EnsureRoles(_ context.Context, roles []Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range roles {
		if _, ok := m.roles[r.Name]; ok {
			continue
		}
		r.ID = m.nextID("role")
		r.CreatedAt = time.Now().UTC()
		m.roles[r.Name] = r
	}
	return nil
}

func (m *memStore) RoleByName(_ context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	return Role{}, ErrNotFound
}

func (m *memStore) CreateClient(_ context.Context, name string, parentID, ownerID *string) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Name == name {
			return Client{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	c := Client{ID: m.nextID("client"), Name: name, ParentID: parentID, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	m.clients[c.ID] = c
	return c, nil
}

func (m *memStore) ClientByID(_ context.Context, id string) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return Client{}, ErrNotFound
}

func (m *memStore) AssignRole(_ context.Context, userID, roleID string, clientID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	m.userRoles[scopeKey(userID, roleID, clientID)] = clientID
	return nil
}

func (m *memStore) DirectRoleNames(_ context.Context, userID string, clientID *string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roleNames(m.userRoles, userID, clientID), nil
}

func (m *memStore) CreateGroup(_ context.Context, name string) (Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Name == name {
			return Group{}, ErrConflict
		}
	}
	g := Group{ID: m.nextID("group"), Name: name, CreatedAt: time.Now().UTC()}
	m.groups[g.ID] = g
	m.members[g.ID] = make(map[string]bool)
	return g, nil
}

func (m *memStore) AddGroupMember(_ context.Context, groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.members[groupID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	members[userID] = true
	return nil
}

func (m *memStore) GroupIDsOf(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for gid, members := range m.members {
		if members[userID] {
			out = append(out, gid)
		}
	}
	return out, nil
}

func (m *memStore) AssignGroupRole(_ context.Context, groupID, roleID string, clientID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[groupID]; !ok {
		return ErrNotFound
	}
	m.groupRoles[scopeKey(groupID, roleID, clientID)] = clientID
	return nil
}

func (m *memStore) GroupRoleNames(_ context.Context, groupIDs []string, clientID *string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, gid := range groupIDs {
		out = append(out, m.roleNames(m.groupRoles, gid, clientID)...)
	}
	return out, nil
}

// roleNames filters assignment triples by owner and tenant scope: global
// triples always match, scoped ones only when the requested scope equals
// theirs. Callers hold mu.
func (m *memStore) roleNames(assignments map[string]*string, ownerID string, clientID *string) []string {
	var out []string
	for key, assignedClient := range assignments {
		// key layout: owner|role|scope
		parts := splitKey(key)
		owner, roleID := parts[0], parts[1]
		if owner != ownerID {
			continue
		}
		if assignedClient != nil && (clientID == nil || *assignedClient != *clientID) {
			continue
		}
		for _, r := range m.roles {
			if r.ID == roleID {
				out = append(out, r.Name)
			}
		}
	}
	return out
}

func splitKey(key string) [3]string {
	var parts [3]string
	idx := 0
	start := 0
	for i := 0; i < len(key) && idx < 2; i++ {
		if key[i] == '|' {
			parts[idx] = key[start:i]
			idx++
			start = i + 1
		}
	}
	parts[idx] = key[start:]
	return parts
}
