package pg

import (
	"context"
	"database/sql"
	"errors"

	"vernis.app/internal/auth"
	"vernis.app/internal/ids"
)

func (s *Store) EnsureRoles(ctx context.Context, roles []auth.Role) error {
	for _, r := range roles {
		_, err := s.db.ExecContext(ctx, `
			insert into roles (id, name, description)
			values ($1, $2, $3)
			on conflict (name) do nothing`,
			ids.New(), r.Name, nullIfEmpty(r.Description))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RoleByName(ctx context.Context, name string) (auth.Role, error) {
	var (
		r    auth.Role
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, description, created_at from roles where name = $1`, name).
		Scan(&r.ID, &r.Name, &desc, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Role{}, auth.ErrNotFound
		}
		return auth.Role{}, err
	}
	r.Description = desc.String
	return r, nil
}

func (s *Store) CreateClient(ctx context.Context, name string, parentID, ownerID *string) (auth.Client, error) {
	var (
		c      auth.Client
		parent sql.NullString
		owner  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		insert into clients (id, name, parent_id, owner_id)
		values ($1, $2, $3, $4)
		returning id, name, parent_id, owner_id, created_at, updated_at`,
		ids.New(), name, nullString(parentID), nullString(ownerID)).
		Scan(&c.ID, &c.Name, &parent, &owner, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return auth.Client{}, mapWriteError(err)
	}
	c.ParentID = strPtr(parent)
	c.OwnerID = strPtr(owner)
	return c, nil
}

func (s *Store) ClientByID(ctx context.Context, id string) (auth.Client, error) {
	var (
		c      auth.Client
		parent sql.NullString
		owner  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, parent_id, owner_id, created_at, updated_at
		from clients where id = $1`, id).
		Scan(&c.ID, &c.Name, &parent, &owner, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Client{}, auth.ErrNotFound
		}
		return auth.Client{}, err
	}
	c.ParentID = strPtr(parent)
	c.OwnerID = strPtr(owner)
	return c, nil
}

// AssignRole is idempotent: re-granting an existing (user, role, client)
// triple is a no-op thanks to the nulls-not-distinct unique constraint.
func (s *Store) AssignRole(ctx context.Context, userID, roleID string, clientID *string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id, client_id)
		values ($1, $2, $3)
		on conflict do nothing`,
		userID, roleID, nullString(clientID))
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// DirectRoleNames returns the user's directly assigned role names visible in
// the given scope. Global grants (null client_id) always apply; a nil
// clientID restricts the result to global grants only.
func (s *Store) DirectRoleNames(ctx context.Context, userID string, clientID *string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct r.name
		from user_roles ur
		join roles r on r.id = ur.role_id
		where ur.user_id = $1 and (ur.client_id is null or ur.client_id = $2)`,
		userID, nullString(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *Store) CreateGroup(ctx context.Context, name string) (auth.Group, error) {
	var g auth.Group
	err := s.db.QueryRowContext(ctx, `
		insert into groups (id, name)
		values ($1, $2)
		returning id, name, created_at`,
		ids.New(), name).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		return auth.Group{}, mapWriteError(err)
	}
	return g, nil
}

func (s *Store) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_groups (user_id, group_id)
		values ($1, $2)
		on conflict do nothing`, userID, groupID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *Store) GroupIDsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select group_id from user_groups where user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *Store) AssignGroupRole(ctx context.Context, groupID, roleID string, clientID *string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into group_roles (group_id, role_id, client_id)
		values ($1, $2, $3)
		on conflict do nothing`,
		groupID, roleID, nullString(clientID))
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GroupRoleNames resolves role names granted through any of the given
// groups, with the same scope rule as DirectRoleNames.
func (s *Store) GroupRoleNames(ctx context.Context, groupIDs []string, clientID *string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		select distinct r.name
		from group_roles gr
		join roles r on r.id = gr.role_id
		where gr.group_id = any($1) and (gr.client_id is null or gr.client_id = $2)`,
		groupIDs, nullString(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
