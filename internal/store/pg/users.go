package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vernis.app/internal/auth"
	"vernis.app/internal/ids"
)

const userColumns = `id, email, username, password_hash, email_confirmed,
	confirm_token, confirm_token_expires_at, reset_token, reset_token_expires_at,
	created_at, updated_at`

func scanUser(row *sql.Row) (auth.User, error) {
	var (
		u                auth.User
		confirmToken     sql.NullString
		confirmExpiresAt sql.NullTime
		resetToken       sql.NullString
		resetExpiresAt   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.EmailConfirmed,
		&confirmToken, &confirmExpiresAt, &resetToken, &resetExpiresAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrNotFound
		}
		return auth.User{}, err
	}
	u.ConfirmToken = strPtr(confirmToken)
	u.ConfirmTokenExpiresAt = timePtr(confirmExpiresAt)
	u.ResetToken = strPtr(resetToken)
	u.ResetTokenExpiresAt = timePtr(resetExpiresAt)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, username, passwordHash string) (auth.User, error) {
	id := ids.New()
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		insert into users (id, email, username, password_hash)
		values ($1, $2, $3, $4)
		returning %s`, userColumns),
		id, email, username, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		return auth.User{}, mapWriteError(err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from users where id = $1`, userColumns), id)
	return scanUser(row)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from users where email = $1`, userColumns), email)
	return scanUser(row)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select %s from users where username = $1`, userColumns), username)
	return scanUser(row)
}

// SetConfirmToken overwrites any previous confirmation token; the most
// recently issued one is the only valid one.
func (s *Store) SetConfirmToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set confirm_token = $2, confirm_token_expires_at = $3, updated_at = now()
		where id = $1`, userID, token, expiresAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set reset_token = $2, reset_token_expires_at = $3, updated_at = now()
		where id = $1`, userID, token, expiresAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UserByConfirmToken only matches tokens that are still live at now; an
// expired token is indistinguishable from an unknown one.
func (s *Store) UserByConfirmToken(ctx context.Context, token string, now time.Time) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		select %s from users
		where confirm_token = $1 and confirm_token_expires_at > $2`, userColumns),
		token, now)
	return scanUser(row)
}

func (s *Store) UserByResetToken(ctx context.Context, token string, now time.Time) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		select %s from users
		where reset_token = $1 and reset_token_expires_at > $2`, userColumns),
		token, now)
	return scanUser(row)
}

// ConfirmEmail flips the confirmed flag and clears the token in one
// compare-and-clear update. A zero row count means the token was already
// consumed or never matched.
func (s *Store) ConfirmEmail(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set email_confirmed = true, confirm_token = null, confirm_token_expires_at = null, updated_at = now()
		where id = $1 and confirm_token = $2`, userID, token)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrInvalidToken
	}
	return nil
}

func (s *Store) ResetPassword(ctx context.Context, userID, token, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set password_hash = $3, reset_token = null, reset_token_expires_at = null, updated_at = now()
		where id = $1 and reset_token = $2`, userID, token, passwordHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrInvalidToken
	}
	return nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}
