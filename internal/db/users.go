package db

import (
	"context"
	"database/sql"
	"errors"
)

const userCols = "id, username, hashed_password, COALESCE(email, ''), is_admin, COALESCE(api_key, ''), last_update, created_at"

func scanUser(row *sql.Row) (*User, bool, error) {
	var u User
	var isAdmin int
	err := row.Scan(&u.ID, &u.Username, &u.PassHash, &u.Email, &isAdmin, &u.APIKey, &u.LastUpdate, &u.CreatedAt)
	if err == nil {
		u.IsAdmin = isAdmin != 0
		return &u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// CreateUser inserts a new account and returns its database ID.
func (d *DB) CreateUser(ctx context.Context, username, passHash, email string, isAdmin bool) (int64, error) {
	if username == "" || passHash == "" {
		return 0, errors.New("username and password hash are required")
	}
	now := nowUnix()
	res, err := d.sql.ExecContext(ctx, `
INSERT INTO users(username, hashed_password, email, is_admin, last_update, created_at)
VALUES(?, ?, NULLIF(?, ''), ?, ?, ?)
`, username, passHash, email, boolToInt(isAdmin), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByUsername looks up an account by exact username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*User, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByAPIKey looks up the account holding an exact bearer token.
func (d *DB) GetUserByAPIKey(ctx context.Context, key string) (*User, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	row := d.sql.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE api_key = ?`, key)
	return scanUser(row)
}

// GetUserByID looks up an account by ID.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*User, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// SetUserAPIKey replaces an account's bearer token. An empty key clears it,
// which is the only revocation mechanism.
func (d *DB) SetUserAPIKey(ctx context.Context, id int64, key string) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}
	_, err := d.sql.ExecContext(ctx, `
UPDATE users SET api_key = NULLIF(?, ''), last_update = ? WHERE id = ?
`, key, nowUnix(), id)
	return err
}

// SetUserPasswordHash updates an account's stored password hash.
func (d *DB) SetUserPasswordHash(ctx context.Context, id int64, passHash string) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}
	if passHash == "" {
		return errors.New("password hash is required")
	}
	_, err := d.sql.ExecContext(ctx, `UPDATE users SET hashed_password = ?, last_update = ? WHERE id = ?`, passHash, nowUnix(), id)
	return err
}

// ListUsers returns all accounts sorted by username.
func (d *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var isAdmin int
		if err := rows.Scan(&u.ID, &u.Username, &u.PassHash, &u.Email, &isAdmin, &u.APIKey, &u.LastUpdate, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.IsAdmin = isAdmin != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

// boolToInt maps booleans to SQLite-friendly integer flags.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
