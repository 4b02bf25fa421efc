package db

import (
	"context"
	"database/sql"
	"errors"
)

// IsIPBanned reports whether any banned_ips row matches the address
// exactly. No normalization and no subnet matching: "10.0.0.5" bans only
// the literal string "10.0.0.5". Store failures are returned as errors and
// must never be read as "not banned".
func (d *DB) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx, `SELECT id FROM banned_ips WHERE ip = ? LIMIT 1`, ip).Scan(&id)
	if err == nil {
		return true, nil
	}
	if err == sql.ErrNoRows {
		return false, nil
	}
	return false, err
}

// AddBannedIP inserts a denylist entry and returns its ID.
func (d *DB) AddBannedIP(ctx context.Context, ip string) (int64, error) {
	if ip == "" {
		return 0, errors.New("ip is required")
	}
	res, err := d.sql.ExecContext(ctx, `INSERT INTO banned_ips(ip) VALUES(?)`, ip)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RemoveBannedIP deletes every entry matching the address.
func (d *DB) RemoveBannedIP(ctx context.Context, ip string) (int64, error) {
	if ip == "" {
		return 0, errors.New("ip is required")
	}
	res, err := d.sql.ExecContext(ctx, `DELETE FROM banned_ips WHERE ip = ?`, ip)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListBannedIPs returns all denylist entries.
func (d *DB) ListBannedIPs(ctx context.Context) ([]BannedIP, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, ip FROM banned_ips ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BannedIP
	for rows.Next() {
		var b BannedIP
		if err := rows.Scan(&b.ID, &b.IP); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
