package db

import (
	"context"
	"database/sql"
	"errors"
)

const fileCols = "id, name, original_name, filetype, file_hash, uploaded_by, uploaded_by_ip, created_at"

func scanFile(row *sql.Row) (*File, bool, error) {
	var f File
	err := row.Scan(&f.ID, &f.Name, &f.OriginalName, &f.Filetype, &f.Hash, &f.UploadedBy, &f.UploadedByIP, &f.CreatedAt)
	if err == nil {
		return &f, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// InsertFile records upload metadata unconditionally and returns the new
// row ID. A duplicate (uploaded_by, file_hash) pair returns
// ErrDuplicateFile; an uploaded_by that references no user returns
// ErrUnknownOwner. Neither inserts a row.
func (d *DB) InsertFile(ctx context.Context, f *File) (int64, error) {
	if f == nil {
		return 0, errors.New("file is required")
	}
	if f.Name == "" || f.Hash == "" {
		return 0, errors.New("file name and hash are required")
	}
	if f.UploadedBy <= 0 {
		return 0, errors.New("invalid uploader id")
	}
	created := f.CreatedAt
	if created == 0 {
		created = nowUnix()
	}
	res, err := d.sql.ExecContext(ctx, `
INSERT INTO files(name, original_name, filetype, file_hash, uploaded_by, uploaded_by_ip, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, f.Name, f.OriginalName, f.Filetype, f.Hash, f.UploadedBy, f.UploadedByIP, created)
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	return res.LastInsertId()
}

// GetFileByOwnerAndHash returns the owner's metadata row for a content
// hash, if one exists. This is the dedup lookup; it is scoped to the
// owner, never global.
func (d *DB) GetFileByOwnerAndHash(ctx context.Context, ownerID int64, hash string) (*File, bool, error) {
	row := d.sql.QueryRowContext(ctx, `
SELECT `+fileCols+` FROM files WHERE uploaded_by = ? AND file_hash = ? ORDER BY id DESC LIMIT 1
`, ownerID, hash)
	return scanFile(row)
}

// GetFileByID looks up a metadata row by ID.
func (d *DB) GetFileByID(ctx context.Context, id int64) (*File, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT `+fileCols+` FROM files WHERE id = ?`, id)
	return scanFile(row)
}

// ListFilesForUser returns all of an owner's metadata rows, newest first.
func (d *DB) ListFilesForUser(ctx context.Context, ownerID int64) ([]File, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT `+fileCols+` FROM files WHERE uploaded_by = ? ORDER BY id DESC
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Name, &f.OriginalName, &f.Filetype, &f.Hash, &f.UploadedBy, &f.UploadedByIP, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
