package db

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateFile marks an insert that hit the (uploaded_by, file_hash)
	// unique index: the owner already holds this content.
	ErrDuplicateFile = errors.New("file already recorded for owner")

	// ErrUnknownOwner marks an insert whose uploaded_by references no user.
	ErrUnknownOwner = errors.New("uploaded_by references no user")
)

// mapConstraintErr converts driver constraint failures on the files table
// into the typed sentinels above. Other errors pass through unchanged.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	s := err.Error()
	// modernc/sqlite surfaces constraint failures as strings.
	if strings.Contains(s, "UNIQUE constraint failed") {
		return ErrDuplicateFile
	}
	if strings.Contains(s, "FOREIGN KEY constraint failed") {
		return ErrUnknownOwner
	}
	return err
}

// IsRetryable identifies transient SQLite lock errors worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "database is locked") ||
		strings.Contains(s, "sqlite_busy") ||
		strings.Contains(s, "busy") ||
		strings.Contains(s, "locked")
}
