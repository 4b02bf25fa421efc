// Package registry implements the core upload decisions: is the caller
// authenticated, is the caller's origin banned, and does the caller
// already own this content.
package registry

import (
	"context"
	"errors"
	"log/slog"

	"filevault/internal/auth"
	"filevault/internal/db"
)

// Registry answers authentication, ban, and dedup questions against the
// store. It holds no state of its own; the store handle is injected so
// callers can substitute one in tests.
type Registry struct {
	db  *db.DB
	log *slog.Logger
}

func New(d *db.DB, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{db: d, log: log}
}

// VerifyPassword authenticates a username/password pair. Unknown username,
// wrong password, and an unreadable stored hash all return (nil, nil);
// callers cannot tell them apart. A corrupt hash denies access and is
// logged, never propagated. Only store failures return an error.
func (r *Registry) VerifyPassword(ctx context.Context, username, password string) (*db.User, error) {
	u, ok, err := r.db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	match, err := auth.VerifyPassword(password, u.PassHash)
	if err != nil {
		r.log.Warn("password verification failed", "user_id", u.ID, "err", err)
		return nil, nil
	}
	if !match {
		return nil, nil
	}
	return u, nil
}

// ResolveToken resolves a bearer token to its owning account. The result
// is tri-state: a store failure is an error, distinct from "no such
// token", so callers can fail closed instead of silently denying.
func (r *Registry) ResolveToken(ctx context.Context, token string) (*db.User, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	return r.db.GetUserByAPIKey(ctx, token)
}

// IsOriginBanned reports whether the network origin matches a denylist
// entry exactly. A store failure is an error, never "not banned".
func (r *Registry) IsOriginBanned(ctx context.Context, addr string) (bool, error) {
	return r.db.IsIPBanned(ctx, addr)
}

// RecordUpload inserts upload metadata. When the owner already holds the
// content hash, the existing row is returned with created=false: a
// duplicate upload resolves to the same object regardless of the name or
// filetype it arrived under. The uniqueness lives in the schema, so two
// concurrent uploads of the same content settle on one row.
func (r *Registry) RecordUpload(ctx context.Context, f *db.File) (*db.File, bool, error) {
	id, err := r.db.InsertFile(ctx, f)
	if err == nil {
		stored := *f
		stored.ID = id
		return &stored, true, nil
	}
	if errors.Is(err, db.ErrDuplicateFile) {
		existing, ok, lookupErr := r.db.GetFileByOwnerAndHash(ctx, f.UploadedBy, f.Hash)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		if !ok {
			// The winning row vanished between insert and lookup; files are
			// never deleted in this design, so treat it as a store fault.
			return nil, false, errors.New("duplicate reported but existing row not found")
		}
		return existing, false, nil
	}
	return nil, false, err
}

// FindByOwnerAndHash is the dedup lookup: the owner's row for a content
// hash, if any. Absence is (nil, false, nil), not an error.
func (r *Registry) FindByOwnerAndHash(ctx context.Context, ownerID int64, hash string) (*db.File, bool, error) {
	return r.db.GetFileByOwnerAndHash(ctx, ownerID, hash)
}
