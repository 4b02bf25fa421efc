// Package db tests verify store behavior against a real SQLite file.
package db

import (
	"context"
	"errors"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	d, err := Open(ctx, t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// TestUserRoundTrip ensures accounts survive storage and both lookup paths.
func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	id, err := d.CreateUser(ctx, "alice", "hash", "alice@example.com", true)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, ok, err := d.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if !ok {
		t.Fatalf("expected user")
	}
	if u.ID != id || !u.IsAdmin || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", u.APIKey)
	}

	if err := d.SetUserAPIKey(ctx, id, "tok-123"); err != nil {
		t.Fatalf("SetUserAPIKey: %v", err)
	}
	u, ok, err = d.GetUserByAPIKey(ctx, "tok-123")
	if err != nil {
		t.Fatalf("GetUserByAPIKey: %v", err)
	}
	if !ok || u.ID != id {
		t.Fatalf("expected token to resolve to user %d", id)
	}

	// Clearing the token is the only revocation mechanism.
	if err := d.SetUserAPIKey(ctx, id, ""); err != nil {
		t.Fatalf("SetUserAPIKey(clear): %v", err)
	}
	_, ok, err = d.GetUserByAPIKey(ctx, "tok-123")
	if err != nil {
		t.Fatalf("GetUserByAPIKey: %v", err)
	}
	if ok {
		t.Fatalf("expected cleared token to stop resolving")
	}
}

// TestUsernameUnique ensures duplicate usernames are rejected by the schema.
func TestUsernameUnique(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	if _, err := d.CreateUser(ctx, "bob", "h1", "", false); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := d.CreateUser(ctx, "bob", "h2", "", false); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}
}

// TestFileDedupPerOwner covers the typed duplicate error and that the dedup
// key is scoped to the owner, not global.
func TestFileDedupPerOwner(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	u1, err := d.CreateUser(ctx, "alice", "h", "", false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u2, err := d.CreateUser(ctx, "bob", "h", "", false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	f := &File{Name: "s1.png", OriginalName: "cat.png", Filetype: "image/png", Hash: "abc123", UploadedBy: u1, UploadedByIP: "10.0.0.1"}
	if _, err := d.InsertFile(ctx, f); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	dup := &File{Name: "s2.png", OriginalName: "other.png", Filetype: "image/png", Hash: "abc123", UploadedBy: u1, UploadedByIP: "10.0.0.2"}
	if _, err := d.InsertFile(ctx, dup); !errors.Is(err, ErrDuplicateFile) {
		t.Fatalf("expected ErrDuplicateFile, got %v", err)
	}

	// Same hash under a different owner is not a duplicate.
	other := &File{Name: "s3.png", OriginalName: "cat.png", Filetype: "image/png", Hash: "abc123", UploadedBy: u2, UploadedByIP: "10.0.0.3"}
	if _, err := d.InsertFile(ctx, other); err != nil {
		t.Fatalf("InsertFile(other owner): %v", err)
	}

	got, ok, err := d.GetFileByOwnerAndHash(ctx, u1, "abc123")
	if err != nil {
		t.Fatalf("GetFileByOwnerAndHash: %v", err)
	}
	if !ok || got.Name != "s1.png" {
		t.Fatalf("expected original row, got %+v", got)
	}
	_, ok, err = d.GetFileByOwnerAndHash(ctx, u1, "nope")
	if err != nil {
		t.Fatalf("GetFileByOwnerAndHash: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unknown hash")
	}
}

// TestInsertFileUnknownOwner ensures referential integrity is enforced and
// surfaced as the typed error, with no row left behind.
func TestInsertFileUnknownOwner(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	f := &File{Name: "s.bin", OriginalName: "s.bin", Filetype: "application/octet-stream", Hash: "deadbeef", UploadedBy: 42, UploadedByIP: "10.0.0.1"}
	if _, err := d.InsertFile(ctx, f); !errors.Is(err, ErrUnknownOwner) {
		t.Fatalf("expected ErrUnknownOwner, got %v", err)
	}
	files, err := d.ListFilesForUser(ctx, 42)
	if err != nil {
		t.Fatalf("ListFilesForUser: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no rows, got %d", len(files))
	}
}

// TestIsIPBanned checks exact-string ban matching.
func TestIsIPBanned(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	if _, err := d.AddBannedIP(ctx, "10.0.0.5"); err != nil {
		t.Fatalf("AddBannedIP: %v", err)
	}
	banned, err := d.IsIPBanned(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("IsIPBanned: %v", err)
	}
	if !banned {
		t.Fatalf("expected 10.0.0.5 to be banned")
	}
	banned, err = d.IsIPBanned(ctx, "10.0.0.6")
	if err != nil {
		t.Fatalf("IsIPBanned: %v", err)
	}
	if banned {
		t.Fatalf("expected 10.0.0.6 to be allowed")
	}
	// No prefix matching.
	banned, err = d.IsIPBanned(ctx, "10.0.0.50")
	if err != nil {
		t.Fatalf("IsIPBanned: %v", err)
	}
	if banned {
		t.Fatalf("expected 10.0.0.50 to be allowed")
	}

	n, err := d.RemoveBannedIP(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("RemoveBannedIP: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row removed, got %d", n)
	}
}
