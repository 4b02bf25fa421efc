// Package db defines persistence models for filevault.
package db

// User is an account row. PassHash is the stored password hash, never the
// plaintext. APIKey is empty when the account has no active token.
type User struct {
	ID         int64
	Username   string
	PassHash   string
	Email      string
	IsAdmin    bool
	APIKey     string
	LastUpdate int64
	CreatedAt  int64
}

// File is the metadata row for one stored upload. Name is the generated
// stored name, OriginalName the client-supplied one. The pair
// (UploadedBy, Hash) is the dedup key.
type File struct {
	ID           int64
	Name         string
	OriginalName string
	Filetype     string
	Hash         string
	UploadedBy   int64
	UploadedByIP string
	CreatedAt    int64
}

// BannedIP is a denylist entry; an exact address match is the ban signal.
type BannedIP struct {
	ID int64
	IP string
}
