// Package storage keeps uploaded bytes on an afero filesystem. Blobs are
// written under generated names, so no user-supplied path ever reaches
// the filesystem.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store holds upload blobs under root. Uploads are staged to a temp file
// while their content hash is computed, then either committed under a
// stored name or discarded (when the registry reports a duplicate).
type Store struct {
	fs   afero.Fs
	root string
	tmp  string
}

// New returns a Store rooted at dir on fs. Pass afero.NewOsFs() in
// production; tests use the memory-backed fs.
func New(fs afero.Fs, dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage dir is required")
	}
	s := &Store{fs: fs, root: dir, tmp: filepath.Join(dir, "tmp")}
	if err := fs.MkdirAll(s.tmp, 0o700); err != nil {
		return nil, err
	}
	return s, nil
}

// Staged is a spooled upload: bytes on disk under a temp name, plus the
// content hash and size observed while spooling.
type Staged struct {
	Hash string
	Size int64
	tmp  string
}

// Stage spools r to a temp file, hashing as it copies. The caller must
// finish with Commit or Discard.
func (s *Store) Stage(r io.Reader) (*Staged, error) {
	f, err := afero.TempFile(s.fs, s.tmp, "upload-*")
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	n, err := io.Copy(f, io.TeeReader(r, h))
	cerr := f.Close()
	if err != nil {
		_ = s.fs.Remove(f.Name())
		return nil, err
	}
	if cerr != nil {
		_ = s.fs.Remove(f.Name())
		return nil, cerr
	}
	return &Staged{
		Hash: hex.EncodeToString(h.Sum(nil)),
		Size: n,
		tmp:  f.Name(),
	}, nil
}

// Commit moves a staged upload into place under name.
func (s *Store) Commit(st *Staged, name string) error {
	if st == nil || st.tmp == "" {
		return errors.New("nothing staged")
	}
	if err := validName(name); err != nil {
		return err
	}
	if err := s.fs.Rename(st.tmp, filepath.Join(s.root, name)); err != nil {
		return err
	}
	st.tmp = ""
	return nil
}

// Discard drops a staged upload's bytes.
func (s *Store) Discard(st *Staged) error {
	if st == nil || st.tmp == "" {
		return nil
	}
	err := s.fs.Remove(st.tmp)
	st.tmp = ""
	return err
}

// Open returns a committed blob for reading.
func (s *Store) Open(name string) (afero.File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return s.fs.Open(filepath.Join(s.root, name))
}

// Exists reports whether a committed blob is present.
func (s *Store) Exists(name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	_, err := s.fs.Stat(filepath.Join(s.root, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// NewStoredName generates a stored name for an upload: a random UUID
// carrying over the original extension.
func NewStoredName(originalName string) string {
	ext := strings.ToLower(path.Ext(path.Base(originalName)))
	if len(ext) > 16 {
		ext = ""
	}
	return uuid.NewString() + ext
}

// validName rejects anything but a bare generated file name.
func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return errors.New("invalid blob name")
	}
	return nil
}
