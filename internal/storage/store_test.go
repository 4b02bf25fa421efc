// Package storage tests run against the memory-backed afero fs.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// TestStageCommitOpen covers the happy path: spool, commit, read back.
func TestStageCommitOpen(t *testing.T) {
	s := newTestStore(t)
	body := "hello filevault"

	st, err := s.Stage(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	want := sha256.Sum256([]byte(body))
	if st.Hash != hex.EncodeToString(want[:]) {
		t.Fatalf("unexpected hash %s", st.Hash)
	}
	if st.Size != int64(len(body)) {
		t.Fatalf("unexpected size %d", st.Size)
	}

	if err := s.Commit(st, "blob-1.txt"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	ok, err := s.Exists("blob-1.txt")
	if err != nil || !ok {
		t.Fatalf("expected blob to exist, got %v %v", ok, err)
	}

	f, err := s.Open("blob-1.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("unexpected body %q", got)
	}
}

// TestDiscard drops staged bytes and is safe to call twice.
func TestDiscard(t *testing.T) {
	s := newTestStore(t)
	st, err := s.Stage(strings.NewReader("temp"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := s.Discard(st); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := s.Discard(st); err != nil {
		t.Fatalf("second Discard: %v", err)
	}
	if err := s.Commit(st, "late.txt"); err == nil {
		t.Fatalf("expected commit after discard to fail")
	}
}

// TestValidName rejects path-like blob names.
func TestValidName(t *testing.T) {
	s := newTestStore(t)
	st, err := s.Stage(strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer s.Discard(st)

	for _, name := range []string{"", "../evil", "a/b", ".hidden"} {
		if err := s.Commit(st, name); err == nil {
			t.Fatalf("expected name %q to be rejected", name)
		}
	}
}

// TestNewStoredName keeps the original extension and nothing else.
func TestNewStoredName(t *testing.T) {
	n := NewStoredName("../dir/Cat Photo.PNG")
	if !strings.HasSuffix(n, ".png") {
		t.Fatalf("expected .png suffix, got %s", n)
	}
	if strings.ContainsAny(n, "/\\ ") {
		t.Fatalf("unexpected characters in %s", n)
	}
	if n == NewStoredName("x.png") {
		t.Fatalf("expected unique names")
	}
}
