// Package httpapi exposes the upload registry's HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"filevault/internal/auth"
	"filevault/internal/db"
	"filevault/internal/registry"
	"filevault/internal/storage"
	"filevault/internal/validate"
)

type Server struct {
	DB       *db.DB
	Registry *registry.Registry
	Store    *storage.Store
	Logger   *slog.Logger

	BindAddr       string
	Port           int
	MaxUploadBytes int64
	CertPath       string
	KeyPath        string
}

// ListenAndServe starts the API listener. TLS is used when both cert and
// key paths are configured.
func (s *Server) ListenAndServe() error {
	if s.DB == nil || s.Registry == nil || s.Store == nil {
		return errors.New("db, registry, and store are required")
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	addr := s.BindAddr + ":" + strconv.Itoa(s.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if s.CertPath != "" && s.KeyPath != "" {
		return httpServer.ListenAndServeTLS(s.CertPath, s.KeyPath)
	}
	return httpServer.ListenAndServe()
}

// handler assembles the route table and middleware chain. The ban gate
// runs before authentication on every route.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", s.handleToken)
	mux.HandleFunc("/api/upload", s.withUser(s.handleUpload))
	mux.HandleFunc("/api/files", s.withUser(s.handleFiles))
	mux.HandleFunc("/api/download", s.withUser(s.handleDownload))

	return s.withRecover(s.withRequestLog(withSecurityHeaders(s.withBanGate(mux))))
}

// handleToken verifies a username/password pair and rotates the account's
// API token. Unknown user and wrong password answer identically.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing credentials"})
		return
	}

	ctx := r.Context()
	u, err := s.Registry.VerifyPassword(ctx, req.Username, req.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	tok, err := auth.NewToken(32)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	if err := s.DB.SetUserAPIKey(ctx, u.ID, tok); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

type fileItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Filetype     string `json:"filetype"`
	Hash         string `json:"file_hash"`
	CreatedAt    int64  `json:"created_at"`
}

func toFileItem(f *db.File) fileItem {
	return fileItem{
		ID:           f.ID,
		Name:         f.Name,
		OriginalName: f.OriginalName,
		Filetype:     f.Filetype,
		Hash:         f.Hash,
		CreatedAt:    f.CreatedAt,
	}
}

// handleUpload spools the upload while hashing it, records the metadata,
// and keeps the bytes only when the registry created a new row. A
// duplicate answers with the existing row and drops the spooled bytes.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	}

	file, hdr, err := readMultipartFile(r, "file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
		return
	}
	defer file.Close()

	orig := filepath.Base(hdr.Filename)
	if err := validate.OriginalName(orig); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	st, err := s.Store.Stage(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}

	u := userFrom(r)
	rec := &db.File{
		Name:         storage.NewStoredName(orig),
		OriginalName: orig,
		Filetype:     filetypeOf(hdr, orig),
		Hash:         st.Hash,
		UploadedBy:   u.ID,
		UploadedByIP: clientIP(r),
		CreatedAt:    time.Now().Unix(),
	}

	stored, created, err := s.Registry.RecordUpload(r.Context(), rec)
	if err != nil {
		_ = s.Store.Discard(st)
		if errors.Is(err, db.ErrUnknownOwner) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unknown uploader"})
			return
		}
		s.writeStoreError(w, err)
		return
	}
	if !created {
		_ = s.Store.Discard(st)
		writeJSON(w, http.StatusOK, map[string]any{"duplicate": true, "file": toFileItem(stored)})
		return
	}
	if err := s.Store.Commit(st, stored.Name); err != nil {
		s.Logger.Error("blob commit failed", "file_id", stored.ID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"duplicate": false, "file": toFileItem(stored)})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	u := userFrom(r)
	files, err := s.DB.ListFilesForUser(r.Context(), u.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	out := make([]fileItem, 0, len(files))
	for i := range files {
		out = append(out, toFileItem(&files[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": out})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	u := userFrom(r)
	f, ok, err := s.DB.GetFileByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	// No cross-user sharing: another owner's file looks like no file.
	if !ok || f.UploadedBy != u.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	blob, err := s.Store.Open(f.Name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	defer blob.Close()

	ct := f.Filetype
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("content-type", ct)
	w.Header().Set("content-disposition", "attachment; filename=\""+escapeQuotes(f.OriginalName)+"\"")
	_, _ = io.Copy(w, blob)
}

// writeStoreError distinguishes transient store contention (retryable)
// from other failures. Neither is ever reported as a miss.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if db.IsRetryable(err) {
		w.Header().Set("retry-after", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store busy"})
		return
	}
	s.Logger.Error("store error", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
}

func filetypeOf(hdr *multipart.FileHeader, name string) string {
	if ct := hdr.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func readMultipartFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, err
	}
	return r.FormFile(field)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-content-type-options", "nosniff")
		w.Header().Set("x-frame-options", "DENY")
		w.Header().Set("referrer-policy", "no-referrer")
		if r.TLS != nil {
			w.Header().Set("strict-transport-security", "max-age=31536000")
		}
		next.ServeHTTP(w, r)
	})
}
