// Package daemon wires the store, registry, blob storage, and HTTP API
// together and runs the server.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"filevault/internal/db"
	"filevault/internal/httpapi"
	"filevault/internal/registry"
	"filevault/internal/storage"

	"github.com/spf13/afero"
)

type Options struct {
	DBPath  string
	DataDir string

	BindAddr       string
	Port           int
	MaxUploadBytes int64
	TLSCertPath    string
	TLSKeyPath     string

	Logger *slog.Logger
}

// Run opens the store (ensuring the schema before anything listens),
// builds the API server, and serves until it fails. Schema or store
// failures here abort startup.
func Run(ctx context.Context, opt Options) error {
	if opt.DBPath == "" {
		return errors.New("db path is required")
	}
	if opt.DataDir == "" {
		return errors.New("data dir is required")
	}
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()

	store, err := storage.New(afero.NewOsFs(), filepath.Join(opt.DataDir, "blobs"))
	if err != nil {
		return err
	}

	api := &httpapi.Server{
		DB:             d,
		Registry:       registry.New(d, lg),
		Store:          store,
		Logger:         lg,
		BindAddr:       opt.BindAddr,
		Port:           opt.Port,
		MaxUploadBytes: opt.MaxUploadBytes,
		CertPath:       opt.TLSCertPath,
		KeyPath:        opt.TLSKeyPath,
	}

	lg.Info("listening", "bind", opt.BindAddr, "port", opt.Port, "tls", opt.TLSCertPath != "")
	return api.ListenAndServe()
}
