package server

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"filevault/internal/config"
	"filevault/internal/daemon"
	"filevault/internal/logging"
	"filevault/internal/version"
)

type Options struct {
	ConfigPath string
	LogLevel   string

	DBPath      string
	DataDir     string
	BindAddr    string
	Port        int
	MaxUploadMB int
	TLSCertPath string
	TLSKeyPath  string
}

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var opt Options
	var showVersion bool
	fs.StringVar(&opt.ConfigPath, "config", "", "path to filevault.yaml (when set, flags are ignored)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&opt.LogLevel, "log-level", "info", "log level: debug|info|warning|error")
	fs.StringVar(&opt.DBPath, "db", "./data/filevault.db", "sqlite database path")
	fs.StringVar(&opt.DataDir, "data-dir", "./data", "data directory (blobs)")
	fs.StringVar(&opt.BindAddr, "bind", "127.0.0.1", "bind address")
	fs.IntVar(&opt.Port, "port", 5480, "API port")
	fs.IntVar(&opt.MaxUploadMB, "max-upload-mb", 512, "maximum upload size in MiB")
	fs.StringVar(&opt.TLSCertPath, "tls-cert", "", "TLS certificate path")
	fs.StringVar(&opt.TLSKeyPath, "tls-key", "", "TLS key path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("filevault server %s\n", version.Version)
		return nil
	}

	if opt.ConfigPath != "" {
		c, err := config.Load(opt.ConfigPath)
		if err != nil {
			return err
		}
		base := filepath.Dir(opt.ConfigPath)
		level := c.Log.Level
		// CLI overrides config.
		if strings.TrimSpace(opt.LogLevel) != "" {
			level = opt.LogLevel
		}
		lg, _, err := logging.New(logging.Options{Level: level, DefaultSlog: true})
		if err != nil {
			return err
		}
		return daemon.Run(context.Background(), daemon.Options{
			DBPath:         resolvePath(base, c.DB.Path),
			DataDir:        resolvePath(base, c.DataDir),
			BindAddr:       c.HTTP.Bind,
			Port:           c.HTTP.Port,
			MaxUploadBytes: int64(c.HTTP.MaxUploadMB) << 20,
			TLSCertPath:    resolvePath(base, c.HTTP.TLS.CertPath),
			TLSKeyPath:     resolvePath(base, c.HTTP.TLS.KeyPath),
			Logger:         lg,
		})
	}

	lg, _, err := logging.New(logging.Options{Level: opt.LogLevel, DefaultSlog: true})
	if err != nil {
		return err
	}
	return daemon.Run(context.Background(), daemon.Options{
		DBPath:         opt.DBPath,
		DataDir:        opt.DataDir,
		BindAddr:       opt.BindAddr,
		Port:           opt.Port,
		MaxUploadBytes: int64(opt.MaxUploadMB) << 20,
		TLSCertPath:    opt.TLSCertPath,
		TLSKeyPath:     opt.TLSKeyPath,
		Logger:         lg,
	})
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
