// Package config tests validate config loading behavior.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadAppliesDefaults confirms defaults are applied on load.
func TestLoadAppliesDefaults(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "filevault.yaml")
	if err := os.WriteFile(p, []byte("db:\n  path: ./x.db\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTP.Port != 5480 {
		t.Fatalf("expected default http.port 5480, got %d", c.HTTP.Port)
	}
	if c.HTTP.MaxUploadMB != 512 {
		t.Fatalf("expected default http.max_upload_mb 512, got %d", c.HTTP.MaxUploadMB)
	}
	if c.Log.Level != "info" {
		t.Fatalf("expected default log.level info, got %s", c.Log.Level)
	}
	if c.DataDir == "" {
		t.Fatalf("expected data_dir default")
	}
}

// TestLoadRejectsLoneTLSPath requires cert and key to be set together.
func TestLoadRejectsLoneTLSPath(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "filevault.yaml")
	body := "http:\n  tls:\n    cert_path: ./cert.pem\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected lone cert_path to fail validation")
	}
}

// TestLoadMissingFile is a fatal startup error, not a silent default.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected missing config to fail")
	}
}
