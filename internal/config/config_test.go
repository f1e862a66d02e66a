package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearFlockEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FLOCK_API_URL", "FLOCK_GEOCODE_URL", "FLOCK_STATE_DIR",
		"FLOCK_REQUEST_TIMEOUT", "FLOCK_UPLOAD_TIMEOUT", "FLOCK_REFRESH_INTERVAL",
		"FLOCK_FEED_PAGE_SIZE", "FLOCK_UPLOAD_BACKEND", "FLOCK_S3_BUCKET",
		"FLOCK_S3_REGION", "FLOCK_S3_ENDPOINT", "FLOCK_S3_ACCESS_KEY_ID",
		"FLOCK_S3_SECRET_ACCESS_KEY", "FLOCK_S3_USE_SSL", "FLOCK_S3_PUBLIC_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearFlockEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.UploadTimeout != 20*time.Second {
		t.Fatalf("timeouts = %v/%v, want 10s/20s", cfg.RequestTimeout, cfg.UploadTimeout)
	}
	if cfg.FeedPageSize != 20 {
		t.Fatalf("FeedPageSize = %d, want 20", cfg.FeedPageSize)
	}
	if cfg.Upload.Backend != BackendAPI {
		t.Fatalf("Upload.Backend = %q, want %q", cfg.Upload.Backend, BackendAPI)
	}

	wantState, err := expandPath(defaultStateDir)
	if err != nil {
		t.Fatalf("expandPath(defaultStateDir) returned error: %v", err)
	}
	if cfg.StateDir != wantState {
		t.Fatalf("StateDir = %q, want %q", cfg.StateDir, wantState)
	}
	if cfg.LogPath() != filepath.Join(wantState, "flock.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearFlockEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  http://10.0.0.5:3000  "
request_timeout = "5s"
feed_page_size = 50
refresh_interval = "0s"
state_dir = "  ~/.flock  "

[upload]
backend = "S3"
bucket = "media"
endpoint = "localhost:9000"
use_ssl = false
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:3000" {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, "http://10.0.0.5:3000")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.UploadTimeout != defaultUploadTimeout {
		t.Fatalf("UploadTimeout = %v, want default", cfg.UploadTimeout)
	}
	if cfg.FeedPageSize != 50 || cfg.RefreshInterval != 0 {
		t.Fatalf("FeedPageSize/RefreshInterval = %d/%v", cfg.FeedPageSize, cfg.RefreshInterval)
	}
	if !strings.HasPrefix(cfg.StateDir, home) {
		t.Fatalf("StateDir = %q, want it under HOME %q", cfg.StateDir, home)
	}
	if cfg.TokenPath() != filepath.Join(cfg.StateDir, "token") {
		t.Fatalf("TokenPath = %q", cfg.TokenPath())
	}
	if cfg.Upload.Backend != BackendS3 || cfg.Upload.Bucket != "media" || cfg.Upload.UseSSL {
		t.Fatalf("Upload = %#v", cfg.Upload)
	}
	if cfg.Upload.Region != defaultS3Region {
		t.Fatalf("Upload.Region = %q, want default", cfg.Upload.Region)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearFlockEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://from-file:3000"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("FLOCK_API_URL", "http://from-env:3000")
	t.Setenv("FLOCK_FEED_PAGE_SIZE", "7")
	t.Setenv("FLOCK_S3_USE_SSL", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://from-env:3000" {
		t.Fatalf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.FeedPageSize != 7 {
		t.Fatalf("FeedPageSize = %d, want 7", cfg.FeedPageSize)
	}
	if cfg.Upload.UseSSL {
		t.Fatalf("Upload.UseSSL = true, want false")
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearFlockEnv(t)

	cases := map[string]string{
		`api_url = [`:                 "parse config",
		`request_timeout = "soon"`:    "request_timeout",
		"[upload]\nbackend = \"ftp\"": "unknown upload.backend",
		"[upload]\nbackend = \"s3\"":  "upload.bucket is required",
		`refresh_interval = "-1s"`:    "must not be negative",
	}
	for body, want := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		_, err := Load(path)
		if err == nil {
			t.Fatalf("Load(%q) returned nil error", body)
		}
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Load(%q) error = %q, want it to mention %q", body, err.Error(), want)
		}
	}
}

func TestLoad_InvalidEnvFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearFlockEnv(t)
	t.Setenv("FLOCK_FEED_PAGE_SIZE", "zero")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "FLOCK_FEED_PAGE_SIZE") {
		t.Fatalf("Load error = %v, want FLOCK_FEED_PAGE_SIZE error", err)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenStateDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/flock.log")) {
		t.Fatalf("LogPath = %q, want it to end with /flock.log", got)
	}
}
