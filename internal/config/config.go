package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything flock needs to reach the backend and keep local state.
type Config struct {
	APIURL          string
	GeocodeURL      string
	RequestTimeout  time.Duration
	UploadTimeout   time.Duration
	FeedPageSize    int
	RefreshInterval time.Duration
	StateDir        string
	Upload          Upload
}

// Upload selects how compose images reach storage.
type Upload struct {
	Backend         string // "api" (default) or "s3"
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	PublicURL       string
}

// Upload backends.
const (
	BackendAPI = "api"
	BackendS3  = "s3"
)

const (
	defaultConfigPath      = "~/.config/flock/config.toml"
	defaultStateDir        = "~/.local/state/flock"
	defaultAPIURL          = "http://127.0.0.1:3000"
	defaultGeocodeURL      = "https://nominatim.openstreetmap.org"
	defaultRequestTimeout  = 10 * time.Second
	defaultUploadTimeout   = 20 * time.Second
	defaultFeedPageSize    = 20
	defaultRefreshInterval = 30 * time.Second
	defaultS3Region        = "us-east-1"
)

type rawConfig struct {
	APIURL          string    `toml:"api_url"`
	GeocodeURL      string    `toml:"geocode_url"`
	RequestTimeout  string    `toml:"request_timeout"`
	UploadTimeout   string    `toml:"upload_timeout"`
	FeedPageSize    int       `toml:"feed_page_size"`
	RefreshInterval string    `toml:"refresh_interval"`
	StateDir        string    `toml:"state_dir"`
	Upload          rawUpload `toml:"upload"`
}

type rawUpload struct {
	Backend         string `toml:"backend"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UseSSL          *bool  `toml:"use_ssl"`
	PublicURL       string `toml:"public_url"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		GeocodeURL:      defaultGeocodeURL,
		RequestTimeout:  defaultRequestTimeout,
		UploadTimeout:   defaultUploadTimeout,
		FeedPageSize:    defaultFeedPageSize,
		RefreshInterval: defaultRefreshInterval,
		StateDir:        mustExpand(defaultStateDir),
		Upload:          Upload{Backend: BackendAPI, Region: defaultS3Region, UseSSL: true},
	}
}

// Load reads the flock config at path (empty uses the default location),
// falls back to defaults when the file is missing, then applies FLOCK_*
// environment overrides, including any from a .env file in the working
// directory.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := loadFile(resolved, &cfg); err != nil {
		return Config{}, err
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.APIURL, raw.APIURL)
	setString(&cfg.GeocodeURL, raw.GeocodeURL)
	if err := setDuration(&cfg.RequestTimeout, raw.RequestTimeout, "request_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.UploadTimeout, raw.UploadTimeout, "upload_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RefreshInterval, raw.RefreshInterval, "refresh_interval"); err != nil {
		return err
	}
	if raw.FeedPageSize > 0 {
		cfg.FeedPageSize = raw.FeedPageSize
	}
	if dir := strings.TrimSpace(raw.StateDir); dir != "" {
		cfg.StateDir = mustExpand(dir)
	}

	setString(&cfg.Upload.Backend, strings.ToLower(raw.Upload.Backend))
	setString(&cfg.Upload.Bucket, raw.Upload.Bucket)
	setString(&cfg.Upload.Region, raw.Upload.Region)
	setString(&cfg.Upload.Endpoint, raw.Upload.Endpoint)
	setString(&cfg.Upload.AccessKeyID, raw.Upload.AccessKeyID)
	setString(&cfg.Upload.SecretAccessKey, raw.Upload.SecretAccessKey)
	setString(&cfg.Upload.PublicURL, raw.Upload.PublicURL)
	if raw.Upload.UseSSL != nil {
		cfg.Upload.UseSSL = *raw.Upload.UseSSL
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	setString(&cfg.APIURL, env("FLOCK_API_URL"))
	setString(&cfg.GeocodeURL, env("FLOCK_GEOCODE_URL"))
	if dir := env("FLOCK_STATE_DIR"); dir != "" {
		cfg.StateDir = mustExpand(dir)
	}
	if err := setDuration(&cfg.RequestTimeout, env("FLOCK_REQUEST_TIMEOUT"), "FLOCK_REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.UploadTimeout, env("FLOCK_UPLOAD_TIMEOUT"), "FLOCK_UPLOAD_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RefreshInterval, env("FLOCK_REFRESH_INTERVAL"), "FLOCK_REFRESH_INTERVAL"); err != nil {
		return err
	}
	if raw := env("FLOCK_FEED_PAGE_SIZE"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return fmt.Errorf("parse FLOCK_FEED_PAGE_SIZE %q: want a positive integer", raw)
		}
		cfg.FeedPageSize = size
	}

	setString(&cfg.Upload.Backend, strings.ToLower(env("FLOCK_UPLOAD_BACKEND")))
	setString(&cfg.Upload.Bucket, env("FLOCK_S3_BUCKET"))
	setString(&cfg.Upload.Region, env("FLOCK_S3_REGION"))
	setString(&cfg.Upload.Endpoint, env("FLOCK_S3_ENDPOINT"))
	setString(&cfg.Upload.AccessKeyID, env("FLOCK_S3_ACCESS_KEY_ID"))
	setString(&cfg.Upload.SecretAccessKey, env("FLOCK_S3_SECRET_ACCESS_KEY"))
	setString(&cfg.Upload.PublicURL, env("FLOCK_S3_PUBLIC_URL"))
	if raw := env("FLOCK_S3_USE_SSL"); raw != "" {
		useSSL, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse FLOCK_S3_USE_SSL %q: %w", raw, err)
		}
		cfg.Upload.UseSSL = useSSL
	}
	return nil
}

func (c Config) validate() error {
	switch c.Upload.Backend {
	case BackendAPI:
	case BackendS3:
		if c.Upload.Bucket == "" {
			return fmt.Errorf("validate config: upload.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("validate config: unknown upload.backend %q", c.Upload.Backend)
	}
	if c.RequestTimeout <= 0 || c.UploadTimeout <= 0 {
		return fmt.Errorf("validate config: timeouts must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("validate config: refresh_interval must not be negative")
	}
	return nil
}

// LogPath returns the client log file inside the state directory.
func (c Config) LogPath() string {
	return filepath.Join(c.stateDir(), "flock.log")
}

// TokenPath returns the file holding the persisted access token.
func (c Config) TokenPath() string {
	return filepath.Join(c.stateDir(), "token")
}

func (c Config) stateDir() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir)
	}
	return c.StateDir
}

func setString(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

func setDuration(dst *time.Duration, value, name string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", name, trimmed, err)
	}
	*dst = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
