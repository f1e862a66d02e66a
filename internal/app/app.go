package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/comments"
	"github.com/five82/flock/internal/compose"
	"github.com/five82/flock/internal/config"
	"github.com/five82/flock/internal/feed"
	"github.com/five82/flock/internal/objectstore"
	"github.com/five82/flock/internal/prefs"
	"github.com/five82/flock/internal/session"
	"github.com/five82/flock/internal/ui"
)

// Options configure the flock application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/flock/prefs.toml
	PollEvery  int    // seconds; zero uses refresh_interval from config
	APIURL     string // overrides api_url when set
}

const startupTimeout = 5 * time.Second

// Run boots the flock TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	logFile, err := openLog(cfg.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.Printf("app: starting against %s", cfg.APIURL)

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Printf("app: prefs unreadable, using defaults: %v", err)
	}

	// The client reads the token through the session, which is built from
	// the client; the closure breaks the cycle.
	var sess *session.Store
	client, err := api.NewClient(cfg.APIURL, api.Options{
		RequestTimeout: cfg.RequestTimeout,
		UploadTimeout:  cfg.UploadTimeout,
		Tokens: api.TokenFunc(func() string {
			if sess == nil {
				return ""
			}
			return sess.Token()
		}),
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	geocoder, err := api.NewGeocoder(cfg.GeocodeURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init geocoder: %w", err)
	}

	uploader, err := newUploader(ctx, cfg, client)
	if err != nil {
		return err
	}

	sess = session.NewStore(client, session.FileTokenStore{Path: cfg.TokenPath()}, geocoder)
	posts := feed.NewStore(client, cfg.FeedPageSize)
	thread := comments.NewStore(client)
	composer := compose.New(client, uploader, sess, posts)

	initCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	if err := sess.Initialize(initCtx); err != nil {
		// Signed out is a valid state; the sign-in screen shows the error.
		log.Printf("app: session restore failed: %v", err)
	}
	cancel()

	interval := cfg.RefreshInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	StartPoller(ctx, posts, func() bool { return sess.Snapshot().SignedIn() }, interval)

	uiOpts := ui.Options{
		Context:   ctx,
		Session:   sess,
		Feed:      posts,
		Comments:  thread,
		Composer:  composer,
		Posts:     client,
		Config:    &cfg,
		ThemeName: userPrefs.Theme,
		LastEmail: userPrefs.LastEmail,
		PrefsPath: opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}

// newUploader picks the image upload path configured under [upload].
func newUploader(ctx context.Context, cfg config.Config, client *api.Client) (compose.Uploader, error) {
	if cfg.Upload.Backend != config.BackendS3 {
		return client, nil
	}
	s3, err := objectstore.NewS3Uploader(cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("init s3 uploader: %w", err)
	}
	checkCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := s3.EnsureBucket(checkCtx); err != nil {
		return nil, fmt.Errorf("check upload bucket: %w", err)
	}
	log.Printf("app: uploading images to bucket %s", cfg.Upload.Bucket)
	return s3, nil
}

// openLog sends the standard logger to path so the TUI owns the terminal.
func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	f, err := tea.LogToFile(path, "")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
