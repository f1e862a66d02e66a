// Package session owns the signed-in user: the persisted access token, the
// cached profile and the auth calls that change them. The UI shows only the
// sign-in screen while Snapshot().User is nil.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/five82/flock/internal/api"
)

// ErrMissingCredentials rejects a sign-in or registration with blank fields.
var ErrMissingCredentials = errors.New("email and password are required")

// Backend is the slice of the API the session needs.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	FetchProfile(ctx context.Context) (*api.Profile, error)
	UpdateProfile(ctx context.Context, patch api.ProfileUpdate) (*api.Profile, error)
	UpdateLocation(ctx context.Context, loc api.Location) error
}

// Geocoder labels coordinates; it never fails.
type Geocoder interface {
	AddressFor(ctx context.Context, lat, lon float64) string
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	User      *api.Profile
	Loading   bool
	LastError error
}

// SignedIn reports whether a user is loaded.
func (s Snapshot) SignedIn() bool { return s.User != nil }

// Store is the explicit session object. Initialize restores it from disk,
// Teardown drops it.
type Store struct {
	backend  Backend
	tokens   TokenStore
	geocoder Geocoder
	now      func() time.Time

	mu      sync.Mutex
	token   string
	claims  Claims
	user    *api.Profile
	loading bool
	lastErr error
}

// NewStore builds a signed-out session. geocoder may be nil.
func NewStore(backend Backend, tokens TokenStore, geocoder Geocoder) *Store {
	return &Store{backend: backend, tokens: tokens, geocoder: geocoder, now: time.Now}
}

// Token returns the current access token. It makes Store an api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Initialize restores a saved token and validates it against the backend.
// A missing or expired token leaves the session signed out.
func (s *Store) Initialize(ctx context.Context) error {
	token, err := s.tokens.Load()
	if err != nil {
		return err
	}
	if token == "" {
		s.Teardown()
		return nil
	}
	claims, err := ParseClaims(token)
	if err != nil {
		// Opaque tokens are fine; the backend decides.
		claims = Claims{}
	}
	if claims.Expired(s.now()) {
		log.Printf("session: saved token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
		if err := s.tokens.Clear(); err != nil {
			log.Printf("session: clear expired token failed: %v", err)
		}
		s.Teardown()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	_, err = s.CheckSession(ctx)
	return err
}

// CheckSession fetches the profile for the current token. Failure clears the
// user and records the error; a 401 also discards the token.
func (s *Store) CheckSession(ctx context.Context) (bool, error) {
	if s.Token() == "" {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return false, nil
	}

	profile, err := s.backend.FetchProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.user = nil
		s.lastErr = err
		if api.IsStatus(err, http.StatusUnauthorized) {
			s.dropTokenLocked()
		}
		return false, err
	}
	s.user = profile.Clone()
	s.lastErr = nil
	return true, nil
}

// Login exchanges credentials for a token, persists it and loads the profile.
func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return ErrMissingCredentials
	}
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.backend.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		s.recordError(err)
		return err
	}
	return s.adopt(ctx, resp)
}

// Register creates an account. When the backend signs the user in right away
// the session is adopted and signedIn is true.
func (s *Store) Register(ctx context.Context, name, email, password string) (signedIn bool, err error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return false, ErrMissingCredentials
	}
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.backend.Register(ctx, api.Registration{Name: name, Email: email, Password: password})
	if err != nil {
		s.recordError(err)
		return false, err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return false, nil
	}
	if err := s.adopt(ctx, resp); err != nil {
		return false, err
	}
	return true, nil
}

// adopt installs the token from an auth response and loads the full
// profile, falling back to the user embedded in the response.
func (s *Store) adopt(ctx context.Context, resp *api.AuthResponse) error {
	token := strings.TrimSpace(resp.AccessToken)
	claims, _ := ParseClaims(token)

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	if err := s.tokens.Save(token); err != nil {
		log.Printf("session: persist token failed: %v", err)
	}

	if _, err := s.CheckSession(ctx); err != nil {
		if resp.User.ID == "" {
			return err
		}
		log.Printf("session: profile fetch after sign-in failed, using login reply: %v", err)
		s.mu.Lock()
		s.user = resp.User.Clone()
		s.lastErr = nil
		s.mu.Unlock()
	}
	return nil
}

// Update applies a local partial change to the cached profile.
func (s *Store) Update(patch func(*api.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || patch == nil {
		return
	}
	patch(s.user)
}

// Refresh re-validates the session with Loading raised.
func (s *Store) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)
	_, err := s.CheckSession(ctx)
	return err
}

// FetchProfile loads a fresh profile and caches it.
func (s *Store) FetchProfile(ctx context.Context) (*api.Profile, error) {
	profile, err := s.backend.FetchProfile(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.user != nil {
		s.user = profile.Clone()
	}
	s.mu.Unlock()
	return profile, nil
}

// CachedProfile returns a copy of the cached profile, or nil when signed out.
func (s *Store) CachedProfile() *api.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// CurrentUserID returns the signed-in user's id, falling back to the token
// subject while the profile is not loaded.
func (s *Store) CurrentUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.ID != "" {
		return s.user.ID
	}
	if s.token == "" {
		return ""
	}
	return s.claims.Subject
}

// UpdateProfile saves profile edits and replaces the cache with the reply.
func (s *Store) UpdateProfile(ctx context.Context, patch api.ProfileUpdate) error {
	profile, err := s.backend.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.user = profile.Clone()
	}
	return nil
}

// SetLocation labels lat/lon, stores it on the backend and in the cached
// profile.
func (s *Store) SetLocation(ctx context.Context, lat, lon float64) (api.Location, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return api.Location{}, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}
	loc := api.Location{Latitude: lat, Longitude: lon, Address: api.FallbackAddress}
	if s.geocoder != nil {
		loc.Address = s.geocoder.AddressFor(ctx, lat, lon)
	}
	if err := s.backend.UpdateLocation(ctx, loc); err != nil {
		return api.Location{}, err
	}
	s.Update(func(p *api.Profile) {
		stored := loc
		p.Location = &stored
	})
	return loc, nil
}

// Logout tells the backend (best effort), forgets the saved token and tears
// the session down.
func (s *Store) Logout(ctx context.Context) error {
	if s.Token() != "" {
		if err := s.backend.Logout(ctx); err != nil {
			log.Printf("session: logout request failed: %v", err)
		}
	}
	err := s.tokens.Clear()
	s.Teardown()
	return err
}

// Teardown drops all in-memory session state without touching disk or
// network.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.claims = Claims{}
	s.user = nil
	s.loading = false
	s.lastErr = nil
}

// Snapshot returns a copy of the session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{User: s.user.Clone(), Loading: s.loading, LastError: s.lastErr}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// dropTokenLocked forgets a token the backend rejected. Callers hold s.mu.
func (s *Store) dropTokenLocked() {
	s.token = ""
	s.claims = Claims{}
	if err := s.tokens.Clear(); err != nil {
		log.Printf("session: clear rejected token failed: %v", err)
	}
}
