package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flock/internal/api"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

type fakeBackend struct {
	mu          sync.Mutex
	profile     *api.Profile
	profileErr  error
	loginResp   *api.AuthResponse
	loginErr    error
	registerRsp *api.AuthResponse
	logoutErr   error
	logouts     int
	locations   []api.Location
	updates     []api.ProfileUpdate
}

func (f *fakeBackend) Login(context.Context, api.Credentials) (*api.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Register(context.Context, api.Registration) (*api.AuthResponse, error) {
	return f.registerRsp, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.logoutErr
}

func (f *fakeBackend) FetchProfile(context.Context) (*api.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile.Clone(), nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, patch api.ProfileUpdate) (*api.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch)
	updated := f.profile.Clone()
	if patch.Bio != nil {
		updated.Bio = *patch.Bio
	}
	return updated, nil
}

func (f *fakeBackend) UpdateLocation(_ context.Context, loc api.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append(f.locations, loc)
	return nil
}

type fixedGeocoder string

func (g fixedGeocoder) AddressFor(context.Context, float64, float64) string { return string(g) }

func TestInitialize_NoTokenStaysSignedOut(t *testing.T) {
	store := NewStore(&fakeBackend{}, &memTokens{}, nil)
	require.NoError(t, store.Initialize(context.Background()))
	assert.False(t, store.Snapshot().SignedIn())
	assert.Empty(t, store.CurrentUserID())
}

func TestInitialize_ValidTokenLoadsProfile(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	backend := &fakeBackend{profile: &api.Profile{ID: "u1", Name: "Ada"}}
	store := NewStore(backend, &memTokens{token: token}, nil)

	require.NoError(t, store.Initialize(context.Background()))
	snap := store.Snapshot()
	require.True(t, snap.SignedIn())
	assert.Equal(t, "Ada", snap.User.Name)
	assert.Equal(t, token, store.Token())
	assert.Equal(t, "u1", store.CurrentUserID())
}

func TestInitialize_ExpiredTokenIsDiscarded(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	tokens := &memTokens{token: token}
	store := NewStore(&fakeBackend{profile: &api.Profile{ID: "u1"}}, tokens, nil)

	require.NoError(t, store.Initialize(context.Background()))
	assert.False(t, store.Snapshot().SignedIn())
	assert.Empty(t, store.Token())
	assert.Empty(t, tokens.token)
}

func TestCheckSession_UnauthorizedClearsToken(t *testing.T) {
	tokens := &memTokens{token: "opaque"}
	backend := &fakeBackend{profileErr: &api.Error{Kind: api.KindServer, Status: http.StatusUnauthorized, Message: "Unauthorized"}}
	store := NewStore(backend, tokens, nil)

	err := store.Initialize(context.Background())
	require.Error(t, err)
	snap := store.Snapshot()
	assert.False(t, snap.SignedIn())
	assert.Equal(t, err, snap.LastError)
	assert.Empty(t, store.Token())
	assert.Equal(t, 1, tokens.cleared)
}

func TestCheckSession_NetworkErrorKeepsToken(t *testing.T) {
	tokens := &memTokens{token: "opaque"}
	backend := &fakeBackend{profileErr: &api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")}}
	store := NewStore(backend, tokens, nil)

	ok, err := store.CheckSession(context.Background())
	assert.False(t, ok)
	assert.NoError(t, err, "no token means nothing to check")

	require.Error(t, store.Initialize(context.Background()))
	assert.False(t, store.Snapshot().SignedIn())
	assert.Equal(t, "opaque", store.Token())
	assert.Zero(t, tokens.cleared)
}

func TestLogin(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "u2"})
	tokens := &memTokens{}
	backend := &fakeBackend{
		loginResp: &api.AuthResponse{AccessToken: token},
		profile:   &api.Profile{ID: "u2", Name: "Bea"},
	}
	store := NewStore(backend, tokens, nil)

	assert.ErrorIs(t, store.Login(context.Background(), " ", "pw"), ErrMissingCredentials)

	require.NoError(t, store.Login(context.Background(), " bea@x.io ", "pw"))
	assert.Equal(t, token, tokens.token)
	snap := store.Snapshot()
	require.True(t, snap.SignedIn())
	assert.Equal(t, "Bea", snap.User.Name)
	assert.False(t, snap.Loading)
}

func TestLogin_FallsBackToReplyUser(t *testing.T) {
	backend := &fakeBackend{
		loginResp:  &api.AuthResponse{AccessToken: "opaque", User: api.Profile{ID: "u3", Name: "Cy"}},
		profileErr: errors.New("boom"),
	}
	store := NewStore(backend, &memTokens{}, nil)

	require.NoError(t, store.Login(context.Background(), "cy@x.io", "pw"))
	snap := store.Snapshot()
	require.True(t, snap.SignedIn())
	assert.Equal(t, "u3", snap.User.ID)
	assert.NoError(t, snap.LastError)
}

func TestLogin_FailureRecordsError(t *testing.T) {
	loginErr := &api.Error{Kind: api.KindServer, Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	store := NewStore(&fakeBackend{loginErr: loginErr}, &memTokens{}, nil)

	err := store.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", api.UserMessage(err, "sign-in failed"))
	assert.Equal(t, err, store.Snapshot().LastError)
	assert.False(t, store.Snapshot().SignedIn())
}

func TestRegister(t *testing.T) {
	backend := &fakeBackend{registerRsp: &api.AuthResponse{}}
	store := NewStore(backend, &memTokens{}, nil)

	_, err := store.Register(context.Background(), "", "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	signedIn, err := store.Register(context.Background(), "Di", "di@x.io", "pw")
	require.NoError(t, err)
	assert.False(t, signedIn, "no token in reply means sign in separately")

	backend.registerRsp = &api.AuthResponse{AccessToken: "opaque"}
	backend.profile = &api.Profile{ID: "u4", Name: "Di"}
	signedIn, err = store.Register(context.Background(), "Di", "di@x.io", "pw")
	require.NoError(t, err)
	assert.True(t, signedIn)
	assert.Equal(t, "u4", store.CurrentUserID())
}

func TestUpdateAndProfileEdits(t *testing.T) {
	backend := &fakeBackend{profile: &api.Profile{ID: "u1", Name: "Ada"}}
	store := NewStore(backend, &memTokens{token: "opaque"}, nil)
	require.NoError(t, store.Initialize(context.Background()))

	store.Update(func(p *api.Profile) { p.Name = "Ada L." })
	assert.Equal(t, "Ada L.", store.CachedProfile().Name)

	cached := store.CachedProfile()
	cached.Name = "mutated"
	assert.Equal(t, "Ada L.", store.CachedProfile().Name, "CachedProfile returns a copy")

	bio := "math"
	require.NoError(t, store.UpdateProfile(context.Background(), api.ProfileUpdate{Bio: &bio}))
	assert.Equal(t, "math", store.CachedProfile().Bio)
	assert.Len(t, backend.updates, 1)
}

func TestSetLocation(t *testing.T) {
	backend := &fakeBackend{profile: &api.Profile{ID: "u1"}}
	store := NewStore(backend, &memTokens{token: "opaque"}, fixedGeocoder("Main St"))
	require.NoError(t, store.Initialize(context.Background()))

	loc, err := store.SetLocation(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "Main St", loc.Address)
	require.Len(t, backend.locations, 1)
	assert.Equal(t, loc, backend.locations[0])
	require.NotNil(t, store.CachedProfile().Location)
	assert.Equal(t, "Main St", store.CachedProfile().Location.Address)

	_, err = store.SetLocation(context.Background(), 91, 0)
	assert.Error(t, err)
	assert.Len(t, backend.locations, 1)
}

func TestSetLocation_NoGeocoderUsesFallback(t *testing.T) {
	store := NewStore(&fakeBackend{}, &memTokens{}, nil)
	loc, err := store.SetLocation(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, api.FallbackAddress, loc.Address)
}

func TestLogout(t *testing.T) {
	tokens := &memTokens{token: "opaque"}
	backend := &fakeBackend{profile: &api.Profile{ID: "u1"}, logoutErr: errors.New("offline")}
	store := NewStore(backend, tokens, nil)
	require.NoError(t, store.Initialize(context.Background()))

	require.NoError(t, store.Logout(context.Background()), "backend failure is best effort")
	assert.Equal(t, 1, backend.logouts)
	assert.Empty(t, tokens.token)
	assert.False(t, store.Snapshot().SignedIn())
	assert.Empty(t, store.Token())

	require.NoError(t, store.Logout(context.Background()))
	assert.Equal(t, 1, backend.logouts, "no token, no backend call")
}
