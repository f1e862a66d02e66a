package comments

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flock/internal/api"
)

// fakeGateway is an in-memory backend. Successful likes toggle for
// actingUser when it is set.
type fakeGateway struct {
	mu         sync.Mutex
	comments   map[string][]api.Comment
	nextID     int
	actingUser string

	fetchErr  error
	createErr error
	deleteErr error
	likeFn    func(call int) error
	fetchHook func(postID string)

	fetchCalls  int
	createCalls int
	deleteCalls int
	likeCalls   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{comments: map[string][]api.Comment{
		"p1": {
			{ID: "c1", PostID: "p1", Content: "newest", Likes: []string{"u2"}},
			{ID: "c2", PostID: "p1", Content: "older", Likes: []string{}},
			{ID: "c3", PostID: "p1", Content: "removed", IsDeleted: true},
		},
		"p2": {
			{ID: "c9", PostID: "p2", Content: "other post"},
		},
	}}
}

func (f *fakeGateway) FetchComments(_ context.Context, postID string) ([]api.Comment, error) {
	f.mu.Lock()
	f.fetchCalls++
	hook := f.fetchHook
	err := f.fetchErr
	src := f.comments[postID]
	out := make([]api.Comment, len(src))
	for i, c := range src {
		out[i] = c.Clone()
	}
	f.mu.Unlock()

	if hook != nil {
		hook(postID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeGateway) CreateComment(_ context.Context, postID string, payload api.CommentPayload) (*api.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	created := api.Comment{ID: "new" + string(rune('0'+f.nextID)), PostID: postID, Content: payload.Content}
	f.comments[postID] = append(f.comments[postID], created)
	return &created, nil
}

func (f *fakeGateway) DeleteComment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeGateway) ToggleCommentLike(_ context.Context, id string) error {
	f.mu.Lock()
	f.likeCalls++
	call := f.likeCalls
	fn := f.likeFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(call); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actingUser == "" {
		return nil
	}
	for postID, list := range f.comments {
		for i, c := range list {
			if c.ID == id {
				f.comments[postID][i].Likes = api.SetLike(c.Likes, f.actingUser, !c.LikedBy(f.actingUser))
			}
		}
	}
	return nil
}

func (f *fakeGateway) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func assertMatchesServer(t *testing.T, gw *fakeGateway, store *Store) {
	t.Helper()
	fresh, err := gw.FetchComments(context.Background(), store.Snapshot().PostID)
	require.NoError(t, err)
	assert.Equal(t, visible(fresh), store.Snapshot().Comments)
}

func openStore(t *testing.T, gw *fakeGateway) *Store {
	t.Helper()
	store := NewStore(gw)
	require.NoError(t, store.Open(context.Background(), "p1"))
	return store
}

func ids(comments []api.Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

func TestOpen_LoadsVisibleCommentsInServerOrder(t *testing.T) {
	store := openStore(t, newFakeGateway())

	snap := store.Snapshot()
	assert.Equal(t, "p1", snap.PostID)
	assert.Equal(t, []string{"c1", "c2"}, ids(snap.Comments))
	assert.False(t, snap.Loading)
	assert.False(t, snap.Empty())
}

func TestOpen_ClearsPreviousStateAndInput(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)
	store.SetText("draft for p1")

	require.NoError(t, store.Open(context.Background(), "p2"))

	snap := store.Snapshot()
	assert.Equal(t, "p2", snap.PostID)
	assert.Equal(t, []string{"c9"}, ids(snap.Comments))
	assert.Empty(t, snap.Text)
}

func TestOpen_EmptyPostIsEmptyNotError(t *testing.T) {
	gw := newFakeGateway()
	store := NewStore(gw)
	require.NoError(t, store.Open(context.Background(), "p-empty"))
	assert.True(t, store.Snapshot().Empty())
}

func TestOpen_StaleResponseForSwitchedPostIsDropped(t *testing.T) {
	gw := newFakeGateway()
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.fetchHook = func(postID string) {
		if postID == "p1" {
			close(entered)
			<-release
		}
	}
	store := NewStore(gw)

	done := make(chan error, 1)
	go func() { done <- store.Open(context.Background(), "p1") }()
	<-entered

	require.NoError(t, store.Open(context.Background(), "p2"))
	close(release)
	require.NoError(t, <-done)

	snap := store.Snapshot()
	assert.Equal(t, "p2", snap.PostID)
	assert.Equal(t, []string{"c9"}, ids(snap.Comments))
}

func TestClose_DiscardsInFlightLoad(t *testing.T) {
	gw := newFakeGateway()
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.fetchHook = func(string) {
		close(entered)
		<-release
	}
	store := NewStore(gw)

	done := make(chan error, 1)
	go func() { done <- store.Open(context.Background(), "p1") }()
	<-entered
	store.Close()
	close(release)
	require.NoError(t, <-done)

	snap := store.Snapshot()
	assert.False(t, snap.Active())
	assert.Empty(t, snap.Comments)
}

func TestOpen_FailureRecordsError(t *testing.T) {
	gw := newFakeGateway()
	gw.fetchErr = errors.New("offline")
	store := NewStore(gw)

	err := store.Open(context.Background(), "p1")
	require.Error(t, err)
	snap := store.Snapshot()
	assert.Equal(t, err, snap.LastError)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Empty())
}

func TestCreate_WhitespaceRejectedBeforeGateway(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)
	before := store.Snapshot().Comments

	store.SetText("   ")
	err := store.Create(context.Background(), func(string) { t.Fatal("onSuccess must not run") })

	require.ErrorIs(t, err, ErrEmptyComment)
	assert.Zero(t, gw.createCalls)
	assert.Equal(t, before, store.Snapshot().Comments)
}

func TestCreate_WithoutActivePost(t *testing.T) {
	store := NewStore(newFakeGateway())
	store.SetText("hello")
	require.ErrorIs(t, store.Create(context.Background(), nil), ErrNoActivePost)
}

func TestCreate_PrependsAndReportsPost(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)
	store.SetText("  nice post  ")

	var adjusted []string
	require.NoError(t, store.Create(context.Background(), func(postID string) {
		adjusted = append(adjusted, postID)
	}))

	snap := store.Snapshot()
	require.Len(t, snap.Comments, 3)
	assert.Equal(t, "nice post", snap.Comments[0].Content)
	assert.Equal(t, []string{"c1", "c2"}, ids(snap.Comments[1:]))
	assert.Empty(t, snap.Text)
	assert.Equal(t, []string{"p1"}, adjusted)
}

func TestCreate_FailureAddsNothingAndRestoresInput(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = &api.Error{Kind: api.KindServer, Status: 500, Message: "db down"}
	store := openStore(t, gw)
	store.SetText("keep me")

	err := store.Create(context.Background(), func(string) { t.Fatal("onSuccess must not run") })

	require.Error(t, err)
	assert.Equal(t, "db down", api.UserMessage(err, "fallback"))
	snap := store.Snapshot()
	assert.Equal(t, []string{"c1", "c2"}, ids(snap.Comments))
	assert.Equal(t, "keep me", snap.Text)
	assert.False(t, snap.Submitting)
}

func TestToggleLike_SuccessAlternates(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)
	ctx := context.Background()

	require.NoError(t, store.ToggleLike(ctx, "c2", "u1"))
	c, _ := store.Snapshot().Comment("c2")
	assert.Equal(t, []string{"u1"}, c.Likes)

	require.NoError(t, store.ToggleLike(ctx, "c2", "u1"))
	c, _ = store.Snapshot().Comment("c2")
	assert.Empty(t, c.Likes)
	assert.Equal(t, 1, gw.fetchCalls, "success must not reload")
}

func TestToggleLike_FailureRefetchesActivePostOnly(t *testing.T) {
	gw := newFakeGateway()
	gw.likeFn = func(int) error { return errors.New("nope") }
	store := openStore(t, gw)

	err := store.ToggleLike(context.Background(), "c1", "u2")
	require.Error(t, err)

	c, ok := store.Snapshot().Comment("c1")
	require.True(t, ok)
	assert.Equal(t, []string{"u2"}, c.Likes, "server truth restored")
	assert.Equal(t, 2, gw.fetchCalls)
}

func TestToggleLike_FailureAfterNewerSuccessRefetches(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	boom := errors.New("first toggle failed")
	gw := newFakeGateway()
	gw.actingUser = "u1"
	gw.likeFn = func(call int) error {
		if call == 1 {
			close(entered)
			<-release
			return boom
		}
		return nil
	}
	store := openStore(t, gw)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- store.ToggleLike(ctx, "c2", "u1") }()
	<-entered

	require.NoError(t, store.ToggleLike(ctx, "c2", "u1"))
	close(release)
	require.ErrorIs(t, <-done, boom)

	assert.Equal(t, 2, gw.fetches())
	c, ok := store.Snapshot().Comment("c2")
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, c.Likes)
	assertMatchesServer(t, gw, store)
}

func TestToggleLike_FailureDefersRefetchToNewerToggle(t *testing.T) {
	firstIn, firstOut := make(chan struct{}), make(chan struct{})
	secondIn, secondOut := make(chan struct{}), make(chan struct{})
	boom := errors.New("first toggle failed")
	gw := newFakeGateway()
	gw.actingUser = "u1"
	gw.likeFn = func(call int) error {
		if call == 1 {
			close(firstIn)
			<-firstOut
			return boom
		}
		close(secondIn)
		<-secondOut
		return nil
	}
	store := openStore(t, gw)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- store.ToggleLike(ctx, "c2", "u1") }()
	<-firstIn
	second := make(chan error, 1)
	go func() { second <- store.ToggleLike(ctx, "c2", "u1") }()
	<-secondIn

	close(firstOut)
	require.ErrorIs(t, <-first, boom)
	assert.Equal(t, 1, gw.fetches(), "refetch must wait for the newer toggle")

	close(secondOut)
	require.NoError(t, <-second)
	assert.Equal(t, 2, gw.fetches())
	assertMatchesServer(t, gw, store)
}

func TestToggleLike_NoUserIsNoop(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)
	require.NoError(t, store.ToggleLike(context.Background(), "c1", ""))
	assert.Zero(t, gw.likeCalls)
}

func TestDelete_MissingCommentIsNoop(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)

	called := false
	require.NoError(t, store.Delete(context.Background(), "ghost", func(string) { called = true }))

	assert.False(t, called, "no count adjustment for unknown comment")
	assert.Zero(t, gw.deleteCalls)
	assert.Len(t, store.Snapshot().Comments, 2)
}

func TestDelete_SuccessAndFailure(t *testing.T) {
	gw := newFakeGateway()
	store := openStore(t, gw)

	gw.deleteErr = errors.New("forbidden")
	require.Error(t, store.Delete(context.Background(), "c1", func(string) { t.Fatal("onSuccess must not run") }))
	assert.Len(t, store.Snapshot().Comments, 2)

	gw.deleteErr = nil
	var adjusted string
	require.NoError(t, store.Delete(context.Background(), "c1", func(postID string) { adjusted = postID }))
	assert.Equal(t, []string{"c2"}, ids(store.Snapshot().Comments))
	assert.Equal(t, "p1", adjusted)
}
