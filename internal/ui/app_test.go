package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/comments"
	"github.com/five82/flock/internal/compose"
	"github.com/five82/flock/internal/feed"
	"github.com/five82/flock/internal/session"
)

type stubBackend struct {
	profile *api.Profile
}

func (b *stubBackend) Login(context.Context, api.Credentials) (*api.AuthResponse, error) {
	return &api.AuthResponse{AccessToken: "opaque-token", User: *b.profile}, nil
}

func (b *stubBackend) Register(context.Context, api.Registration) (*api.AuthResponse, error) {
	return &api.AuthResponse{}, nil
}

func (b *stubBackend) Logout(context.Context) error { return nil }

func (b *stubBackend) FetchProfile(context.Context) (*api.Profile, error) {
	return b.profile.Clone(), nil
}

func (b *stubBackend) UpdateProfile(context.Context, api.ProfileUpdate) (*api.Profile, error) {
	return b.profile.Clone(), nil
}

func (b *stubBackend) UpdateLocation(context.Context, api.Location) error { return nil }

type stubFeed struct {
	mu    sync.Mutex
	posts []api.Post
}

func (f *stubFeed) FetchFeed(context.Context, int, int) ([]api.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = p.Clone()
	}
	return out, nil
}

func (f *stubFeed) FetchPost(_ context.Context, id string) (*api.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			dup := p.Clone()
			return &dup, nil
		}
	}
	return nil, errors.New("post not found")
}

func (f *stubFeed) DeletePost(context.Context, string) error     { return nil }
func (f *stubFeed) TogglePostLike(context.Context, string) error { return nil }

type stubComments struct{}

func (stubComments) FetchComments(context.Context, string) ([]api.Comment, error) { return nil, nil }
func (stubComments) CreateComment(_ context.Context, postID string, p api.CommentPayload) (*api.Comment, error) {
	return &api.Comment{ID: "c1", PostID: postID, Content: p.Content}, nil
}
func (stubComments) DeleteComment(context.Context, string) error     { return nil }
func (stubComments) ToggleCommentLike(context.Context, string) error { return nil }

func testPosts() []api.Post {
	return []api.Post{
		{ID: "p1", Content: "mine", Author: api.ResolvedAuthor("u1", "Ann", ""), Likes: []string{"u1", "u2"}, CommentsCount: 1},
		{ID: "p2", Content: "theirs", Author: api.UnresolvedAuthor("u2")},
	}
}

// newTestModel builds a signed-in model with a loaded feed, sized 120x40.
func newTestModel(t *testing.T) Model {
	t.Helper()
	ctx := context.Background()

	sess := session.NewStore(
		&stubBackend{profile: &api.Profile{ID: "u1", Name: "Ann", Email: "ann@example.com"}},
		session.FileTokenStore{Path: filepath.Join(t.TempDir(), "token")},
		nil,
	)
	if err := sess.Login(ctx, "ann@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	posts := feed.NewStore(&stubFeed{posts: testPosts()}, 20)
	if err := posts.Load(ctx, 0, 0); err != nil {
		t.Fatalf("Load: %v", err)
	}
	thread := comments.NewStore(stubComments{})
	composer := compose.New(nil, nil, sess, posts)

	m := New(Options{
		Context:   ctx,
		Session:   sess,
		Feed:      posts,
		Comments:  thread,
		Composer:  composer,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)
	updated, _ = m.Update(takeSnapshot(sess, posts, thread, composer))
	return updated.(Model)
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCycleViewWrapsThroughTabOrder(t *testing.T) {
	m := Model{currentView: ViewFeed}
	if got := m.cycleView(1); got != ViewProfile {
		t.Fatalf("next after feed = %v, want Profile", got)
	}
	if got := m.cycleView(-1); got != ViewActivity {
		t.Fatalf("previous before feed = %v, want Activity", got)
	}
	m.currentView = ViewComments
	if got := m.cycleView(1); got != ViewProfile {
		t.Fatalf("next after comments = %v, want Profile", got)
	}
}

func TestFeedPaneWidths(t *testing.T) {
	cases := []struct {
		width      int
		wantList   int
		wantDetail int
	}{
		{80, 80, 80},
		{120, 48, 72},
		{200, 60, 140},
	}
	for _, tc := range cases {
		m := Model{width: tc.width}
		list, detail := m.feedPaneWidths()
		if list != tc.wantList || detail != tc.wantDetail {
			t.Fatalf("width %d: panes = %d/%d, want %d/%d", tc.width, list, detail, tc.wantList, tc.wantDetail)
		}
	}
}

func TestSyncFeedSelectionFollowsPostID(t *testing.T) {
	m := Model{selectedRow: 0, selectedID: "b"}
	m.feedSnap = feed.Snapshot{Posts: []api.Post{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	m.syncFeedSelection()
	if m.selectedRow != 1 {
		t.Fatalf("selectedRow = %d, want 1", m.selectedRow)
	}

	m.feedSnap.Posts = []api.Post{{ID: "a"}}
	m.syncFeedSelection()
	if m.selectedRow != 0 || m.selectedID != "a" {
		t.Fatalf("after removal selection = %d/%q, want 0/a", m.selectedRow, m.selectedID)
	}

	m.feedSnap.Posts = nil
	m.syncFeedSelection()
	if m.selectedID != "" {
		t.Fatalf("empty feed kept selection %q", m.selectedID)
	}
}

func TestDescribeError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{comments.ErrEmptyComment, "Comment cannot be empty"},
		{compose.ErrEmptyContent, "Write something before publishing"},
		{&compose.PublishError{Message: "too long"}, "too long"},
		{&api.Error{Kind: api.KindNetwork, Op: "x"}, "Network error: could not like post"},
		{&api.Error{Kind: api.KindServer, Status: 400, Message: "nope"}, "nope"},
		{errors.New("boom"), "Could not like post"},
	}
	for _, tc := range cases {
		if got := describeError(opLike, tc.err); got != tc.want {
			t.Fatalf("describeError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestSignInSnapshotStartsFeedLoad(t *testing.T) {
	m := newTestModel(t)
	if !m.sessionSnap.SignedIn() {
		t.Fatalf("model did not pick up the signed-in session")
	}
	if m.currentView != ViewFeed {
		t.Fatalf("view = %v, want Feed", m.currentView)
	}
	if len(m.feedSnap.Posts) != 2 || m.selectedID != "p1" {
		t.Fatalf("feed = %d posts, selected %q", len(m.feedSnap.Posts), m.selectedID)
	}
}

func TestDeletePostRequiresOwnership(t *testing.T) {
	m := newTestModel(t)

	m.selectRow(1)
	updated, _ := m.handleKey(runeKey("D"))
	m = updated.(Model)
	if m.confirm != nil {
		t.Fatalf("confirm opened for someone else's post")
	}
	if !m.status.isErr || !strings.Contains(m.status.text, "own posts") {
		t.Fatalf("status = %+v, want ownership error", m.status)
	}

	m.selectRow(0)
	updated, _ = m.handleKey(runeKey("D"))
	m = updated.(Model)
	if m.confirm == nil {
		t.Fatalf("confirm not opened for own post")
	}

	updated, cmd := m.handleKey(runeKey("n"))
	m = updated.(Model)
	if m.confirm != nil || cmd != nil {
		t.Fatalf("non-yes key did not cancel the prompt")
	}
	if m.status.text != "Cancelled" {
		t.Fatalf("status = %q, want Cancelled", m.status.text)
	}
}

func TestEditPostOpensComposerWithContent(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handleKey(runeKey("e"))
	m = updated.(Model)
	if m.currentView != ViewCompose {
		t.Fatalf("view = %v, want Compose", m.currentView)
	}
	if got := m.editor.textarea.Value(); got != "mine" {
		t.Fatalf("textarea = %q, want post content", got)
	}
	if !m.composeSnap.Editing() || m.composeSnap.Draft.EditingID != "p1" {
		t.Fatalf("draft = %+v, want editing p1", m.composeSnap.Draft)
	}

	updated, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.currentView != ViewFeed || m.composer.Snapshot().Open {
		t.Fatalf("esc did not discard the draft")
	}
}

func TestCommentsOpenAndInputFocus(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.handleKey(runeKey("c"))
	m = updated.(Model)
	if m.currentView != ViewComments || cmd == nil {
		t.Fatalf("view = %v, want Comments with a load command", m.currentView)
	}
	if m.commentSnap.PostID != "p1" || !m.commentSnap.Loading {
		t.Fatalf("comment snapshot = %+v, want provisional loading p1", m.commentSnap)
	}

	updated, _ = m.handleKey(runeKey("i"))
	m = updated.(Model)
	if !m.commentInput.Focused() {
		t.Fatalf("comment input not focused")
	}

	// With the input focused, letters are typed rather than handled as keys.
	updated, _ = m.handleKey(runeKey("p"))
	m = updated.(Model)
	if m.currentView != ViewComments || m.commentInput.Value() != "p" {
		t.Fatalf("typed key switched views or was dropped: view %v value %q", m.currentView, m.commentInput.Value())
	}

	updated, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.commentInput.Focused() || m.currentView != ViewComments {
		t.Fatalf("esc should only blur the input")
	}
}

func TestLoginFormTogglesRegister(t *testing.T) {
	m := Model{keys: DefaultKeyMap(), login: newLoginState("")}
	if m.login.focus != fieldEmail {
		t.Fatalf("focus = %d, want email", m.login.focus)
	}

	updated, _ := m.handleLoginKey(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)
	if !m.login.register || m.login.focus != fieldName {
		t.Fatalf("register = %v focus = %d, want register on name", m.login.register, m.login.focus)
	}

	updated, _ = m.handleLoginKey(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.login.focus != fieldEmail {
		t.Fatalf("tab moved focus to %d, want email", m.login.focus)
	}

	updated, _ = m.handleLoginKey(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)
	if m.login.register || m.login.focus != fieldEmail {
		t.Fatalf("toggle back: register = %v focus = %d", m.login.register, m.login.focus)
	}

	withEmail := newLoginState("ann@example.com")
	if withEmail.focus != fieldPassword || withEmail.inputs[fieldEmail].Value() != "ann@example.com" {
		t.Fatalf("remembered email not prefilled")
	}
}

func TestRetrySavedSessionFromLogin(t *testing.T) {
	m := newTestModel(t)
	m.login = newLoginState("")
	m.lastEmail = "kept@example.com"

	updated, cmd := m.handleLoginKey(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = updated.(Model)
	if !m.login.busy || cmd == nil {
		t.Fatalf("busy = %v, want a session retry in flight", m.login.busy)
	}
	msg, ok := cmd().(authMsg)
	if !ok || !msg.resumed || !msg.signedIn || msg.err != nil {
		t.Fatalf("retry msg = %+v, want resumed sign-in", msg)
	}

	updated, _ = m.handleAuth(msg)
	m = updated.(Model)
	if m.login.busy || m.login.err != "" {
		t.Fatalf("login state after retry = %+v", m.login)
	}
	if m.lastEmail != "kept@example.com" {
		t.Fatalf("lastEmail = %q, want it untouched by a retry", m.lastEmail)
	}
}

func TestRenderPostDetailShowsCounts(t *testing.T) {
	m := newTestModel(t)
	post, ok := m.selectedPost()
	if !ok {
		t.Fatalf("no selected post")
	}
	out := m.renderPostDetail(post, 60, m.theme.SurfaceAlt)
	for _, want := range []string{"Ann", "mine", "likes", "comment"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail missing %q:\n%s", want, out)
		}
	}
}

func TestActivityLevelCycles(t *testing.T) {
	m := Model{keys: DefaultKeyMap(), activity: newActivityState()}
	m.activity.lines = []string{
		"2024/01/02 10:00:00 feed: loaded",
		"2024/01/02 10:00:01 app: feed poll failed (attempt 1), backing off",
	}
	updated, _ := m.handleActivityKey(runeKey("f"))
	m = updated.(Model)
	if len(m.activity.entries) != 1 {
		t.Fatalf("warn filter kept %d entries, want 1", len(m.activity.entries))
	}
	for range 2 {
		updated, _ = m.handleActivityKey(runeKey("f"))
		m = updated.(Model)
	}
	if len(m.activity.entries) != 2 {
		t.Fatalf("filter did not wrap back to info: %d entries", len(m.activity.entries))
	}
}
