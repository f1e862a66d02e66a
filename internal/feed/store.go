package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/five82/flock/internal/api"
)

// Gateway is the slice of the backend the feed needs.
type Gateway interface {
	FetchFeed(ctx context.Context, limit, offset int) ([]api.Post, error)
	FetchPost(ctx context.Context, id string) (*api.Post, error)
	DeletePost(ctx context.Context, id string) error
	TogglePostLike(ctx context.Context, id string) error
}

// ErrUnknownPost is returned when an operation names a post that is not in
// the local collection.
var ErrUnknownPost = errors.New("post is not in the feed")

const defaultPageSize = 20

// Phase is the lifecycle state of the post collection.
type Phase int

// Phases of the post collection.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseRefreshing
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of the feed for rendering.
type Snapshot struct {
	Posts               []api.Post
	Phase               Phase
	LastError           error
	LastUpdated         time.Time
	ConsecutiveFailures int
	Limit               int
	Offset              int
}

// Loading reports whether a first load (no data yet) is in flight.
func (s Snapshot) Loading() bool { return s.Phase == PhaseLoading }

// Refreshing reports whether a reload over existing data is in flight.
func (s Snapshot) Refreshing() bool { return s.Phase == PhaseRefreshing }

// Empty reports a successful load that returned no posts.
func (s Snapshot) Empty() bool { return s.Phase == PhaseReady && len(s.Posts) == 0 }

// IsOffline returns true when the backend has failed several loads in a row.
func (s Snapshot) IsOffline() bool { return s.ConsecutiveFailures >= 2 }

// Post returns the post with the given id.
func (s Snapshot) Post(id string) (api.Post, bool) {
	for _, p := range s.Posts {
		if p.ID == id {
			return p, true
		}
	}
	return api.Post{}, false
}

// tentativeLike is an optimistic like flip that the gateway has not
// confirmed yet.
type tentativeLike struct {
	seq    uint64
	userID string
	liked  bool
}

// Store owns the post collection and applies optimistic mutations to it.
type Store struct {
	gateway Gateway

	mu          sync.Mutex
	posts       []api.Post
	phase       Phase
	lastErr     error
	lastUpdated time.Time
	failures    int
	limit       int
	offset      int
	generation  uint64
	seq         uint64
	pending     map[string]tentativeLike
	// dirty marks posts whose local likes drifted from the backend because
	// an older toggle failed while a newer one was still in flight.
	dirty map[string]bool
}

// NewStore returns an idle store. pageSize <= 0 uses the default of 20.
func NewStore(gateway Gateway, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Store{
		gateway: gateway,
		limit:   pageSize,
		pending: make(map[string]tentativeLike),
		dirty:   make(map[string]bool),
	}
}

// Load fetches one page and replaces the whole collection with it. On
// failure the previous posts are kept and the error is recorded. A response
// that arrives after a newer load has started is dropped.
func (s *Store) Load(ctx context.Context, limit, offset int) error {
	s.mu.Lock()
	if limit > 0 {
		s.limit = limit
	}
	s.offset = max(offset, 0)
	s.mu.Unlock()
	return s.fetch(ctx, false)
}

// Reload repeats the last Load with the remembered paging.
func (s *Store) Reload(ctx context.Context) error {
	return s.fetch(ctx, false)
}

// Refresh is Reload for pull-to-refresh: it raises Refreshing instead of
// Loading when there is data on screen.
func (s *Store) Refresh(ctx context.Context) error {
	return s.fetch(ctx, true)
}

func (s *Store) fetch(ctx context.Context, refresh bool) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	limit, offset := s.limit, s.offset
	if refresh && s.phase != PhaseIdle && s.phase != PhaseLoading {
		s.phase = PhaseRefreshing
	} else {
		s.phase = PhaseLoading
	}
	s.mu.Unlock()

	posts, err := s.gateway.FetchFeed(ctx, limit, offset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.lastUpdated = time.Now()
	if err != nil {
		s.phase = PhaseError
		s.lastErr = err
		s.failures++
		return err
	}
	s.posts = visible(posts)
	s.reapplyPending()
	s.phase = PhaseReady
	s.lastErr = nil
	s.failures = 0
	return nil
}

// reapplyPending keeps unconfirmed like flips visible over freshly loaded
// data. Callers hold s.mu.
func (s *Store) reapplyPending() {
	for id, op := range s.pending {
		if i := s.indexOf(id); i >= 0 {
			s.posts[i].Likes = api.SetLike(s.posts[i].Likes, op.userID, op.liked)
		}
	}
}

// ToggleLike flips userID's like on postID locally, then asks the backend to
// do the same. Success confirms the flip. A failure reconciles with a full
// Reload. When a newer toggle on the same post is still in flight the reload
// waits until that toggle completes, so it never overwrites a tentative
// flip. An empty userID is a no-op.
func (s *Store) ToggleLike(ctx context.Context, postID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}

	s.mu.Lock()
	i := s.indexOf(postID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("toggle like %s: %w", postID, ErrUnknownPost)
	}
	liked := !s.posts[i].LikedBy(userID)
	s.posts[i].Likes = api.SetLike(s.posts[i].Likes, userID, liked)
	s.seq++
	seq := s.seq
	s.pending[postID] = tentativeLike{seq: seq, userID: userID, liked: liked}
	s.mu.Unlock()

	err := s.gateway.TogglePostLike(ctx, postID)

	s.mu.Lock()
	current, ok := s.pending[postID]
	reconcile := false
	switch {
	case ok && current.seq == seq:
		delete(s.pending, postID)
		reconcile = err != nil || s.dirty[postID]
		delete(s.dirty, postID)
	case ok && err != nil:
		// The newer toggle reloads once it completes.
		s.dirty[postID] = true
	case err != nil:
		reconcile = true
	}
	s.mu.Unlock()

	if !reconcile {
		return err
	}
	if err != nil {
		log.Printf("feed: like on %s failed, reloading: %v", postID, err)
	} else {
		log.Printf("feed: likes on %s drifted after an earlier failure, reloading", postID)
	}
	if reloadErr := s.Reload(ctx); reloadErr != nil {
		return errors.Join(err, fmt.Errorf("reload feed: %w", reloadErr))
	}
	return err
}

// DeletePost deletes on the backend first and removes the post locally only
// when that succeeds.
func (s *Store) DeletePost(ctx context.Context, postID string) error {
	if err := s.gateway.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(postID); i >= 0 {
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
	}
	delete(s.pending, postID)
	delete(s.dirty, postID)
	return nil
}

// RefreshPost re-fetches one loaded post and replaces it in place, keeping
// any unconfirmed like flip on top. A post the backend reports deleted is
// dropped. Posts outside the collection are ignored.
func (s *Store) RefreshPost(ctx context.Context, postID string) error {
	post, err := s.gateway.FetchPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("refresh post %s: %w", postID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(postID)
	if i < 0 || post == nil {
		return nil
	}
	if post.IsDeleted {
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		delete(s.pending, postID)
		delete(s.dirty, postID)
		return nil
	}
	s.posts[i] = post.Clone()
	if op, ok := s.pending[postID]; ok {
		s.posts[i].Likes = api.SetLike(s.posts[i].Likes, op.userID, op.liked)
	}
	return nil
}

// AdjustCommentCount applies delta to one post's comment count, clamping at 0.
func (s *Store) AdjustCommentCount(postID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(postID); i >= 0 {
		s.posts[i].CommentsCount = max(0, s.posts[i].CommentsCount+delta)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:               s.phase,
		LastError:           s.lastErr,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
		Limit:               s.limit,
		Offset:              s.offset,
	}
	if len(s.posts) > 0 {
		snap.Posts = make([]api.Post, len(s.posts))
		for i, p := range s.posts {
			snap.Posts[i] = p.Clone()
		}
	}
	return snap
}

func (s *Store) indexOf(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func visible(posts []api.Post) []api.Post {
	out := make([]api.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsDeleted {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}
