package comments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/five82/flock/internal/api"
)

// Gateway is the slice of the backend the comment list needs.
type Gateway interface {
	FetchComments(ctx context.Context, postID string) ([]api.Comment, error)
	CreateComment(ctx context.Context, postID string, payload api.CommentPayload) (*api.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ToggleCommentLike(ctx context.Context, id string) error
}

var (
	// ErrEmptyComment rejects blank input before any request is made.
	ErrEmptyComment = errors.New("comment cannot be empty")
	// ErrNoActivePost means no post's comments are open.
	ErrNoActivePost = errors.New("no post is open")
	// ErrUnknownComment is returned when liking a comment that is not loaded.
	ErrUnknownComment = errors.New("comment is not loaded")
)

// Snapshot is a point-in-time copy for rendering.
type Snapshot struct {
	PostID     string
	Comments   []api.Comment
	Text       string
	Loading    bool
	Submitting bool
	LastError  error
}

// Active reports whether a post's comments are open.
func (s Snapshot) Active() bool { return s.PostID != "" }

// Empty reports an open post whose comments loaded and turned out empty.
func (s Snapshot) Empty() bool {
	return s.Active() && !s.Loading && s.LastError == nil && len(s.Comments) == 0
}

// Comment returns the loaded comment with the given id.
func (s Snapshot) Comment(id string) (api.Comment, bool) {
	for _, c := range s.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return api.Comment{}, false
}

type tentativeLike struct {
	seq    uint64
	postID string
	userID string
	liked  bool
}

// Store holds the active post's comments and the comment input.
type Store struct {
	gateway Gateway

	mu         sync.Mutex
	postID     string
	comments   []api.Comment
	text       string
	loading    bool
	submitting bool
	lastErr    error
	generation uint64
	seq        uint64
	pending    map[string]tentativeLike
	dirty      map[string]bool
}

// NewStore returns a store with no open post.
func NewStore(gateway Gateway) *Store {
	return &Store{
		gateway: gateway,
		pending: make(map[string]tentativeLike),
		dirty:   make(map[string]bool),
	}
}

// Open makes postID the active post, clears the list and the input, and
// loads its comments.
func (s *Store) Open(ctx context.Context, postID string) error {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return ErrNoActivePost
	}
	s.mu.Lock()
	s.postID = postID
	s.comments = nil
	s.text = ""
	s.lastErr = nil
	s.pending = make(map[string]tentativeLike)
	s.dirty = make(map[string]bool)
	s.mu.Unlock()
	return s.load(ctx, true)
}

// Reload re-fetches the active post's comments, keeping the input.
func (s *Store) Reload(ctx context.Context) error {
	return s.load(ctx, false)
}

func (s *Store) load(ctx context.Context, showLoading bool) error {
	s.mu.Lock()
	postID := s.postID
	if postID == "" {
		s.mu.Unlock()
		return ErrNoActivePost
	}
	s.generation++
	gen := s.generation
	if showLoading || len(s.comments) == 0 {
		s.loading = true
	}
	s.mu.Unlock()

	comments, err := s.gateway.FetchComments(ctx, postID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	s.comments = visible(comments)
	for id, op := range s.pending {
		if i := s.indexOf(id); i >= 0 {
			s.comments[i].Likes = api.SetLike(s.comments[i].Likes, op.userID, op.liked)
		}
	}
	return nil
}

// Close forgets the active post. In-flight loads for it are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.postID = ""
	s.comments = nil
	s.text = ""
	s.loading = false
	s.lastErr = nil
	s.pending = make(map[string]tentativeLike)
	s.dirty = make(map[string]bool)
}

// SetText replaces the comment input.
func (s *Store) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// Create posts the current input as a comment on the active post. The input
// is cleared before the request. On success the new comment goes to the head
// of the list and onSuccess receives the post id. On failure nothing is added
// and the input is restored when the user has not typed anything new and the
// same post is still open.
func (s *Store) Create(ctx context.Context, onSuccess func(postID string)) error {
	s.mu.Lock()
	original := s.text
	content := strings.TrimSpace(original)
	if content == "" {
		s.mu.Unlock()
		return ErrEmptyComment
	}
	postID := s.postID
	if postID == "" {
		s.mu.Unlock()
		return ErrNoActivePost
	}
	s.text = ""
	s.submitting = true
	s.mu.Unlock()

	created, err := s.gateway.CreateComment(ctx, postID, api.CommentPayload{Content: content})

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		if s.postID == postID && s.text == "" {
			s.text = original
		}
		s.mu.Unlock()
		return err
	}
	if created != nil && s.postID == postID && s.indexOf(created.ID) < 0 {
		s.comments = append([]api.Comment{created.Clone()}, s.comments...)
	}
	s.mu.Unlock()

	if onSuccess != nil {
		onSuccess(postID)
	}
	return nil
}

// ToggleLike flips userID's like on a comment locally, then on the backend.
// Failure re-fetches the active post's comments; if a newer toggle on the
// same comment is still in flight the re-fetch happens when that one
// completes. Nothing is re-fetched once the post has been switched.
func (s *Store) ToggleLike(ctx context.Context, commentID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}

	s.mu.Lock()
	i := s.indexOf(commentID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("toggle like %s: %w", commentID, ErrUnknownComment)
	}
	liked := !s.comments[i].LikedBy(userID)
	s.comments[i].Likes = api.SetLike(s.comments[i].Likes, userID, liked)
	s.seq++
	seq := s.seq
	postID := s.postID
	s.pending[commentID] = tentativeLike{seq: seq, postID: postID, userID: userID, liked: liked}
	s.mu.Unlock()

	err := s.gateway.ToggleCommentLike(ctx, commentID)

	s.mu.Lock()
	current, ok := s.pending[commentID]
	reconcile := false
	switch {
	case ok && current.seq == seq:
		delete(s.pending, commentID)
		reconcile = err != nil || s.dirty[commentID]
		delete(s.dirty, commentID)
	case ok && err != nil:
		s.dirty[commentID] = true
	case err != nil:
		reconcile = true
	}
	stillOpen := s.postID == postID
	s.mu.Unlock()

	if !reconcile || !stillOpen {
		return err
	}
	if err != nil {
		log.Printf("comments: like on %s failed, reloading: %v", commentID, err)
	} else {
		log.Printf("comments: likes on %s drifted after an earlier failure, reloading", commentID)
	}
	if reloadErr := s.Reload(ctx); reloadErr != nil {
		return errors.Join(err, fmt.Errorf("reload comments: %w", reloadErr))
	}
	return err
}

// Delete removes a comment on the backend, then locally, and reports the
// post id to onSuccess. A comment that is not loaded is a no-op.
func (s *Store) Delete(ctx context.Context, commentID string, onSuccess func(postID string)) error {
	s.mu.Lock()
	if s.indexOf(commentID) < 0 {
		s.mu.Unlock()
		return nil
	}
	postID := s.postID
	s.mu.Unlock()

	if err := s.gateway.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	s.mu.Lock()
	if i := s.indexOf(commentID); i >= 0 {
		s.comments = append(s.comments[:i], s.comments[i+1:]...)
	}
	delete(s.pending, commentID)
	delete(s.dirty, commentID)
	s.mu.Unlock()

	if onSuccess != nil {
		onSuccess(postID)
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		PostID:     s.postID,
		Text:       s.text,
		Loading:    s.loading,
		Submitting: s.submitting,
		LastError:  s.lastErr,
	}
	if len(s.comments) > 0 {
		snap.Comments = make([]api.Comment, len(s.comments))
		for i, c := range s.comments {
			snap.Comments[i] = c.Clone()
		}
	}
	return snap
}

func (s *Store) indexOf(commentID string) int {
	for i := range s.comments {
		if s.comments[i].ID == commentID {
			return i
		}
	}
	return -1
}

func visible(comments []api.Comment) []api.Comment {
	out := make([]api.Comment, 0, len(comments))
	for _, c := range comments {
		if c.IsDeleted {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}
