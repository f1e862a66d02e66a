package compose

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/five82/flock/internal/api"
)

// MaxImages caps the images attached to one post.
const MaxImages = 4

const publishFallback = "could not publish post"

var (
	// ErrEmptyContent rejects a draft whose text is blank.
	ErrEmptyContent = errors.New("post content cannot be empty")
	// ErrBusy means a submit is already running for this draft.
	ErrBusy = errors.New("post is already being published")
)

// Publisher creates and updates posts.
type Publisher interface {
	CreatePost(ctx context.Context, payload api.PostPayload) (*api.Post, error)
	UpdatePost(ctx context.Context, id string, payload api.PostPayload) (*api.Post, error)
}

// Uploader turns a local image reference into a remote URL.
type Uploader interface {
	UploadImage(ctx context.Context, ref string) (string, error)
}

// ProfileSource provides the signed-in user's profile, fresh or cached.
type ProfileSource interface {
	FetchProfile(ctx context.Context) (*api.Profile, error)
	CachedProfile() *api.Profile
}

// ImagePicker lets the user choose local images.
type ImagePicker interface {
	PickImages(ctx context.Context) ([]string, error)
}

// Reloader refreshes the feed after a successful publish.
type Reloader interface {
	Reload(ctx context.Context) error
}

// PublishError is returned when the backend rejects a post. Its message is
// the server's, or a generic one when the server gave none.
type PublishError struct {
	Message string
	Err     error
}

func (e *PublishError) Error() string { return e.Message }

func (e *PublishError) Unwrap() error { return e.Err }

// Draft is the unsaved post being composed or edited.
type Draft struct {
	Content   string
	Images    []string // remote URLs or local file references
	Location  *api.Location
	EditingID string // empty when creating
}

func (d Draft) clone() Draft {
	dup := d
	if d.Images != nil {
		dup.Images = append([]string(nil), d.Images...)
	}
	if d.Location != nil {
		loc := *d.Location
		dup.Location = &loc
	}
	return dup
}

// Snapshot is a point-in-time copy of the composer for rendering.
type Snapshot struct {
	Draft      Draft
	Open       bool
	Submitting bool
	LastError  error
}

// Editing reports whether the draft edits an existing post.
func (s Snapshot) Editing() bool { return s.Draft.EditingID != "" }

// CanAddImages reports whether another image fits.
func (s Snapshot) CanAddImages() bool { return len(s.Draft.Images) < MaxImages }

// Composer owns the draft. Edits never touch the live post; a successful
// submit reloads the feed instead.
type Composer struct {
	publisher Publisher
	uploader  Uploader
	profiles  ProfileSource
	feed      Reloader

	mu         sync.Mutex
	draft      Draft
	open       bool
	submitting bool
	lastErr    error
	session    uint64
}

// New wires a Composer to its collaborators. profiles and feed may be nil.
func New(publisher Publisher, uploader Uploader, profiles ProfileSource, feed Reloader) *Composer {
	return &Composer{publisher: publisher, uploader: uploader, profiles: profiles, feed: feed}
}

// OpenForCreate starts an empty draft located where the user is: the fresh
// profile's location, else the cached one, else none.
func (c *Composer) OpenForCreate(ctx context.Context) {
	c.mu.Lock()
	c.reset()
	c.open = true
	session := c.session
	c.mu.Unlock()

	loc := c.defaultLocation(ctx)
	if loc == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == session && c.open && c.draft.EditingID == "" && c.draft.Location == nil {
		c.draft.Location = loc
	}
}

func (c *Composer) defaultLocation(ctx context.Context) *api.Location {
	if c.profiles == nil {
		return nil
	}
	if profile, err := c.profiles.FetchProfile(ctx); err == nil && profile != nil && profile.Location != nil {
		loc := *profile.Location
		return &loc
	} else if err != nil {
		log.Printf("compose: profile fetch failed, using cached location: %v", err)
	}
	if cached := c.profiles.CachedProfile(); cached != nil && cached.Location != nil {
		loc := *cached.Location
		return &loc
	}
	return nil
}

// OpenForEdit seeds the draft from an existing post. No network is used.
func (c *Composer) OpenForEdit(post api.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.open = true
	c.draft.Content = post.Content
	c.draft.EditingID = post.ID
	c.draft.Images = capImages(append([]string(nil), post.MediaURLs...))
	if post.Location != nil {
		loc := *post.Location
		c.draft.Location = &loc
	}
}

// PickImages asks picker for images and appends them to the draft, keeping
// the first MaxImages after concatenation.
func (c *Composer) PickImages(ctx context.Context, picker ImagePicker) error {
	if picker == nil {
		return nil
	}
	picked, err := picker.PickImages(ctx)
	if err != nil {
		return err
	}
	c.AddImages(picked...)
	return nil
}

// AddImages appends image references, dropping blanks and anything past
// MaxImages.
func (c *Composer) AddImages(refs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			c.draft.Images = append(c.draft.Images, ref)
		}
	}
	c.draft.Images = capImages(c.draft.Images)
}

// RemoveImage drops the image at index i. Out of range is a no-op.
func (c *Composer) RemoveImage(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.draft.Images) {
		return
	}
	c.draft.Images = append(c.draft.Images[:i], c.draft.Images[i+1:]...)
}

// SetContent replaces the draft text.
func (c *Composer) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Content = content
}

// SetLocation attaches a location to the draft.
func (c *Composer) SetLocation(loc api.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Location = &loc
}

// ClearLocation removes the draft location.
func (c *Composer) ClearLocation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Location = nil
}

// Close discards the draft.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Submit publishes the draft. Local images are uploaded one at a time in
// order; an image that fails to upload is logged and left out. On success the
// draft is reset and closed and the feed reloaded. On failure the draft is
// kept and a *PublishError is returned.
func (c *Composer) Submit(ctx context.Context) (*api.Post, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	content := strings.TrimSpace(c.draft.Content)
	if content == "" {
		c.lastErr = ErrEmptyContent
		c.mu.Unlock()
		return nil, ErrEmptyContent
	}
	draft := c.draft.clone()
	session := c.session
	c.submitting = true
	c.lastErr = nil
	c.mu.Unlock()

	payload := api.PostPayload{
		Content:   content,
		MediaURLs: c.resolveImages(ctx, draft.Images),
		Location:  draft.Location,
	}

	var (
		post *api.Post
		err  error
	)
	if draft.EditingID != "" {
		post, err = c.publisher.UpdatePost(ctx, draft.EditingID, payload)
	} else {
		post, err = c.publisher.CreatePost(ctx, payload)
	}

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		pubErr := &PublishError{Message: api.UserMessage(err, publishFallback), Err: err}
		if c.session == session {
			c.lastErr = pubErr
		}
		c.mu.Unlock()
		return nil, pubErr
	}
	if c.session == session {
		c.reset()
	}
	c.mu.Unlock()

	if c.feed != nil {
		if reloadErr := c.feed.Reload(ctx); reloadErr != nil {
			log.Printf("compose: feed reload after publish failed: %v", reloadErr)
		}
	}
	return post, nil
}

func (c *Composer) resolveImages(ctx context.Context, refs []string) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		if api.IsRemoteURL(ref) {
			urls = append(urls, ref)
			continue
		}
		url, err := c.uploader.UploadImage(ctx, ref)
		if err != nil {
			log.Printf("compose: skipping image %s after upload error: %v", ref, err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// Snapshot returns a copy of the composer state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Draft:      c.draft.clone(),
		Open:       c.open,
		Submitting: c.submitting,
		LastError:  c.lastErr,
	}
}

// reset clears the draft and starts a new compose session. Callers hold c.mu.
func (c *Composer) reset() {
	c.session++
	c.draft = Draft{}
	c.open = false
	c.lastErr = nil
}

func capImages(images []string) []string {
	if len(images) > MaxImages {
		return images[:MaxImages]
	}
	return images
}
