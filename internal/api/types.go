package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Location is a geographic point with an optional human-readable label.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Label returns the address when known, otherwise the coordinates.
func (l Location) Label() string {
	if addr := strings.TrimSpace(l.Address); addr != "" {
		return addr
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}

// AuthorKind tags which variant an Author holds.
type AuthorKind int

const (
	// AuthorUnresolved carries only the author id.
	AuthorUnresolved AuthorKind = iota
	// AuthorResolved carries the id plus embedded display fields.
	AuthorResolved
)

// Author references the user who wrote a post or comment. The backend sends
// either a bare id string or an embedded user object.
type Author struct {
	Kind   AuthorKind
	ID     string
	Name   string
	Email  string
	Avatar string
}

// UnresolvedAuthor builds an id-only author reference.
func UnresolvedAuthor(id string) Author {
	return Author{Kind: AuthorUnresolved, ID: id}
}

// ResolvedAuthor builds an author reference with display fields.
func ResolvedAuthor(id, name, avatar string) Author {
	return Author{Kind: AuthorResolved, ID: id, Name: name, Avatar: avatar}
}

// AuthorID returns the author identifier regardless of variant.
func (a Author) AuthorID() string {
	return a.ID
}

// DisplayName returns the author's name, falling back to a short id.
func (a Author) DisplayName() string {
	if a.Kind == AuthorResolved && strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	if len(a.ID) > 8 {
		return "user " + a.ID[len(a.ID)-6:]
	}
	if a.ID == "" {
		return "unknown"
	}
	return "user " + a.ID
}

type authorWire struct {
	ID     string `json:"_id"`
	AltID  string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (a *Author) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Author{}
		return nil
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("decode author id: %w", err)
		}
		*a = UnresolvedAuthor(id)
		return nil
	}
	var wire authorWire
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return fmt.Errorf("decode author: %w", err)
	}
	id := wire.ID
	if id == "" {
		id = wire.AltID
	}
	*a = Author{Kind: AuthorResolved, ID: id, Name: wire.Name, Email: wire.Email, Avatar: wire.Avatar}
	return nil
}

// MarshalJSON writes the same variant that was read.
func (a Author) MarshalJSON() ([]byte, error) {
	if a.Kind == AuthorUnresolved {
		return json.Marshal(a.ID)
	}
	return json.Marshal(authorWire{ID: a.ID, Name: a.Name, Email: a.Email, Avatar: a.Avatar})
}

// Post mirrors a feed entry.
type Post struct {
	ID            string    `json:"_id"`
	Content       string    `json:"content"`
	MediaURLs     []string  `json:"mediaUrls,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Author        Author    `json:"authorId"`
	Likes         []string  `json:"likes"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
	IsDeleted     bool      `json:"isDeleted"`
}

// LikedBy reports whether userID is in the post's like set.
func (p Post) LikedBy(userID string) bool {
	return containsID(p.Likes, userID)
}

// CreatedTime parses CreatedAt.
func (p Post) CreatedTime() time.Time {
	return parseTime(p.CreatedAt)
}

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	dup := p
	dup.MediaURLs = cloneStrings(p.MediaURLs)
	dup.Likes = cloneStrings(p.Likes)
	if p.Location != nil {
		loc := *p.Location
		dup.Location = &loc
	}
	return dup
}

// Comment mirrors a post comment.
type Comment struct {
	ID              string   `json:"_id"`
	PostID          string   `json:"postId"`
	Content         string   `json:"content"`
	Author          Author   `json:"authorId"`
	Likes           []string `json:"likes"`
	ParentCommentID string   `json:"parentCommentId,omitempty"`
	CreatedAt       string   `json:"createdAt"`
	IsDeleted       bool     `json:"isDeleted"`
}

// LikedBy reports whether userID is in the comment's like set.
func (c Comment) LikedBy(userID string) bool {
	return containsID(c.Likes, userID)
}

// CreatedTime parses CreatedAt.
func (c Comment) CreatedTime() time.Time {
	return parseTime(c.CreatedAt)
}

// Clone returns a copy that shares no slices with c.
func (c Comment) Clone() Comment {
	dup := c
	dup.Likes = cloneStrings(c.Likes)
	return dup
}

// PostPayload is the body for creating or updating a post.
type PostPayload struct {
	Content   string    `json:"content"`
	MediaURLs []string  `json:"mediaUrls,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

// CommentPayload is the body for creating a comment.
type CommentPayload struct {
	Content         string `json:"content"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

// SocialLinks groups optional profile links.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// Profile mirrors the signed-in user's backend record.
type Profile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	IsOnline    bool         `json:"isOnline,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	DateOfBirth string       `json:"dateOfBirth,omitempty"`
	Gender      string       `json:"gender,omitempty"`
	Occupation  string       `json:"occupation,omitempty"`
	Company     string       `json:"company,omitempty"`
	Website     string       `json:"website,omitempty"`
	Interests   []string     `json:"interests,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	CoverPhoto  string       `json:"coverPhoto,omitempty"`
	SocialMedia *SocialLinks `json:"socialMedia,omitempty"`
	Location    *Location    `json:"location,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id" for the identifier.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile(raw.plain)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	return nil
}

// Clone returns a deep copy of p. A nil receiver yields nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	dup := *p
	dup.Interests = cloneStrings(p.Interests)
	if p.Location != nil {
		loc := *p.Location
		dup.Location = &loc
	}
	if p.SocialMedia != nil {
		links := *p.SocialMedia
		dup.SocialMedia = &links
	}
	return &dup
}

// ProfileUpdate carries the editable profile fields; nil fields are omitted.
type ProfileUpdate struct {
	Name       *string  `json:"name,omitempty"`
	Bio        *string  `json:"bio,omitempty"`
	Website    *string  `json:"website,omitempty"`
	Occupation *string  `json:"occupation,omitempty"`
	Company    *string  `json:"company,omitempty"`
	Avatar     *string  `json:"avatar,omitempty"`
	CoverPhoto *string  `json:"coverPhoto,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string  `json:"access_token"`
	User        Profile `json:"user"`
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// SetLike returns likes with userID present (liked) or absent, without
// duplicates. The input slice is not modified.
func SetLike(likes []string, userID string, liked bool) []string {
	out := make([]string, 0, len(likes)+1)
	for _, id := range likes {
		if id != userID {
			out = append(out, id)
		}
	}
	if liked {
		out = append(out, userID)
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	dup := make([]string, len(values))
	copy(dup, values)
	return dup
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z07:00"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
