package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FetchFeed retrieves a page of the newest posts.
func (c *Client) FetchFeed(ctx context.Context, limit, offset int) ([]Post, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	values.Set("skip", strconv.Itoa(max(offset, 0)))
	rel := &url.URL{Path: "/posts/feed", RawQuery: values.Encode()}
	var payload []Post
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchPost retrieves a single post.
func (c *Client) FetchPost(ctx context.Context, id string) (*Post, error) {
	if err := requireID(c, id, "post id"); err != nil {
		return nil, err
	}
	var payload Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchUserPosts retrieves the posts written by userID.
func (c *Client) FetchUserPosts(ctx context.Context, userID string) ([]Post, error) {
	if err := requireID(c, userID, "user id"); err != nil {
		return nil, err
	}
	var payload []Post
	if err := c.do(ctx, http.MethodGet, "/posts/user/"+url.PathEscape(userID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(ctx context.Context, payload PostPayload) (*Post, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var created Post
	if err := c.do(ctx, http.MethodPost, "/posts", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePost replaces the editable fields of an existing post.
func (c *Client) UpdatePost(ctx context.Context, id string, payload PostPayload) (*Post, error) {
	if err := requireID(c, id, "post id"); err != nil {
		return nil, err
	}
	var updated Post
	if err := c.do(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePost soft-deletes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := requireID(c, id, "post id"); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

// TogglePostLike flips the caller's like on a post.
func (c *Client) TogglePostLike(ctx context.Context, id string) error {
	if err := requireID(c, id, "post id"); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(id)+"/like", struct{}{}, nil)
}

// FetchComments retrieves the comments of a post, newest first.
func (c *Client) FetchComments(ctx context.Context, postID string) ([]Comment, error) {
	if err := requireID(c, postID, "post id"); err != nil {
		return nil, err
	}
	var payload []Comment
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID string, payload CommentPayload) (*Comment, error) {
	if err := requireID(c, postID, "post id"); err != nil {
		return nil, err
	}
	var created Comment
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteComment soft-deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	if err := requireID(c, id, "comment id"); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/posts/comments/"+url.PathEscape(id), nil, nil)
}

// ToggleCommentLike flips the caller's like on a comment.
func (c *Client) ToggleCommentLike(ctx context.Context, id string) error {
	if err := requireID(c, id, "comment id"); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/posts/comments/"+url.PathEscape(id)+"/like", struct{}{}, nil)
}

func requireID(c *Client, id, what string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s required", what)
	}
	return nil
}
