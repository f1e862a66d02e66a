package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/comments"
	"github.com/five82/flock/internal/compose"
	"github.com/five82/flock/internal/feed"
	"github.com/five82/flock/internal/session"
)

// Operation names, used in status messages and logs.
const (
	opLoadFeed      = "load feed"
	opRefresh       = "refresh feed"
	opLike          = "like post"
	opDeletePost    = "delete post"
	opOpenComments  = "load comments"
	opComment       = "post comment"
	opCommentLike   = "like comment"
	opDeleteComment = "delete comment"
	opOpenCompose   = "open compose"
	opPickImages    = "add images"
	opSaveProfile   = "save profile"
	opSetLocation   = "set location"
)

// optimisticDelay is how long after starting an operation the UI re-reads
// the stores to show its tentative state.
const optimisticDelay = 30 * time.Millisecond

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	session  session.Snapshot
	feed     feed.Snapshot
	comments comments.Snapshot
	compose  compose.Snapshot
}

type opDoneMsg struct {
	op   string
	done string // status text on success
	err  error
}

type authMsg struct {
	register bool
	resumed  bool
	signedIn bool
	email    string
	err      error
}

type signedOutMsg struct{ err error }

type publishedMsg struct {
	editing bool
	post    *api.Post
	err     error
}

type userPostsMsg struct {
	userID string
	posts  []api.Post
	err    error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshotCmd() tea.Cmd {
	sess, posts, thread, composer := m.session, m.feed, m.comments, m.composer
	return func() tea.Msg {
		return takeSnapshot(sess, posts, thread, composer)
	}
}

func takeSnapshot(sess *session.Store, posts *feed.Store, thread *comments.Store, composer *compose.Composer) snapshotMsg {
	var msg snapshotMsg
	if sess != nil {
		msg.session = sess.Snapshot()
	}
	if posts != nil {
		msg.feed = posts.Snapshot()
	}
	if thread != nil {
		msg.comments = thread.Snapshot()
	}
	if composer != nil {
		msg.compose = composer.Snapshot()
	}
	return msg
}

// runOp runs fn off the UI goroutine and reports an opDoneMsg. A snapshot
// shortly after start shows optimistic changes before the backend answers.
func (m Model) runOp(op, done string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	run := func() tea.Msg {
		return opDoneMsg{op: op, done: done, err: fn(ctx)}
	}
	sess, posts, thread, composer := m.session, m.feed, m.comments, m.composer
	peek := tea.Tick(optimisticDelay, func(time.Time) tea.Msg {
		return takeSnapshot(sess, posts, thread, composer)
	})
	return tea.Batch(run, peek)
}

// describeError turns an operation failure into a status line.
func describeError(op string, err error) string {
	var pubErr *compose.PublishError
	switch {
	case errors.Is(err, feed.ErrUnknownPost), errors.Is(err, comments.ErrUnknownComment):
		return "That item is no longer loaded. Refresh and try again."
	case errors.Is(err, comments.ErrEmptyComment):
		return "Comment cannot be empty"
	case errors.Is(err, comments.ErrNoActivePost):
		return "Open a post's comments first"
	case errors.Is(err, compose.ErrEmptyContent):
		return "Write something before publishing"
	case errors.Is(err, compose.ErrBusy):
		return "Already publishing"
	case errors.Is(err, session.ErrMissingCredentials):
		return "Please fill in all fields"
	case errors.As(err, &pubErr):
		return pubErr.Message
	case api.IsNetwork(err):
		return "Network error: could not " + op
	}
	return api.UserMessage(err, "Could not "+op)
}
