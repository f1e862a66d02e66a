package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flock/internal/api"
)

// clampCommentRow keeps the comment cursor inside the loaded list.
func (m *Model) clampCommentRow() {
	n := len(m.commentSnap.Comments)
	if n == 0 {
		m.commentRow = 0
		return
	}
	m.commentRow = min(max(m.commentRow, 0), n-1)
}

func (m Model) selectedComment() (api.Comment, bool) {
	list := m.commentSnap.Comments
	if m.commentRow < 0 || m.commentRow >= len(list) {
		return api.Comment{}, false
	}
	return list[m.commentRow], true
}

// handleCommentsKey processes keys in the comment view while the input is
// not focused.
func (m Model) handleCommentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.commentRow--
		m.clampCommentRow()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.commentRow++
		m.clampCommentRow()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.commentRow = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.commentRow = len(m.commentSnap.Comments) - 1
		m.clampCommentRow()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.runOp(opOpenComments, "", m.comments.Reload)

	case key.Matches(msg, m.keys.Reply):
		m.commentInput.SetValue(m.commentSnap.Text)
		m.commentInput.CursorEnd()
		return m, m.commentInput.Focus()
	}

	comment, ok := m.selectedComment()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Like):
		uid := m.currentUserID()
		return m, m.runOp(opCommentLike, "", func(ctx context.Context) error {
			return m.comments.ToggleLike(ctx, comment.ID, uid)
		})

	case key.Matches(msg, m.keys.DeleteComment):
		if !m.ownedBy(comment.Author) {
			m.setStatus("You can only delete your own comments", true)
			return m, nil
		}
		posts := m.feed
		m.confirm = &confirmState{
			prompt: fmt.Sprintf("Delete this comment?\n\n%s", truncate(firstLine(comment.Content), 60)),
			action: m.runOp(opDeleteComment, "Comment deleted", func(ctx context.Context) error {
				return m.comments.Delete(ctx, comment.ID, func(postID string) {
					posts.AdjustCommentCount(postID, -1)
				})
			}),
		}
	}
	return m, nil
}

// handleCommentInputKey edits and submits the focused comment input.
func (m Model) handleCommentInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commentInput.Blur()
		return m, nil

	case tea.KeyEnter:
		if strings.TrimSpace(m.commentInput.Value()) == "" {
			m.setStatus("Comment cannot be empty", true)
			return m, nil
		}
		m.comments.SetText(m.commentInput.Value())
		m.commentInput.Reset()
		m.commentRow = 0
		posts := m.feed
		return m, m.runOp(opComment, "Comment posted", func(ctx context.Context) error {
			return m.comments.Create(ctx, func(postID string) {
				posts.AdjustCommentCount(postID, 1)
			})
		})
	}

	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	m.comments.SetText(m.commentInput.Value())
	return m, cmd
}

// renderComments renders the open post, its comments and the input line.
func (m Model) renderComments() string {
	styles := m.theme.Styles()
	snap := m.commentSnap
	height := m.contentHeight()

	post, hasPost := m.feedSnap.Post(snap.PostID)
	title := "Comments"
	if hasPost {
		title = fmt.Sprintf("Comments on %s's post", post.Author.DisplayName())
	}

	inner := max(m.width-4, 10)
	bgColor := m.paneBg(true)
	bg := NewBgStyle(bgColor)
	themed := styles.WithBackground(bgColor)

	var header []string
	if hasPost {
		header = append(header, bg.Render(truncate(firstLine(post.Content), inner), themed.Text))
		header = append(header, bg.Render(strings.Repeat("─", inner), themed.FaintText))
	}

	inputLine := m.commentInput.View()
	if !m.commentInput.Focused() {
		hint := "Press i to write a comment"
		if snap.Submitting {
			hint = m.spinner.View() + " Posting comment..."
		}
		inputLine = bg.Render(hint, themed.MutedText)
	}

	bodyHeight := max(height-2-len(header)-2, 1)
	var body string
	switch {
	case snap.Loading && len(snap.Comments) == 0:
		body = bg.Render(m.spinner.View()+" Loading comments...", themed.MutedText)
	case snap.LastError != nil && len(snap.Comments) == 0:
		body = bg.Render(describeError(opOpenComments, snap.LastError), themed.DangerText) + "\n" +
			bg.Render("Press r to retry", themed.MutedText)
	case snap.Empty():
		body = bg.Render("No comments yet. Be the first.", themed.MutedText)
	default:
		body = m.renderCommentList(inner, bodyHeight, bgColor)
	}

	content := strings.Join(header, "\n")
	if content != "" {
		content += "\n"
	}
	content += lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	content += "\n\n" + inputLine

	return m.renderTitledBox(title, content, m.width, height, true)
}

// renderCommentList renders comment blocks, windowed to keep the selection
// visible. Each block is a header line plus wrapped content.
func (m Model) renderCommentList(width, height int, bgColor string) string {
	list := m.commentSnap.Comments
	if len(list) == 0 {
		return ""
	}
	uid := m.currentUserID()
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	blocks := make([][]string, len(list))
	for i, c := range list {
		indent := ""
		if c.ParentCommentID != "" {
			indent = "  ↳ "
		}
		heart := "♡"
		likeStyle := styles.MutedText
		if c.LikedBy(uid) {
			heart = "♥"
			likeStyle = styles.LikeText
		}
		marker := "  "
		if i == m.commentRow {
			marker = "▸ "
		}
		head := bg.Render(marker+indent, styles.AccentText) +
			bg.Render(c.Author.DisplayName(), styles.AuthorText) +
			bg.Render(" · "+formatPostTime(c.CreatedTime(), m.now)+" · ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%s %d", heart, len(c.Likes)), likeStyle)
		textWidth := max(width-lipgloss.Width(marker+indent), 10)
		text := styles.Text.Width(textWidth).Render(c.Content)
		pad := bg.Spaces(lipgloss.Width(marker + indent))
		lines := []string{head}
		for _, l := range strings.Split(text, "\n") {
			lines = append(lines, pad+l)
		}
		blocks[i] = lines
	}

	// Walk back from the selection until the window is full.
	start := m.commentRow
	used := len(blocks[start])
	for start > 0 && used+len(blocks[start-1]) <= height {
		start--
		used += len(blocks[start])
	}
	var out []string
	for i := start; i < len(blocks); i++ {
		if len(out)+len(blocks[i]) > height && len(out) > 0 {
			break
		}
		out = append(out, blocks[i]...)
	}
	if len(out) > height {
		out = out[:height]
	}
	return strings.Join(out, "\n")
}
