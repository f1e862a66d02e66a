package ui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/comments"
	"github.com/five82/flock/internal/feed"
)

// currentUserID is the signed-in user's id, or "" when signed out.
func (m Model) currentUserID() string {
	if m.session == nil {
		return ""
	}
	return m.session.CurrentUserID()
}

// ownedBy reports whether author is the signed-in user.
func (m Model) ownedBy(author api.Author) bool {
	uid := m.currentUserID()
	return uid != "" && author.AuthorID() == uid
}

// syncFeedSelection keeps the selection on the same post across reloads.
func (m *Model) syncFeedSelection() {
	posts := m.feedSnap.Posts
	if len(posts) == 0 {
		m.selectedRow = 0
		m.selectedID = ""
		return
	}
	if m.selectedID != "" {
		for i, p := range posts {
			if p.ID == m.selectedID {
				m.selectedRow = i
				return
			}
		}
	}
	m.selectedRow = min(max(m.selectedRow, 0), len(posts)-1)
	m.selectedID = posts[m.selectedRow].ID
}

// selectedPost returns the highlighted post.
func (m Model) selectedPost() (api.Post, bool) {
	posts := m.feedSnap.Posts
	if m.selectedRow < 0 || m.selectedRow >= len(posts) {
		return api.Post{}, false
	}
	return posts[m.selectedRow], true
}

func (m *Model) selectRow(row int) {
	posts := m.feedSnap.Posts
	if len(posts) == 0 {
		return
	}
	row = min(max(row, 0), len(posts)-1)
	if row == m.selectedRow && m.selectedID == posts[row].ID {
		return
	}
	m.selectedRow = row
	m.selectedID = posts[row].ID
	m.detailViewport.GotoTop()
	m.updateDetailViewport()
}

// handleFeedKey processes keyboard input for the feed view.
func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.runOp(opRefresh, "", m.feed.Refresh)

	case key.Matches(msg, m.keys.NextPage):
		snap := m.feedSnap
		if len(snap.Posts) < snap.Limit {
			m.setStatus("No older posts", false)
			return m, nil
		}
		return m.loadPage(snap.Limit, snap.Offset+snap.Limit)

	case key.Matches(msg, m.keys.PrevPage):
		snap := m.feedSnap
		if snap.Offset == 0 {
			m.setStatus("Already showing the newest posts", false)
			return m, nil
		}
		return m.loadPage(snap.Limit, max(snap.Offset-snap.Limit, 0))

	case key.Matches(msg, m.keys.Up):
		m.selectRow(m.selectedRow - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectRow(m.selectedRow + 1)
	case key.Matches(msg, m.keys.Top):
		m.selectRow(0)
	case key.Matches(msg, m.keys.Bottom):
		m.selectRow(len(m.feedSnap.Posts) - 1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()
	}

	post, ok := m.selectedPost()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Like):
		uid := m.currentUserID()
		return m, m.runOp(opLike, "", func(ctx context.Context) error {
			return m.feed.ToggleLike(ctx, post.ID, uid)
		})

	case key.Matches(msg, m.keys.Comments):
		return m.openComments(post)

	case key.Matches(msg, m.keys.EditPost):
		if !m.ownedBy(post.Author) {
			m.setStatus("You can only edit your own posts", true)
			return m, nil
		}
		return m.openComposeEdit(post)

	case key.Matches(msg, m.keys.DeletePost):
		if !m.ownedBy(post.Author) {
			m.setStatus("You can only delete your own posts", true)
			return m, nil
		}
		m.confirm = &confirmState{
			prompt: fmt.Sprintf("Delete this post?\n\n%s", truncate(firstLine(post.Content), 60)),
			action: m.runOp(opDeletePost, "Post deleted", func(ctx context.Context) error {
				return m.feed.DeletePost(ctx, post.ID)
			}),
		}
	}
	return m, nil
}

func (m Model) loadPage(limit, offset int) (tea.Model, tea.Cmd) {
	m.selectedID = ""
	m.selectedRow = 0
	return m, m.runOp(opLoadFeed, "", func(ctx context.Context) error {
		return m.feed.Load(ctx, limit, offset)
	})
}

// openComments switches to the comment view for post and loads its thread.
func (m Model) openComments(post api.Post) (tea.Model, tea.Cmd) {
	m.currentView = ViewComments
	m.commentRow = 0
	m.commentInput.Reset()
	m.commentInput.Blur()
	m.commentSnap = comments.Snapshot{PostID: post.ID, Loading: true}
	thread, posts := m.comments, m.feed
	return m, m.runOp(opOpenComments, "", func(ctx context.Context) error {
		if err := thread.Open(ctx, post.ID); err != nil {
			return err
		}
		// Best effort: the thread is already loaded.
		if err := posts.RefreshPost(ctx, post.ID); err != nil {
			log.Printf("ui: refresh post %s: %v", post.ID, err)
		}
		return nil
	})
}

// feedPaneWidths splits the width between the post list and the detail
// pane. Narrow terminals stack them, each taking the full width.
func (m Model) feedPaneWidths() (list, detail int) {
	if m.stacked() {
		return m.width, m.width
	}
	if m.width >= LayoutExtraWideWidth {
		list = m.width * 30 / 100
	} else {
		list = m.width * 40 / 100
	}
	return list, m.width - list
}

func (m Model) stacked() bool { return m.width < LayoutCompactWidth }

// feedPaneHeights returns the list and detail box heights.
func (m Model) feedPaneHeights() (list, detail int) {
	h := m.contentHeight()
	if m.stacked() {
		return h / 2, h - h/2
	}
	return h, h
}

// detailSize is the viewport size inside the detail box.
func (m Model) detailSize() (int, int) {
	_, w := m.feedPaneWidths()
	_, h := m.feedPaneHeights()
	return max(w-2, 1), max(h-2, 1)
}

// updateDetailViewport re-renders the selected post into the detail pane.
func (m *Model) updateDetailViewport() {
	w, h := m.detailSize()
	m.detailViewport.Width = w
	m.detailViewport.Height = h
	bgColor := m.paneBg(false)
	m.detailViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(bgColor)).Padding(0, 1)

	post, ok := m.selectedPost()
	if !ok {
		m.detailViewport.SetContent("")
		return
	}
	m.detailViewport.SetContent(m.renderPostDetail(post, max(w-2, 10), bgColor))
}

// renderFeed renders the post list and the detail of the selected post.
func (m Model) renderFeed() string {
	styles := m.theme.Styles()
	snap := m.feedSnap

	if len(snap.Posts) == 0 {
		switch {
		case snap.Loading() || snap.Phase == feed.PhaseIdle:
			return m.renderCentered(m.spinner.View() + " " + styles.MutedText.Render("Loading feed..."))
		case snap.LastError != nil:
			return m.renderCentered(
				styles.DangerText.Render(describeError(opLoadFeed, snap.LastError)) + "\n\n" +
					styles.MutedText.Render("Press r to retry"))
		default:
			return m.renderCentered(styles.MutedText.Render("No posts yet. Press n to write the first one."))
		}
	}

	listWidth, detailWidth := m.feedPaneWidths()
	listHeight, detailHeight := m.feedPaneHeights()

	list := m.renderPostList(listWidth-2, listHeight-2, m.paneBg(true))
	listPane := m.renderTitledBox(m.feedTitle(), list, listWidth, listHeight, true)
	detailPane := m.renderTitledBox("Post", m.detailViewport.View(), detailWidth, detailHeight, false)

	if m.stacked() {
		return lipgloss.JoinVertical(lipgloss.Left, listPane, detailPane)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// feedTitle names the list pane with count, page and refresh state.
func (m Model) feedTitle() string {
	snap := m.feedSnap
	title := fmt.Sprintf("Feed (%d)", len(snap.Posts))
	if snap.Offset > 0 && snap.Limit > 0 {
		title += fmt.Sprintf(" page %d", snap.Offset/snap.Limit+1)
	}
	switch {
	case snap.Refreshing():
		title += " refreshing"
	case snap.Loading():
		title += " loading"
	}
	return title
}

// renderPostList renders one row per post, windowed around the selection.
func (m Model) renderPostList(width, height int, bgColor string) string {
	posts := m.feedSnap.Posts
	start, end := visibleWindow(m.selectedRow, len(posts), height)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == m.selectedRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatPostRow(posts[i], width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatPostRow formats a list row: "♥ 3 ✉ 2 Author · first line".
// Selected rows use SelectionText throughout for contrast.
func (m Model) formatPostRow(post api.Post, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	uid := m.currentUserID()

	heart := "♡"
	if post.LikedBy(uid) {
		heart = "♥"
	}
	counts := fmt.Sprintf("%s %-2d ✉ %-2d", heart, len(post.Likes), post.CommentsCount)
	author := post.Author.DisplayName()

	var countStyle, authorStyle, sepStyle, textStyle lipgloss.Style
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		countStyle, authorStyle, sepStyle, textStyle = selText, selText.Bold(true), selText, selText
	} else {
		styles := m.theme.Styles()
		countStyle = styles.MutedText
		if post.LikedBy(uid) {
			countStyle = styles.LikeText
		}
		authorStyle = styles.AuthorText
		sepStyle = styles.FaintText
		textStyle = styles.Text
	}

	authorPart := truncate(author, 18)
	used := lipgloss.Width(counts) + lipgloss.Width(authorPart) + 5
	text := truncate(firstLine(post.Content), max(width-used, 4))

	return bg.Render(counts, countStyle) + bg.Space() +
		bg.Render(authorPart, authorStyle) +
		bg.Render(" · ", sepStyle) +
		bg.Render(text, textStyle)
}

// renderPostDetail renders the full post for the detail pane.
func (m Model) renderPostDetail(post api.Post, width int, bgColor string) string {
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	uid := m.currentUserID()

	var lines []string
	lines = append(lines, bg.Render(post.Author.DisplayName(), styles.AuthorText))

	meta := []string{}
	if ts := formatPostTime(post.CreatedTime(), m.now); ts != "" {
		meta = append(meta, ts)
	}
	if post.Location != nil {
		meta = append(meta, "at "+post.Location.Label())
	}
	if m.ownedBy(post.Author) {
		meta = append(meta, "your post")
	}
	if len(meta) > 0 {
		lines = append(lines, bg.Render(truncate(strings.Join(meta, " · "), width), styles.MutedText))
	}
	lines = append(lines, "")
	lines = append(lines, styles.Text.Width(width).Render(post.Content))
	lines = append(lines, "")

	if n := len(post.MediaURLs); n > 0 {
		lines = append(lines, bg.Render(fmt.Sprintf("Images (%d)", n), styles.MutedText))
		for i, u := range post.MediaURLs {
			lines = append(lines, bg.Render(fmt.Sprintf("  %d. %s", i+1, truncateMiddle(u, max(width-6, 8))), styles.InfoText))
		}
		lines = append(lines, "")
	}

	likeStyle := styles.MutedText
	heart := "♡"
	if post.LikedBy(uid) {
		likeStyle = styles.LikeText
		heart = "♥"
	}
	lines = append(lines,
		bg.Render(heart+" "+plural(len(post.Likes), "like"), likeStyle)+
			bg.Render("  ·  ", styles.FaintText)+
			bg.Render(plural(post.CommentsCount, "comment"), styles.MutedText))

	return strings.Join(lines, "\n")
}
