package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/compose"
)

// editorState holds the compose widgets. The draft itself lives in the
// composer; the textarea mirrors its content.
type editorState struct {
	textarea  textarea.Model
	pathInput textinput.Model
	prompting bool
}

func newEditorState() editorState {
	ta := textarea.New()
	ta.Placeholder = "What's happening?"
	ta.CharLimit = 5000
	ta.ShowLineNumbers = false

	pi := textinput.New()
	pi.Placeholder = "~/Pictures/cat.jpg, ~/Pictures/trip/"
	pi.Prompt = "Images: "

	return editorState{textarea: ta, pathInput: pi}
}

// resizeEditor fits the textarea into the compose box.
func (m *Model) resizeEditor() {
	w := max(m.width-6, 10)
	m.editor.textarea.SetWidth(w)
	m.editor.textarea.SetHeight(max(m.contentHeight()-12, 3))
	m.editor.pathInput.Width = max(w-len(m.editor.pathInput.Prompt), 10)
}

// openComposeCreate opens an empty draft. The composer looks up the default
// location in the background.
func (m Model) openComposeCreate() (tea.Model, tea.Cmd) {
	m.currentView = ViewCompose
	m.editor.prompting = false
	m.editor.pathInput.Reset()
	m.editor.textarea.Reset()
	m.composeSnap = compose.Snapshot{Open: true}
	focus := m.editor.textarea.Focus()
	return m, tea.Batch(focus, m.runOp(opOpenCompose, "", func(ctx context.Context) error {
		m.composer.OpenForCreate(ctx)
		return nil
	}))
}

// openComposeEdit opens a draft seeded from post.
func (m Model) openComposeEdit(post api.Post) (tea.Model, tea.Cmd) {
	m.composer.OpenForEdit(post)
	m.composeSnap = m.composer.Snapshot()
	m.currentView = ViewCompose
	m.editor.prompting = false
	m.editor.pathInput.Reset()
	m.editor.textarea.Reset()
	m.editor.textarea.SetValue(post.Content)
	return m, m.editor.textarea.Focus()
}

// closeCompose discards the draft and returns to the feed.
func (m Model) closeCompose() (tea.Model, tea.Cmd) {
	m.composer.Close()
	m.editor.textarea.Blur()
	m.editor.pathInput.Blur()
	m.editor.prompting = false
	m.currentView = ViewFeed
	return m, m.fetchSnapshotCmd()
}

// handleComposeKey processes keys while composing.
func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor.prompting {
		return m.handleImagePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		if m.composeSnap.Submitting {
			m.setStatus("Publishing, please wait", false)
			return m, nil
		}
		return m.closeCompose()

	case key.Matches(msg, m.keys.Submit):
		return m.submitCompose()

	case key.Matches(msg, m.keys.PickImages):
		if !m.composeSnap.CanAddImages() {
			m.setStatus(fmt.Sprintf("A post can have at most %d images", compose.MaxImages), true)
			return m, nil
		}
		m.editor.prompting = true
		m.editor.textarea.Blur()
		return m, m.editor.pathInput.Focus()

	case key.Matches(msg, m.keys.RemoveImage):
		if n := len(m.composeSnap.Draft.Images); n > 0 {
			m.composer.RemoveImage(n - 1)
			m.composeSnap = m.composer.Snapshot()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleLocate):
		if m.composeSnap.Draft.Location != nil {
			m.composer.ClearLocation()
		} else if profile := m.session.CachedProfile(); profile != nil && profile.Location != nil {
			m.composer.SetLocation(*profile.Location)
		} else {
			m.setStatus("No saved location. Set one from your profile with L", true)
		}
		m.composeSnap = m.composer.Snapshot()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor.textarea, cmd = m.editor.textarea.Update(msg)
	m.composer.SetContent(m.editor.textarea.Value())
	m.composeSnap.Draft.Content = m.editor.textarea.Value()
	return m, cmd
}

// handleImagePromptKey edits the image path prompt.
func (m Model) handleImagePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editor.prompting = false
		m.editor.pathInput.Blur()
		m.editor.pathInput.Reset()
		return m, m.editor.textarea.Focus()

	case tea.KeyEnter:
		input := strings.TrimSpace(m.editor.pathInput.Value())
		m.editor.prompting = false
		m.editor.pathInput.Blur()
		m.editor.pathInput.Reset()
		focus := m.editor.textarea.Focus()
		if input == "" {
			return m, focus
		}
		picker := compose.PathPicker{Input: input}
		return m, tea.Batch(focus, m.runOp(opPickImages, "", func(ctx context.Context) error {
			return m.composer.PickImages(ctx, picker)
		}))
	}

	var cmd tea.Cmd
	m.editor.pathInput, cmd = m.editor.pathInput.Update(msg)
	return m, cmd
}

// submitCompose publishes the draft off the UI goroutine.
func (m Model) submitCompose() (tea.Model, tea.Cmd) {
	if m.composeSnap.Submitting {
		return m, nil
	}
	if strings.TrimSpace(m.editor.textarea.Value()) == "" {
		m.setStatus(describeError("publish post", compose.ErrEmptyContent), true)
		return m, nil
	}
	m.composer.SetContent(m.editor.textarea.Value())
	m.composeSnap.Submitting = true

	composer := m.composer
	ctx := m.ctx
	editing := m.composeSnap.Editing()
	return m, func() tea.Msg {
		post, err := composer.Submit(ctx)
		return publishedMsg{editing: editing, post: post, err: err}
	}
}

// handlePublished reacts to a finished submit. On failure the draft stays
// open for another try.
func (m Model) handlePublished(msg publishedMsg) (tea.Model, tea.Cmd) {
	m.composeSnap = m.composer.Snapshot()
	if msg.err != nil {
		m.setStatus(describeError("publish post", msg.err), true)
		return m, nil
	}

	if msg.editing {
		m.setStatus("Post updated", false)
	} else {
		m.setStatus("Post published", false)
	}
	if msg.post != nil {
		m.selectedID = msg.post.ID
	}
	m.editor.textarea.Reset()
	m.editor.textarea.Blur()
	m.currentView = ViewFeed
	return m, m.fetchSnapshotCmd()
}

// renderCompose renders the draft editor.
func (m Model) renderCompose() string {
	snap := m.composeSnap
	bgColor := m.paneBg(true)
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	inner := max(m.width-4, 10)

	title := "New post"
	if snap.Editing() {
		title = "Edit post"
	}

	var lines []string
	lines = append(lines, m.editor.textarea.View(), "")

	imgHeader := fmt.Sprintf("Images %d/%d", len(snap.Draft.Images), compose.MaxImages)
	lines = append(lines, bg.Render(imgHeader, styles.MutedText))
	if len(snap.Draft.Images) == 0 {
		lines = append(lines, bg.Render("  none (ctrl+o to add)", styles.FaintText))
	}
	for i, ref := range snap.Draft.Images {
		kind := "local"
		if api.IsRemoteURL(ref) {
			kind = "uploaded"
		}
		lines = append(lines, bg.Render(fmt.Sprintf("  %d. %s", i+1, truncateMiddle(ref, max(inner-16, 8))), styles.InfoText)+
			bg.Render(" ("+kind+")", styles.FaintText))
	}
	lines = append(lines, "")

	loc := "none (ctrl+l to attach your saved location)"
	locStyle := styles.FaintText
	if snap.Draft.Location != nil {
		loc = truncate(snap.Draft.Location.Label(), max(inner-10, 8))
		locStyle = styles.Text
	}
	lines = append(lines, bg.Render("Location", styles.MutedText)+bg.Space()+bg.Render(loc, locStyle))
	lines = append(lines, "")

	switch {
	case m.editor.prompting:
		lines = append(lines, m.editor.pathInput.View())
	case snap.Submitting:
		lines = append(lines, bg.Render(m.spinner.View()+" Publishing...", styles.AccentText))
	case snap.LastError != nil:
		lines = append(lines, bg.Render(describeError("publish post", snap.LastError), styles.DangerText))
	default:
		lines = append(lines, bg.Render("ctrl+s publish · ctrl+o add images · ctrl+r remove last image · esc discard", styles.FaintText))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return m.renderTitledBox(title, content, m.width, m.contentHeight(), true)
}
