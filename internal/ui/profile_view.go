package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flock/internal/api"
)

type profileEdit int

const (
	profileEditNone profileEdit = iota
	profileEditDetails
	profileEditLocation
)

// profileState holds the profile view: a scrollable summary plus an inline
// form for the field group being edited.
type profileState struct {
	editing  profileEdit
	inputs   []textinput.Model
	labels   []string
	focus    int
	viewport viewport.Model
	posts    []api.Post
	loading  bool
	err      error
}

func newProfileState() profileState {
	return profileState{viewport: viewport.New(0, 0)}
}

func (m *Model) resizeProfile() {
	m.profile.viewport.Width = max(m.width-4, 10)
	m.profile.viewport.Height = max(m.contentHeight()-2, 1)
	for i := range m.profile.inputs {
		m.profile.inputs[i].Width = max(m.width-24, 10)
	}
	m.updateProfileViewport()
}

// loadProfileCmd fetches a fresh profile and the user's posts.
func (m *Model) loadProfileCmd() tea.Cmd {
	if m.session == nil || m.posts == nil {
		return nil
	}
	m.profile.loading = true
	sess, posts, ctx := m.session, m.posts, m.ctx
	return func() tea.Msg {
		if _, err := sess.FetchProfile(ctx); err != nil {
			return userPostsMsg{err: err}
		}
		uid := sess.CurrentUserID()
		list, err := posts.FetchUserPosts(ctx, uid)
		return userPostsMsg{userID: uid, posts: list, err: err}
	}
}

func (m *Model) handleUserPosts(msg userPostsMsg) {
	m.profile.loading = false
	m.profile.err = msg.err
	if msg.err == nil {
		m.profile.posts = msg.posts
	}
	if m.session != nil {
		m.sessionSnap = m.session.Snapshot()
	}
	m.updateProfileViewport()
}

// handleProfileKey processes keys in the profile view.
func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.EditProfile):
		return m.startProfileEdit(profileEditDetails)
	case key.Matches(msg, m.keys.SetLocation):
		return m.startProfileEdit(profileEditLocation)
	case key.Matches(msg, m.keys.SignOut):
		sess, ctx := m.session, m.ctx
		m.confirm = &confirmState{
			prompt: "Sign out of flock?",
			action: func() tea.Msg {
				return signedOutMsg{err: sess.Logout(ctx)}
			},
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadProfileCmd()
	case key.Matches(msg, m.keys.Up):
		m.profile.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.profile.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.profile.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.profile.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.Top):
		m.profile.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.profile.viewport.GotoBottom()
	}
	return m, nil
}

func newFormInput(value, placeholder string, width int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.SetValue(value)
	in.Width = width
	return in
}

// startProfileEdit seeds the form for the chosen field group.
func (m Model) startProfileEdit(mode profileEdit) (tea.Model, tea.Cmd) {
	p := m.sessionSnap.User
	if p == nil {
		return m, nil
	}
	width := max(m.width-24, 10)
	switch mode {
	case profileEditDetails:
		m.profile.labels = []string{"Name", "Bio", "Website", "Occupation", "Company"}
		m.profile.inputs = []textinput.Model{
			newFormInput(p.Name, "Your name", width),
			newFormInput(p.Bio, "A few words about you", width),
			newFormInput(p.Website, "https://", width),
			newFormInput(p.Occupation, "", width),
			newFormInput(p.Company, "", width),
		}
	case profileEditLocation:
		lat, lon := "", ""
		if p.Location != nil {
			lat = strconv.FormatFloat(p.Location.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(p.Location.Longitude, 'f', -1, 64)
		}
		m.profile.labels = []string{"Latitude", "Longitude"}
		m.profile.inputs = []textinput.Model{
			newFormInput(lat, "-90 to 90", width),
			newFormInput(lon, "-180 to 180", width),
		}
	}
	m.profile.editing = mode
	m.profile.focus = 0
	return m, m.profile.inputs[0].Focus()
}

func (m *Model) focusProfileInput(i int) tea.Cmd {
	n := len(m.profile.inputs)
	m.profile.inputs[m.profile.focus].Blur()
	m.profile.focus = (i + n) % n
	return m.profile.inputs[m.profile.focus].Focus()
}

// handleProfileEditKey drives the inline profile form.
func (m Model) handleProfileEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.profile.editing = profileEditNone
		m.profile.inputs = nil
		return m, nil
	case "tab", "down":
		return m, m.focusProfileInput(m.profile.focus + 1)
	case "shift+tab", "up":
		return m, m.focusProfileInput(m.profile.focus - 1)
	case "enter":
		if m.profile.focus < len(m.profile.inputs)-1 {
			return m, m.focusProfileInput(m.profile.focus + 1)
		}
		return m.submitProfileEdit()
	}

	var cmd tea.Cmd
	m.profile.inputs[m.profile.focus], cmd = m.profile.inputs[m.profile.focus].Update(msg)
	return m, cmd
}

func (m Model) submitProfileEdit() (tea.Model, tea.Cmd) {
	values := make([]string, len(m.profile.inputs))
	for i, in := range m.profile.inputs {
		values[i] = strings.TrimSpace(in.Value())
	}
	sess := m.session

	switch m.profile.editing {
	case profileEditDetails:
		if values[0] == "" {
			m.setStatus("Name cannot be empty", true)
			return m, nil
		}
		patch := api.ProfileUpdate{
			Name:       &values[0],
			Bio:        &values[1],
			Website:    &values[2],
			Occupation: &values[3],
			Company:    &values[4],
		}
		m.profile.editing = profileEditNone
		m.profile.inputs = nil
		return m, m.runOp(opSaveProfile, "Profile saved", func(ctx context.Context) error {
			return sess.UpdateProfile(ctx, patch)
		})

	case profileEditLocation:
		lat, err1 := strconv.ParseFloat(values[0], 64)
		lon, err2 := strconv.ParseFloat(values[1], 64)
		if err1 != nil || err2 != nil {
			m.setStatus("Latitude and longitude must be numbers", true)
			return m, nil
		}
		m.profile.editing = profileEditNone
		m.profile.inputs = nil
		return m, m.runOp(opSetLocation, "Location updated", func(ctx context.Context) error {
			_, err := sess.SetLocation(ctx, lat, lon)
			return err
		})
	}
	return m, nil
}

// updateProfileViewport re-renders the profile summary.
func (m *Model) updateProfileViewport() {
	vp := &m.profile.viewport
	if vp.Width <= 0 {
		return
	}
	bgColor := m.paneBg(true)
	vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	vp.SetContent(m.renderProfileBody(vp.Width-2, bgColor))
}

func (m Model) renderProfileBody(width int, bgColor string) string {
	p := m.sessionSnap.User
	if p == nil {
		return ""
	}
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	var lines []string
	name := p.Name
	if p.IsOnline {
		name += " ●"
	}
	lines = append(lines, bg.Render(name, styles.AuthorText), bg.Render(p.Email, styles.MutedText), "")
	if p.Bio != "" {
		lines = append(lines, styles.Text.Width(width).Render(p.Bio), "")
	}

	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, bg.Render(padRight(label, 12), styles.MutedText)+bg.Render(truncate(value, max(width-12, 8)), styles.Text))
	}
	field("Occupation", p.Occupation)
	field("Company", p.Company)
	field("Website", p.Website)
	field("Phone", p.Phone)
	if len(p.Interests) > 0 {
		field("Interests", strings.Join(p.Interests, ", "))
	}
	if p.SocialMedia != nil {
		field("Twitter", p.SocialMedia.Twitter)
		field("Instagram", p.SocialMedia.Instagram)
		field("Facebook", p.SocialMedia.Facebook)
		field("LinkedIn", p.SocialMedia.LinkedIn)
	}
	if p.Location != nil {
		field("Location", p.Location.Label())
	} else {
		lines = append(lines, bg.Render(padRight("Location", 12), styles.MutedText)+bg.Render("not set (L to set)", styles.FaintText))
	}
	lines = append(lines, "")

	switch {
	case m.profile.loading && len(m.profile.posts) == 0:
		lines = append(lines, bg.Render("Loading your posts...", styles.MutedText))
	case m.profile.err != nil:
		lines = append(lines, bg.Render(describeError("load your posts", m.profile.err), styles.DangerText))
	default:
		lines = append(lines, bg.Render(fmt.Sprintf("Your posts (%d)", len(m.profile.posts)), styles.AccentText))
		for _, post := range m.profile.posts {
			meta := fmt.Sprintf("%-8s ♥ %-3d ✉ %-3d ", formatPostTime(post.CreatedTime(), m.now), len(post.Likes), post.CommentsCount)
			text := truncate(firstLine(post.Content), max(width-lipgloss.Width(meta), 8))
			lines = append(lines, bg.Render(meta, styles.FaintText)+bg.Render(text, styles.Text))
		}
	}
	return strings.Join(lines, "\n")
}

// renderProfile renders the profile view, or the edit form when active.
func (m Model) renderProfile() string {
	if m.profile.editing == profileEditNone {
		return m.renderTitledBox("Profile", m.profile.viewport.View(), m.width, m.contentHeight(), true)
	}

	bgColor := m.paneBg(true)
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	title := "Edit profile"
	if m.profile.editing == profileEditLocation {
		title = "Set location"
	}
	var lines []string
	for i, in := range m.profile.inputs {
		labelStyle := styles.MutedText
		if i == m.profile.focus {
			labelStyle = styles.AccentText
		}
		lines = append(lines, bg.Render(padRight(m.profile.labels[i], 12), labelStyle)+in.View())
	}
	lines = append(lines, "", bg.Render("enter next/save · tab move · esc cancel", styles.FaintText))
	if m.profile.editing == profileEditLocation {
		lines = append(lines, bg.Render("The address is looked up from the coordinates.", styles.FaintText))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}
