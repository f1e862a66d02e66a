package ui

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/comments"
	"github.com/five82/flock/internal/compose"
	"github.com/five82/flock/internal/config"
	"github.com/five82/flock/internal/feed"
	"github.com/five82/flock/internal/prefs"
	"github.com/five82/flock/internal/session"
)

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewComments
	ViewCompose
	ViewProfile
	ViewActivity
)

// String returns the view's display name.
func (v View) String() string {
	switch v {
	case ViewComments:
		return "Comments"
	case ViewCompose:
		return "Compose"
	case ViewProfile:
		return "Profile"
	case ViewActivity:
		return "Activity"
	default:
		return "Feed"
	}
}

// tabOrder is the tab cycle. Comments and compose are entered from the feed.
var tabOrder = []View{ViewFeed, ViewProfile, ViewActivity}

// PostLister fetches one author's posts for the profile view.
type PostLister interface {
	FetchUserPosts(ctx context.Context, userID string) ([]api.Post, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   *session.Store
	Feed      *feed.Store
	Comments  *comments.Store
	Composer  *compose.Composer
	Posts     PostLister
	Config    *config.Config
	PollTick  time.Duration
	ThemeName string
	LastEmail string
	PrefsPath string
}

// statusLine is a transient message shown in the header.
type statusLine struct {
	text  string
	isErr bool
	at    time.Time
}

// confirmState is a pending yes/no question. action runs on "y".
type confirmState struct {
	prompt string
	action tea.Cmd
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	session   *session.Store
	feed      *feed.Store
	comments  *comments.Store
	composer  *compose.Composer
	posts     PostLister
	config    *config.Config
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	confirm     *confirmState
	status      statusLine
	spinner     spinner.Model
	now         time.Time
	lastEmail   string

	// Data state
	sessionSnap session.Snapshot
	feedSnap    feed.Snapshot
	commentSnap comments.Snapshot
	composeSnap compose.Snapshot
	lastUpdated time.Time

	// Feed state
	selectedRow    int
	selectedID     string
	detailViewport viewport.Model

	// Comments state
	commentRow   int
	commentInput textinput.Model

	login    loginState
	editor   editorState
	profile  profileState
	activity activityState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	ci := textinput.New()
	ci.Placeholder = "Write a comment..."
	ci.CharLimit = 1000
	ci.Prompt = "› "

	m := Model{
		ctx:          ctx,
		session:      opts.Session,
		feed:         opts.Feed,
		comments:     opts.Comments,
		composer:     opts.Composer,
		posts:        opts.Posts,
		config:       opts.Config,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(opts.ThemeName),
		currentView:  ViewFeed,
		spinner:      spin,
		now:          time.Now(),
		lastEmail:    opts.LastEmail,
		commentInput: ci,
		editor:       newEditorState(),
		profile:      newProfileState(),
		activity:     newActivityState(),
	}
	m.login = newLoginState(opts.LastEmail)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		m.fetchSnapshotCmd(),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		return m.applySnapshot(msg)

	case opDoneMsg:
		return m.handleOpDone(msg)

	case authMsg:
		return m.handleAuth(msg)

	case signedOutMsg:
		if msg.err != nil {
			log.Printf("ui: sign out: %v", msg.err)
		}
		m.setStatus("Signed out", false)
		return m, m.fetchSnapshotCmd()

	case publishedMsg:
		return m.handlePublished(msg)

	case userPostsMsg:
		m.handleUserPosts(msg)
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blinks and other component messages go to whatever has focus.
	return m.updateFocused(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.confirm != nil {
		return m.renderConfirm()
	}
	if !m.sessionSnap.SignedIn() {
		return m.renderLogin()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.confirm != nil {
		pending := m.confirm
		m.confirm = nil
		if key.Matches(msg, m.keys.Yes) {
			return m, pending.action
		}
		m.setStatus("Cancelled", false)
		return m, nil
	}

	if !m.sessionSnap.SignedIn() {
		return m.handleLoginKey(msg)
	}

	// Views with a focused text field take every other key.
	switch {
	case m.currentView == ViewCompose:
		return m.handleComposeKey(msg)
	case m.currentView == ViewComments && m.commentInput.Focused():
		return m.handleCommentInputKey(msg)
	case m.currentView == ViewProfile && m.profile.editing != profileEditNone:
		return m.handleProfileEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateDetailViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.cycleView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.cycleView(-1))

	case key.Matches(msg, m.keys.ViewProfile):
		return m.switchView(ViewProfile)

	case key.Matches(msg, m.keys.ViewActivity):
		return m.switchView(ViewActivity)

	case key.Matches(msg, m.keys.NewPost):
		return m.openComposeCreate()

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewComments {
			m.comments.Close()
		}
		return m.switchView(ViewFeed)
	}

	switch m.currentView {
	case ViewFeed:
		return m.handleFeedKey(msg)
	case ViewComments:
		return m.handleCommentsKey(msg)
	case ViewProfile:
		return m.handleProfileKey(msg)
	case ViewActivity:
		return m.handleActivityKey(msg)
	}
	return m, nil
}

// cycleView returns the view dir steps away in the tab order. Views outside
// the cycle count as the feed.
func (m Model) cycleView(dir int) View {
	idx := 0
	for i, v := range tabOrder {
		if v == m.currentView {
			idx = i
		}
	}
	idx = (idx + dir + len(tabOrder)) % len(tabOrder)
	return tabOrder[idx]
}

// switchView changes the active view and starts whatever load it needs.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if m.currentView == ViewComments && v != ViewComments {
		m.commentInput.Blur()
	}
	m.currentView = v
	switch v {
	case ViewProfile:
		return m, m.loadProfileCmd()
	case ViewActivity:
		m.activity.follow = true
		return m, m.readLogCmd()
	}
	return m, nil
}

// updateFocused forwards non-key messages to the focused input component.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case !m.sessionSnap.SignedIn():
		m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	case m.currentView == ViewCompose && m.editor.prompting:
		m.editor.pathInput, cmd = m.editor.pathInput.Update(msg)
	case m.currentView == ViewCompose:
		m.editor.textarea, cmd = m.editor.textarea.Update(msg)
	case m.currentView == ViewComments:
		m.commentInput, cmd = m.commentInput.Update(msg)
	case m.currentView == ViewProfile && m.profile.editing != profileEditNone:
		m.profile.inputs[m.profile.focus], cmd = m.profile.inputs[m.profile.focus].Update(msg)
	}
	return m, cmd
}

// handleTick processes the UI refresh tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	if !m.status.at.IsZero() && now.Sub(m.status.at) > StatusTTL {
		m.status = statusLine{}
	}

	cmds := []tea.Cmd{m.fetchSnapshotCmd(), tickCmd(m.pollTick)}
	if m.currentView == ViewActivity && now.Sub(m.activity.lastRead) >= ActivityRefreshInterval {
		cmds = append(cmds, m.readLogCmd())
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot stores fresh store snapshots and reacts to sign-in changes.
func (m Model) applySnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	wasSignedIn := m.sessionSnap.SignedIn()
	m.sessionSnap = msg.session
	m.feedSnap = msg.feed
	m.commentSnap = msg.comments
	m.composeSnap = msg.compose
	if !msg.feed.LastUpdated.IsZero() {
		m.lastUpdated = msg.feed.LastUpdated
	}

	m.syncFeedSelection()
	m.updateDetailViewport()
	m.clampCommentRow()
	m.updateProfileViewport()

	signedIn := m.sessionSnap.SignedIn()
	switch {
	case signedIn && !wasSignedIn:
		m.currentView = ViewFeed
		m.login = newLoginState(m.lastEmail)
		return m, m.runOp(opLoadFeed, "", func(ctx context.Context) error {
			return m.feed.Load(ctx, 0, 0)
		})
	case !signedIn && wasSignedIn:
		if m.comments != nil {
			m.comments.Close()
		}
		if m.composer != nil {
			m.composer.Close()
		}
		m.currentView = ViewFeed
		m.selectedID = ""
		m.selectedRow = 0
		m.profile = newProfileState()
		m.login = newLoginState(m.lastEmail)
		if err := m.sessionSnap.LastError; err != nil {
			m.login.err = api.UserMessage(err, "Your session has ended. Sign in again.")
		}
	}
	return m, nil
}

// handleOpDone reports the result of a background store operation.
func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		log.Printf("ui: %s failed: %v", msg.op, msg.err)
		m.setStatus(describeError(msg.op, msg.err), true)
	case msg.done != "":
		m.setStatus(msg.done, false)
	}

	if msg.op == opComment && msg.err != nil && strings.TrimSpace(m.commentInput.Value()) == "" {
		m.commentInput.SetValue(m.comments.Snapshot().Text)
	}
	return m, m.fetchSnapshotCmd()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = statusLine{text: text, isErr: isErr, at: time.Now()}
}

// savePrefs persists theme and last sign-in email.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, LastEmail: m.lastEmail}); err != nil {
		log.Printf("ui: save prefs: %v", err)
	}
}

// resize propagates terminal dimensions to sized components.
func (m *Model) resize() {
	m.detailViewport.Width, m.detailViewport.Height = m.detailSize()
	m.updateDetailViewport()
	m.resizeEditor()
	m.resizeProfile()
	m.resizeActivity()
	m.commentInput.Width = max(m.width-8, 10)
}

// contentHeight is the space below header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewComments:
		return m.renderComments()
	case ViewCompose:
		return m.renderCompose()
	case ViewProfile:
		return m.renderProfile()
	case ViewActivity:
		return m.renderActivity()
	default:
		return m.renderFeed()
	}
}

// renderCentered places msg in the middle of the content area.
func (m Model) renderCentered(msg string) string {
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, msg)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
