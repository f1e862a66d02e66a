package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flock/internal/logtail"
)

// activityState holds the tail of the client log.
type activityState struct {
	viewport viewport.Model
	lines    []string
	entries  []logtail.Entry
	minLevel logtail.Level
	follow   bool
	lastRead time.Time
	err      error
}

func newActivityState() activityState {
	return activityState{viewport: viewport.New(0, 0), follow: true}
}

func (m *Model) resizeActivity() {
	m.activity.viewport.Width = max(m.width-4, 10)
	m.activity.viewport.Height = max(m.contentHeight()-2, 1)
	m.refreshActivityViewport()
}

// readLogCmd reads the tail of the log file off the UI goroutine.
func (m *Model) readLogCmd() tea.Cmd {
	if m.config == nil {
		return nil
	}
	m.activity.lastRead = time.Now()
	path := m.config.LogPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, ActivityLineLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.activity.err = msg.err
	if msg.err != nil {
		return
	}
	m.activity.lines = msg.lines
	m.activity.entries = logtail.Filter(msg.lines, m.activity.minLevel)
	m.refreshActivityViewport()
}

// handleActivityKey processes keys in the activity view.
func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.activity.viewport
	switch {
	case key.Matches(msg, m.keys.CycleLevel):
		m.activity.minLevel = (m.activity.minLevel + 1) % (logtail.LevelError + 1)
		m.activity.entries = logtail.Filter(m.activity.lines, m.activity.minLevel)
		m.refreshActivityViewport()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.readLogCmd()
	case key.Matches(msg, m.keys.Up):
		m.activity.follow = false
		vp.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
		m.activity.follow = vp.AtBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.activity.follow = false
		vp.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
		m.activity.follow = vp.AtBottom()
	case key.Matches(msg, m.keys.Top):
		m.activity.follow = false
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.activity.follow = true
		vp.GotoBottom()
	}
	return m, nil
}

func (m *Model) refreshActivityViewport() {
	vp := &m.activity.viewport
	if vp.Width <= 0 {
		return
	}
	bgColor := m.paneBg(true)
	vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(bgColor))

	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	lines := make([]string, 0, len(m.activity.entries))
	for _, e := range m.activity.entries {
		lines = append(lines, m.formatLogEntry(e, vp.Width, bg, styles))
	}
	vp.SetContent(strings.Join(lines, "\n"))
	if m.activity.follow {
		vp.GotoBottom()
	}
}

// formatLogEntry renders "15:04:05 WARN  feed  message".
func (m Model) formatLogEntry(e logtail.Entry, width int, bg BgStyle, styles Styles) string {
	levelStyle := styles.MutedText
	switch e.Level {
	case logtail.LevelWarn:
		levelStyle = styles.WarningText
	case logtail.LevelError:
		levelStyle = styles.DangerText
	}
	ts := "        "
	if !e.Time.IsZero() {
		ts = e.Time.Format("15:04:05")
	}
	head := bg.Render(ts, styles.FaintText) + bg.Space() +
		bg.Render(padRight(e.Level.String(), 5), levelStyle) + bg.Space()
	if e.Source != "" {
		head += bg.Render(padRight(e.Source, 9), styles.AccentText) + bg.Space()
	}
	used := lipgloss.Width(head)
	return head + bg.Render(truncate(e.Message, max(width-used, 8)), styles.Text)
}

// renderActivity renders the client log tail.
func (m Model) renderActivity() string {
	a := m.activity
	title := fmt.Sprintf("Activity (%s and above)", strings.ToLower(a.minLevel.String()))
	if !a.follow {
		title += " paused"
	}

	var content string
	switch {
	case a.err != nil:
		styles := m.theme.Styles()
		content = styles.DangerText.Render("Could not read the log: " + a.err.Error())
	case len(a.entries) == 0:
		styles := m.theme.Styles()
		content = styles.MutedText.Render("Nothing logged yet.")
	default:
		content = a.viewport.View()
	}
	return m.renderTitledBox(title, content, m.width, m.contentHeight(), true)
}
