package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Login form fields.
const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

var fieldLabels = [3]string{"Name", "Email", "Password"}

// loginState is the sign-in / register form shown while signed out.
type loginState struct {
	register bool
	inputs   [3]textinput.Model
	focus    int
	busy     bool
	err      string
	notice   string
}

func newLoginState(email string) loginState {
	var s loginState
	for i := range s.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		in.Width = 32
		s.inputs[i] = in
	}
	s.inputs[fieldName].Placeholder = "Your name"
	s.inputs[fieldEmail].Placeholder = "you@example.com"
	s.inputs[fieldPassword].Placeholder = "password"
	s.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	s.inputs[fieldPassword].EchoCharacter = '•'

	s.inputs[fieldEmail].SetValue(email)
	s.focus = fieldEmail
	if email != "" {
		s.focus = fieldPassword
	}
	s.inputs[s.focus].Focus()
	return s
}

// visibleFields lists the inputs the current mode shows, in order.
func (s loginState) visibleFields() []int {
	if s.register {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (s *loginState) moveFocus(dir int) tea.Cmd {
	fields := s.visibleFields()
	pos := 0
	for i, f := range fields {
		if f == s.focus {
			pos = i
		}
	}
	pos = (pos + dir + len(fields)) % len(fields)
	s.inputs[s.focus].Blur()
	s.focus = fields[pos]
	return s.inputs[s.focus].Focus()
}

func (s loginState) lastField() bool {
	fields := s.visibleFields()
	return s.focus == fields[len(fields)-1]
}

// hasSavedToken reports whether a token survived a failed session check, so
// the session can be retried without credentials.
func (m Model) hasSavedToken() bool {
	return m.session != nil && m.session.Token() != ""
}

// handleLoginKey drives the sign-in form.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ToggleRegister):
		m.login.register = !m.login.register
		m.login.err = ""
		m.login.notice = ""
		if m.login.register {
			m.login.inputs[m.login.focus].Blur()
			m.login.focus = fieldName
			return m, m.login.inputs[fieldName].Focus()
		}
		if m.login.focus == fieldName {
			return m, m.login.moveFocus(1)
		}
		return m, nil
	case key.Matches(msg, m.keys.RetrySession) && m.hasSavedToken():
		m.login.busy = true
		m.login.err = ""
		m.login.notice = ""
		sess, ctx := m.session, m.ctx
		return m, func() tea.Msg {
			err := sess.Refresh(ctx)
			return authMsg{resumed: true, signedIn: err == nil, err: err}
		}
	}

	switch msg.String() {
	case "tab", "down":
		return m, m.login.moveFocus(1)
	case "shift+tab", "up":
		return m, m.login.moveFocus(-1)
	case "esc":
		m.login.err = ""
		m.login.notice = ""
		return m, nil
	case "enter":
		if !m.login.lastField() {
			return m, m.login.moveFocus(1)
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.login.inputs[fieldName].Value())
	email := strings.TrimSpace(m.login.inputs[fieldEmail].Value())
	password := m.login.inputs[fieldPassword].Value()

	m.login.busy = true
	m.login.err = ""
	m.login.notice = ""
	sess, ctx := m.session, m.ctx

	if m.login.register {
		return m, func() tea.Msg {
			signedIn, err := sess.Register(ctx, name, email, password)
			return authMsg{register: true, signedIn: signedIn, email: email, err: err}
		}
	}
	return m, func() tea.Msg {
		err := sess.Login(ctx, email, password)
		return authMsg{signedIn: err == nil, email: email, err: err}
	}
}

// handleAuth reports a finished sign-in or registration.
func (m Model) handleAuth(msg authMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		op := "sign in"
		switch {
		case msg.register:
			op = "register"
		case msg.resumed:
			op = "restore session"
		}
		m.login.err = describeError(op, msg.err)
		m.login.inputs[fieldPassword].Reset()
		return m, m.fetchSnapshotCmd()
	}

	if msg.email != "" {
		m.lastEmail = msg.email
		m.savePrefs()
	}
	if msg.register && !msg.signedIn {
		m.login.register = false
		m.login.notice = "Account created. Sign in to continue."
		m.login.inputs[fieldPassword].Reset()
		m.login.inputs[m.login.focus].Blur()
		m.login.focus = fieldPassword
		return m, tea.Batch(m.login.inputs[fieldPassword].Focus(), m.fetchSnapshotCmd())
	}
	return m, m.fetchSnapshotCmd()
}

// renderLogin renders the centered sign-in form.
func (m Model) renderLogin() string {
	bgColor := m.theme.Surface
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	title := "Sign in"
	toggle := "ctrl+r create an account"
	if m.login.register {
		title = "Create account"
		toggle = "ctrl+r back to sign in"
	}

	var lines []string
	lines = append(lines, bg.Render("flock", styles.Logo), bg.Render(title, styles.MutedText), "")
	for _, f := range m.login.visibleFields() {
		labelStyle := styles.MutedText
		if f == m.login.focus {
			labelStyle = styles.AccentText
		}
		lines = append(lines, bg.Render(padRight(fieldLabels[f], 10), labelStyle)+m.login.inputs[f].View())
	}
	lines = append(lines, "")

	switch {
	case m.login.busy:
		lines = append(lines, bg.Render(m.spinner.View()+" Contacting server...", styles.AccentText))
	case m.login.err != "":
		lines = append(lines, bg.Render(m.login.err, styles.DangerText))
	case m.login.notice != "":
		lines = append(lines, bg.Render(m.login.notice, styles.SuccessText))
	default:
		lines = append(lines, "")
	}
	hint := "enter continue · tab next field · " + toggle
	if m.hasSavedToken() {
		hint += " · ctrl+t retry saved session"
	}
	lines = append(lines, "", bg.Render(hint+" · ctrl+c quit", styles.FaintText))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		BorderBackground(lipgloss.Color(bgColor)).
		Background(lipgloss.Color(bgColor)).
		Padding(1, 3).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(lipgloss.Color(m.theme.Background)))
}
