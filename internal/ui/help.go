package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Navigation",
			items: []helpItem{
				{"tab", "Cycle feed/profile/activity"},
				{"p/a", "Profile/Activity"},
				{"esc", "Return to feed"},
				{"j/k", "Move up/down"},
				{"g/G", "Go to top/bottom"},
				{"ctrl+d/u", "Half page down/up"},
			},
		},
		{
			title: "Feed",
			items: []helpItem{
				{"l", "Like/unlike"},
				{"c/enter", "Comments"},
				{"n", "New post"},
				{"e/D", "Edit/delete your post"},
				{"r", "Refresh"},
				{"[/]", "Newer/older page"},
			},
		},
		{
			title: "Comments",
			items: []helpItem{
				{"i/enter", "Write a comment"},
				{"l", "Like/unlike"},
				{"x", "Delete your comment"},
			},
		},
		{
			title: "Compose",
			items: []helpItem{
				{"ctrl+s", "Publish"},
				{"ctrl+o", "Add images by path"},
				{"ctrl+r", "Remove last image"},
				{"ctrl+l", "Toggle location"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"E/L/O", "Edit profile/location, sign out"},
				{"f", "Activity level filter"},
				{"T", "Theme: " + strings.Join(ThemeNames(), "/")},
				{"h/?", "Toggle help"},
				{"ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return m.renderModal(b.String(), m.theme.Accent, 48)
}

// renderConfirm renders the pending yes/no prompt.
func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	content := styles.Text.Render(m.confirm.prompt) + "\n\n" +
		styles.WarningText.Render("y") + styles.MutedText.Render(" confirm   ") +
		styles.WarningText.Render("any other key") + styles.MutedText.Render(" cancel")
	return m.renderModal(content, m.theme.Warning, 50)
}

// renderModal centers content in a bordered box over the screen.
func (m Model) renderModal(content, borderColor string, width int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(1, 2).
		Width(min(width, max(m.width-4, 20)))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
