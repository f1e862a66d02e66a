package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: who is signed in, feed health and the
// latest status message.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	snap := m.feedSnap

	parts := []string{bg.Render("flock", styles.Logo)}

	if u := m.sessionSnap.User; u != nil {
		parts = append(parts, bg.Render("● "+truncate(u.Name, 20), styles.SuccessText))
	}

	switch {
	case snap.IsOffline():
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	case snap.Refreshing():
		parts = append(parts, bg.Render(m.spinner.View()+" Refreshing", styles.WarningText))
	case snap.Loading():
		parts = append(parts, bg.Render(m.spinner.View()+" Loading", styles.WarningText))
	}

	parts = append(parts,
		bg.Render("Posts:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(snap.Posts)), styles.Text))

	if snap.Limit > 0 && snap.Offset > 0 {
		parts = append(parts,
			bg.Render("Page:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", snap.Offset/snap.Limit+1), styles.Text))
	}

	if m.width >= LayoutCompactWidth && !m.lastUpdated.IsZero() {
		parts = append(parts,
			bg.Render("Updated", styles.FaintText)+bg.Space()+
				bg.Render(m.lastUpdated.Format("15:04:05"), styles.MutedText))
	}

	if m.status.text != "" {
		statusStyle := styles.InfoText
		if m.status.isErr {
			statusStyle = styles.DangerText
		}
		used := lipgloss.Width(bg.Join(parts, "  ")) + 2
		parts = append(parts, bg.Render(truncate(m.status.text, max(m.width-used, 10)), statusStyle))
	}

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewComments:
		if m.commentInput.Focused() {
			commands = []cmd{{"enter", "Send"}, {"esc", "Stop typing"}}
		} else {
			commands = []cmd{
				{"i", "Write"},
				{"l", "Like"},
				{"x", "Delete"},
				{"r", "Reload"},
				{"j/k", "Navigate"},
				{"esc", "Feed"},
			}
		}
	case ViewCompose:
		if m.editor.prompting {
			commands = []cmd{{"enter", "Add"}, {"esc", "Cancel"}}
		} else {
			commands = []cmd{
				{"ctrl+s", "Publish"},
				{"ctrl+o", "Images"},
				{"ctrl+r", "Drop image"},
				{"ctrl+l", "Location"},
				{"esc", "Discard"},
			}
		}
	case ViewProfile:
		if m.profile.editing != profileEditNone {
			commands = []cmd{{"enter", "Next/Save"}, {"tab", "Field"}, {"esc", "Cancel"}}
		} else {
			commands = []cmd{
				{"E", "Edit"},
				{"L", "Location"},
				{"O", "Sign out"},
				{"r", "Reload"},
				{"tab", "Views"},
			}
		}
	case ViewActivity:
		followLabel := "Following"
		if !m.activity.follow {
			followLabel = "Paused"
		}
		commands = []cmd{
			{"f", "Level"},
			{"G", followLabel},
			{"r", "Reload"},
			{"tab", "Views"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"l", "Like"},
			{"c", "Comments"},
			{"n", "New"},
			{"e", "Edit"},
			{"D", "Delete"},
			{"r", "Refresh"},
			{"[/]", "Page"},
		}
	}
	commands = append(commands, cmd{"?", "More"})

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(segments, sep))
}
