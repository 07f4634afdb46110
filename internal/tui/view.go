package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/lc/nwconf/internal/model"
	"github.com/lc/nwconf/internal/session"
)

// chromeLines is the number of lines around the tree: title, header,
// two status lines, message and help.
const chromeLines = 7

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237")).Bold(true)
	groupStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	modalStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
	channelStyle = lipgloss.NewStyle().Underline(true).Bold(true)
)

// Swatch renders a two-cell block in the color hex.
func Swatch(hex string) string {
	if hex == "" {
		return "  "
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}

func (m *Model) View() string {
	var b strings.Builder

	title := "nwconf"
	if m.ctrl.State() == session.Modified {
		title += modifiedStyle.Render(" [modified]")
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	switch m.mode {
	case modePromptBackup:
		b.WriteString(modalStyle.Render(fmt.Sprintf(
			"Back up the settings folder before loading %s?\n\n[y] back up and load   [n] load without backup   [esc] cancel",
			m.pendingKind)) + "\n")
	case modeConfirmReload:
		b.WriteString(modalStyle.Render("Discard all changes and reload from disk?\n\n[y] discard   [n] keep editing") + "\n")
	case modeConfirmDiscard:
		b.WriteString(modalStyle.Render(fmt.Sprintf(
			"There are unsaved changes. Discard them and load %s?\n\n[y] discard   [n] keep editing",
			m.pendingKind)) + "\n")
	case modeConfirmQuit:
		b.WriteString(modalStyle.Render("There are unsaved changes. Quit anyway?\n\n[y] quit   [n] stay") + "\n")
	case modePickSnapshot:
		b.WriteString(m.viewSnapshots())
	case modeConfirmRestore:
		b.WriteString(modalStyle.Render(fmt.Sprintf(
			"This will ERASE everything in\n  %s\nand replace it with the contents of\n  %s\n\nThis cannot be undone. [y] restore   [n] cancel",
			m.ctrl.ConfigDir(), m.snaps[m.snapCursor].Path)) + "\n")
	default:
		b.WriteString(m.viewTree())
	}

	b.WriteString(dimStyle.Render(m.ctrl.ActiveLine()) + "\n")
	b.WriteString(m.ctrl.Status() + "\n")
	if m.message != "" {
		style := dimStyle
		if strings.HasPrefix(m.message, "Error") {
			style = errorStyle
		}
		b.WriteString(style.Render(m.message) + "\n")
	}
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m *Model) viewTree() string {
	var b strings.Builder
	nameW := max(24, m.width/3)
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %s", nameW, "Name", "Value")) + "\n")
	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("Nothing loaded. Press 1 for rebindings or 2 for user settings.") + "\n")
		return b.String()
	}

	end := min(len(m.rows), m.offset+m.pageSize())
	for i := m.offset; i < end; i++ {
		n := m.rows[i]
		line := m.renderRow(n, nameW, i == m.cursor)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) renderRow(n model.Node, nameW int, selected bool) string {
	marker := " "
	if len(n.Children) > 0 {
		marker = "▸"
		if n.Expanded {
			marker = "▾"
		}
	}
	name := strings.Repeat("  ", n.Depth) + marker + " " + n.Name
	if r := []rune(name); len(r) > nameW {
		name = string(r[:nameW-1]) + "…"
	}
	name += strings.Repeat(" ", max(0, nameW-lipgloss.Width(name)))
	if n.Bold {
		name = groupStyle.Render(name)
	}

	var value string
	switch {
	case selected && m.mode == modeEditText:
		value = m.input.View()
	case selected && m.mode == modeEditColor:
		value = Swatch(m.channels.RGBA().Swatch()) + " " + m.viewChannels()
	case n.Kind == model.KindColor:
		value = Swatch(n.Swatch) + " " + n.Value
	case n.Kind == model.KindRebind:
		value = n.Value + dimStyle.Render("  (default "+n.Default+")")
	case n.Kind == model.KindPlaceholder:
		value = dimStyle.Render(n.Value)
	default:
		value = n.Value
	}
	return name + " " + value
}

func (m *Model) viewChannels() string {
	parts := make([]string, 0, 4)
	for ch := model.ChannelR; ch <= model.ChannelA; ch++ {
		p := fmt.Sprintf("%s:%s", ch, m.channels.Get(ch))
		if ch == m.channel {
			p = channelStyle.Render(p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func (m *Model) viewSnapshots() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Select a backup to restore") + "\n")
	for i, s := range m.snaps {
		line := fmt.Sprintf("%s  %s", s.Name, dimStyle.Render(humanize.Time(s.Created)))
		if i == m.snapCursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) help() string {
	switch m.mode {
	case modeEditText:
		return "enter apply • esc cancel"
	case modeEditColor:
		return "tab channel • ←/→ adjust • shift+←/→ adjust more • enter/esc done"
	case modePickSnapshot:
		return "↑/↓ select • enter restore • esc cancel"
	}
	return "1 rebindings • 2 settings • enter edit • space fold • ctrl+s save • ctrl+r reload • b backup • r restore • q quit"
}
