package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nzaccagnino/go-sheets/internal/i18n"
)

const timeLayout = "15:04:05"

func (m Model) listWidth() int {
	return int(float64(m.width) * 0.25)
}

func (m Model) contentWidth() int {
	return int(float64(m.width) * 0.50)
}

func (m Model) metadataWidth() int {
	return m.width - m.listWidth() - m.contentWidth()
}

func (m Model) contentHeight() int {
	return m.height - 5
}

func (m Model) View() string {
	t := i18n.T()

	if m.width == 0 {
		return t.Loading
	}

	var dialog string
	switch m.mode {
	case ModeHelp:
		return m.renderHelp()
	case ModeSaveAs:
		dialog = m.renderSaveAsDialog()
	case ModePassword:
		dialog = m.renderPasswordDialog()
	case ModeConfirmDelete:
		dialog = m.renderConfirmDialog()
	}
	if dialog != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderBody(), m.renderStatus())
}

func (m Model) title() string {
	if !m.hasDocument() {
		return i18n.T().Untitled
	}
	return m.current
}

func (m Model) renderHeader() string {
	title := SheetIcon + " " + m.title()
	if m.protected {
		title += " " + LockIcon
	}
	if m.status.HasUnsavedChanges {
		title += " *"
	}
	return HeaderStyle.Width(m.width - 2).Render(TitleStyle.Render(title))
}

func (m Model) renderBody() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderList(), m.renderContent(), m.renderMetadata())
}

func (m Model) renderList() string {
	t := i18n.T()

	style := PanelStyle
	if m.mode == ModeNormal {
		style = ActivePanelStyle
	}

	var items []string
	listHeight := m.contentHeight() - 2
	maxLen := m.listWidth() - 10

	if len(m.files) == 0 {
		items = append(items, MutedStyle.Render(t.NoFiles))
	}
	for i := m.listOffset; i < len(m.files) && i < m.listOffset+listHeight; i++ {
		name := truncate(m.files[i].Name, maxLen)
		if i == m.cursor {
			items = append(items, SelectedListItemStyle.Render(fmt.Sprintf("  ▶ %-*s  ", maxLen, name)))
		} else {
			items = append(items, fmt.Sprintf("    %-*s  ", maxLen, name))
		}
	}

	for len(items) < listHeight {
		items = append(items, "")
	}

	return style.Width(m.listWidth() - 2).Height(m.contentHeight()).Render(strings.Join(items, "\n"))
}

func (m Model) renderContent() string {
	t := i18n.T()

	style := PanelStyle
	if m.mode == ModeEditing {
		style = ActivePanelStyle
	}

	var content string
	switch {
	case m.mode == ModeEditing:
		content = m.textarea.View()
	case m.buffer.Content() != "":
		content = m.buffer.Content()
	default:
		content = MutedStyle.Render(t.EmptySheet)
	}

	return style.Width(m.contentWidth() - 2).Height(m.contentHeight()).Render(content)
}

func (m Model) renderMetadata() string {
	t := i18n.T()

	onOff := func(b bool) string {
		if b {
			return t.On
		}
		return t.Off
	}

	var lines []string

	if m.hasDocument() {
		for _, f := range m.files {
			if f.Name == m.current {
				lines = append(lines, LabelStyle.Render(t.ModifiedAt))
				lines = append(lines, MutedStyle.Render("  "+f.Modified.Local().Format("2006-01-02 15:04")))
				lines = append(lines, "")
				break
			}
		}
	}

	lines = append(lines, LabelStyle.Render(t.Kind))
	lines = append(lines, MutedStyle.Render(fmt.Sprintf("  %d", m.buffer.Kind())))

	if m.protected {
		lines = append(lines, "")
		lines = append(lines, LabelStyle.Render(LockIcon+" "+t.Protected))
	}

	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render(t.AutoSave))
	lines = append(lines, MutedStyle.Render("  "+onOff(m.autosave.Enabled)))
	lines = append(lines, LabelStyle.Render(t.Interval))
	lines = append(lines, MutedStyle.Render(fmt.Sprintf("  %ds", m.autosave.IntervalSeconds)))
	lines = append(lines, LabelStyle.Render(t.Notifications))
	lines = append(lines, MutedStyle.Render("  "+onOff(m.autosave.ShowNotifications)))

	return PanelStyle.Width(m.metadataWidth() - 2).Height(m.contentHeight()).Render(strings.Join(lines, "\n"))
}

// autosaveIndicator summarizes the last published scheduler status.
func (m Model) autosaveIndicator() string {
	t := i18n.T()
	st := m.status

	if !st.Active {
		if st.HasUnsavedChanges {
			return PendingStyle.Render("* " + t.Unsaved)
		}
		return MutedStyle.Render(t.AutoSaveOff)
	}

	parts := []string{t.AutoSaveOn}
	switch {
	case st.LastError != nil:
		parts = append(parts, ErrorStyle.Render(t.SaveFailed+": "+describeError(st.LastError)))
	case st.HasUnsavedChanges:
		parts = append(parts, PendingStyle.Render("* "+t.Unsaved))
	case st.LastSavedAt != nil:
		parts = append(parts, SavedStyle.Render(fmt.Sprintf(t.LastSaved, st.LastSavedAt.Local().Format(timeLayout))))
	}
	if st.NextSaveAt != nil {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf(t.NextSave, st.NextSaveAt.Local().Format(timeLayout))))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatus() string {
	t := i18n.T()

	modeStr := t.ModeNormal
	if m.mode == ModeEditing {
		modeStr = t.ModeEdit
	}

	left := fmt.Sprintf(" %s | %d %s | %s", modeStr, len(m.files), t.Files, m.autosaveIndicator())

	right := fmt.Sprintf("Ctrl+H %s | Ctrl+Q %s", t.Help, t.Exit)
	switch {
	case m.err != nil:
		right = ErrorStyle.Render(describeError(m.err)) + " | " + right
	case m.flash != "":
		right = FlashStyle.Render(m.flash) + " | " + right
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}

	return StatusBarStyle.Render(left + strings.Repeat(" ", padding) + right)
}

func (m Model) dialogError() string {
	if m.err == nil {
		return ""
	}
	return ErrorStyle.Render(describeError(m.err))
}

func (m Model) renderSaveAsDialog() string {
	t := i18n.T()

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		TitleStyle.Render(t.SaveAs),
		"",
		MutedStyle.Render(t.NameRules),
		"",
		m.nameInput.View(),
		m.dialogError(),
		"",
		MutedStyle.Render(t.EnterConfirm+"  "+t.EscCancel),
	)

	return DialogStyle.Width(50).Render(content)
}

func (m Model) renderPasswordDialog() string {
	t := i18n.T()

	title := fmt.Sprintf(t.OpenProtected, m.passwordTarget)
	switch m.passwordAction {
	case passwordProtect:
		title = t.SetPassword
	case passwordUnprotect:
		title = t.RemovePassword
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		TitleStyle.Render(LockIcon+" "+title),
		"",
		m.passwordInput.View(),
		m.dialogError(),
		"",
		MutedStyle.Render(t.EnterConfirm+"  "+t.EscCancel),
	)

	return DialogStyle.Width(50).Render(content)
}

func (m Model) renderConfirmDialog() string {
	t := i18n.T()

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		TitleStyle.Render(t.DeleteFile),
		"",
		fmt.Sprintf(t.DeleteConfirm, m.deleteTarget),
		"",
		MutedStyle.Render("[Y] "+t.Yes+"  [N] "+t.No),
	)

	return DialogStyle.Width(40).Render(content)
}

func (m Model) renderHelp() string {
	t := i18n.T()

	var b strings.Builder

	b.WriteString(LabelStyle.Render(t.HelpNavigation) + "\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "↑/k", t.HelpUp))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "↓/j", t.HelpDown))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Enter", t.HelpOpen))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "r", t.HelpRefresh))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render(t.HelpEditing) + "\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "i", t.HelpEdit))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Esc", t.HelpExitEdit))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "t", t.HelpKind))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render(t.HelpFiles) + "\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Ctrl+S", t.HelpSave))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Ctrl+W", t.HelpSaveAs))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Ctrl+N", t.HelpNew))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "d", t.HelpDelete))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "p", t.HelpProtect))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "u", t.HelpUnprotect))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render(t.HelpAutoSave) + "\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "a", t.HelpToggleAuto))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "+", t.HelpIntervalUp))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "-", t.HelpIntervalDown))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "m", t.HelpNotifications))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render(t.HelpGeneral) + "\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Ctrl+H/?", t.HelpHelp))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Ctrl+Q", t.HelpExit))
	b.WriteString("\n")

	b.WriteString(MutedStyle.Render(t.HelpClose))

	helpStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(highlight).
		Padding(1, 2).
		Align(lipgloss.Left)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpStyle.Render(b.String()))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
