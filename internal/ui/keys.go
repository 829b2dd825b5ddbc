package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/nzaccagnino/go-sheets/internal/i18n"
)

type KeyMap struct {
	Up            key.Binding
	Down          key.Binding
	Enter         key.Binding
	Edit          key.Binding
	Escape        key.Binding
	Save          key.Binding
	SaveAs        key.Binding
	New           key.Binding
	Delete        key.Binding
	Protect       key.Binding
	Unprotect     key.Binding
	ToggleAuto    key.Binding
	IntervalUp    key.Binding
	IntervalDown  key.Binding
	Notifications key.Binding
	Kind          key.Binding
	Refresh       key.Binding
	Quit          key.Binding
	Help          key.Binding
}

func NewKeyMap() KeyMap {
	t := i18n.T()
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", t.KeyUp),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", t.KeyDown),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", t.KeyEnter),
		),
		Edit: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", t.KeyEdit),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", t.KeyEscape),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", t.KeySave),
		),
		SaveAs: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("Ctrl+W", t.KeySaveAs),
		),
		New: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("Ctrl+N", t.KeyNew),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", t.KeyDelete),
		),
		Protect: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", t.KeyProtect),
		),
		Unprotect: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", t.KeyUnprotect),
		),
		ToggleAuto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", t.KeyAutoSave),
		),
		IntervalUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", t.KeyIntervalUp),
		),
		IntervalDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", t.KeyIntervalDown),
		),
		Notifications: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", t.KeyNotifications),
		),
		Kind: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", t.KeyKind),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", t.KeyRefresh),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("Ctrl+Q", t.KeyQuit),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h", "?"),
			key.WithHelp("Ctrl+H/?", t.KeyHelp),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Edit, k.Save, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Edit, k.Escape},
		{k.Save, k.SaveAs, k.New, k.Delete, k.Refresh},
		{k.Protect, k.Unprotect, k.Kind},
		{k.ToggleAuto, k.IntervalUp, k.IntervalDown, k.Notifications},
		{k.Help, k.Quit},
	}
}
