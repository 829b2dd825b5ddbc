package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nzaccagnino/go-sheets/internal/autosave"
	"github.com/nzaccagnino/go-sheets/internal/editor"
	"github.com/nzaccagnino/go-sheets/internal/i18n"
	"github.com/nzaccagnino/go-sheets/internal/logging"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeEditing
	ModeSaveAs
	ModePassword
	ModeConfirmDelete
	ModeHelp
)

type passwordAction int

const (
	passwordOpen passwordAction = iota
	passwordProtect
	passwordUnprotect
)

const (
	kindCount     = 4
	flashDuration = 2 * time.Second
)

type fileItem struct {
	Name     string
	Modified time.Time
}

type Model struct {
	ctx         context.Context
	store       *store.Store
	scheduler   *autosave.Scheduler
	buffer      *editor.Buffer
	log         logging.Logger
	statuses    <-chan autosave.Status
	unsubscribe func()
	notes       <-chan autosave.Notification

	files      []fileItem
	cursor     int
	listOffset int

	current   string
	protected bool

	mode           Mode
	textarea       textarea.Model
	nameInput      textinput.Model
	passwordInput  textinput.Model
	passwordAction passwordAction
	passwordTarget string
	deleteTarget   string

	status   autosave.Status
	autosave autosave.Config

	flash   string
	flashID int

	width  int
	height int

	keys KeyMap

	err error
}

type filesLoadedMsg []fileItem
type fileOpenedMsg struct {
	name      string
	content   string
	kind      int
	protected bool
	saved     bool
}
type needPasswordMsg string
type savedMsg string
type protectionChangedMsg struct {
	name      string
	protected bool
}
type deletedMsg struct {
	name       string
	wasCurrent bool
}
type statusMsg autosave.Status
type notificationMsg autosave.Notification
type configMsg autosave.Config
type clearFlashMsg int
type infoMsg string
type errMsg error

// NewModel builds the UI around an already started scheduler. notes may be
// nil when notifications are not wired.
func NewModel(ctx context.Context, st *store.Store, sched *autosave.Scheduler, buf *editor.Buffer,
	notes <-chan autosave.Notification, log logging.Logger) Model {
	t := i18n.T()

	ta := textarea.New()
	ta.Placeholder = t.SheetPlaceholder
	ta.ShowLineNumbers = true
	ta.SetValue(buf.Content())

	ni := textinput.New()
	ni.Placeholder = t.NamePlaceholder
	ni.CharLimit = store.MaxNameLength

	pi := textinput.New()
	pi.Placeholder = t.PasswordPlaceholder
	pi.EchoMode = textinput.EchoPassword
	pi.CharLimit = 256

	if log == nil {
		log = logging.Discard()
	}

	statuses, unsubscribe := sched.Subscribe()
	current, _ := sched.Document()

	return Model{
		ctx:           ctx,
		store:         st,
		scheduler:     sched,
		buffer:        buf,
		log:           log,
		statuses:      statuses,
		unsubscribe:   unsubscribe,
		notes:         notes,
		current:       current,
		protected:     st.IsPasswordProtected(ctx, current),
		textarea:      ta,
		nameInput:     ni,
		passwordInput: pi,
		autosave:      sched.Config(),
		keys:          NewKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadFiles(),
		m.waitForStatus(),
		m.waitForNotification(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(m.contentWidth() - 4)
		m.textarea.SetHeight(m.contentHeight() - 2)

	case filesLoadedMsg:
		m.files = msg
		if m.cursor >= len(m.files) {
			m.cursor = 0
			m.listOffset = 0
		}

	case fileOpenedMsg:
		m.current = msg.name
		m.protected = msg.protected
		m.textarea.SetValue(msg.content)
		m.mode = ModeNormal
		m.err = nil
		m.nameInput.Blur()
		m.passwordInput.Blur()
		if msg.saved {
			cmds = append(cmds, m.setFlash(formatMsg(i18n.T().Saved, msg.name)), m.loadFiles())
		}

	case needPasswordMsg:
		m.openPasswordDialog(passwordOpen, string(msg))

	case savedMsg:
		m.err = nil
		cmds = append(cmds, m.setFlash(formatMsg(i18n.T().Saved, string(msg))), m.loadFiles())

	case protectionChangedMsg:
		t := i18n.T()
		if msg.name == m.current {
			m.protected = msg.protected
		}
		m.mode = ModeNormal
		m.err = nil
		m.passwordInput.Blur()
		text := formatMsg(t.UnprotectedOK, msg.name)
		if msg.protected {
			text = formatMsg(t.ProtectedOK, msg.name)
		}
		cmds = append(cmds, m.setFlash(text), m.loadFiles())

	case deletedMsg:
		if msg.wasCurrent {
			m.current = store.UntitledName
			m.protected = false
			m.textarea.SetValue("")
		}
		cmds = append(cmds, m.setFlash(formatMsg(i18n.T().Deleted, msg.name)), m.loadFiles())

	case statusMsg:
		m.status = autosave.Status(msg)
		cmds = append(cmds, m.waitForStatus())

	case notificationMsg:
		cmds = append(cmds,
			m.setFlash(formatMsg(i18n.T().AutoSaved, msg.Document)),
			m.waitForNotification(),
		)

	case configMsg:
		m.autosave = autosave.Config(msg)

	case clearFlashMsg:
		if int(msg) == m.flashID {
			m.flash = ""
		}

	case infoMsg:
		cmds = append(cmds, m.setFlash(string(msg)))

	case errMsg:
		m.err = msg
		m.log.Warn(m.ctx, "ui action failed", "error", error(msg))

	case tea.KeyMsg:
		switch m.mode {
		case ModeEditing:
			return m.handleEditingKeys(msg)
		case ModeSaveAs:
			return m.handleSaveAsKeys(msg)
		case ModePassword:
			return m.handlePasswordKeys(msg)
		case ModeConfirmDelete:
			return m.handleConfirmDeleteKeys(msg)
		case ModeHelp:
			if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
				m.mode = ModeNormal
			}
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) selectedFile() *fileItem {
	if m.cursor >= 0 && m.cursor < len(m.files) {
		return &m.files[m.cursor]
	}
	return nil
}

func (m *Model) setFlash(text string) tea.Cmd {
	m.flashID++
	m.flash = text
	id := m.flashID
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return clearFlashMsg(id)
	})
}

func (m *Model) openPasswordDialog(action passwordAction, target string) {
	m.mode = ModePassword
	m.passwordAction = action
	m.passwordTarget = target
	m.err = nil
	m.passwordInput.SetValue("")
	m.passwordInput.Focus()
}

func (m Model) hasDocument() bool {
	return m.current != "" && !store.IsReserved(m.current)
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.listOffset {
				m.listOffset = m.cursor
			}
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.files)-1 {
			m.cursor++
			listHeight := m.contentHeight() - 2
			if m.cursor >= m.listOffset+listHeight {
				m.listOffset = m.cursor - listHeight + 1
			}
		}

	case key.Matches(msg, m.keys.Enter):
		if f := m.selectedFile(); f != nil {
			return m, m.openFile(f.Name, "")
		}

	case key.Matches(msg, m.keys.Edit):
		m.mode = ModeEditing
		m.textarea.Focus()

	case key.Matches(msg, m.keys.Save):
		return m.save()

	case key.Matches(msg, m.keys.SaveAs):
		m.openSaveAs()

	case key.Matches(msg, m.keys.New):
		return m, m.newSheet()

	case key.Matches(msg, m.keys.Delete):
		if f := m.selectedFile(); f != nil {
			m.deleteTarget = f.Name
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, m.keys.Protect):
		if !m.hasDocument() {
			return m, m.info(i18n.T().NothingToSave)
		}
		if !m.protected {
			m.openPasswordDialog(passwordProtect, m.current)
		}

	case key.Matches(msg, m.keys.Unprotect):
		if m.hasDocument() && m.protected {
			m.openPasswordDialog(passwordUnprotect, m.current)
		}

	case key.Matches(msg, m.keys.ToggleAuto):
		enabled := !m.autosave.Enabled
		return m, m.updateConfig(autosave.ConfigPatch{Enabled: &enabled})

	case key.Matches(msg, m.keys.IntervalUp), key.Matches(msg, m.keys.IntervalDown):
		interval := m.autosave.IntervalSeconds + 1
		if key.Matches(msg, m.keys.IntervalDown) {
			interval = m.autosave.IntervalSeconds - 1
		}
		if interval < autosave.MinIntervalSeconds || interval > autosave.MaxIntervalSeconds {
			return m, nil
		}
		return m, m.updateConfig(autosave.ConfigPatch{IntervalSeconds: &interval})

	case key.Matches(msg, m.keys.Notifications):
		show := !m.autosave.ShowNotifications
		return m, m.updateConfig(autosave.ConfigPatch{ShowNotifications: &show})

	case key.Matches(msg, m.keys.Kind):
		return m, m.cycleKind()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadFiles()
	}

	return m, nil
}

func (m Model) handleEditingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = ModeNormal
		m.textarea.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		return m.save()

	case key.Matches(msg, m.keys.SaveAs):
		m.textarea.Blur()
		m.openSaveAs()
		return m, nil

	default:
		m.textarea, cmd = m.textarea.Update(msg)
		m.buffer.Set(m.textarea.Value())
	}

	return m, cmd
}

func (m *Model) openSaveAs() {
	m.mode = ModeSaveAs
	m.err = nil
	m.nameInput.SetValue("")
	m.nameInput.Focus()
}

// save commits the current document, asking for a name first when it has
// never been saved.
func (m Model) save() (tea.Model, tea.Cmd) {
	if !m.hasDocument() {
		m.textarea.Blur()
		m.openSaveAs()
		return m, nil
	}
	return m, m.manualSave()
}

func (m Model) handleSaveAsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = ModeNormal
		m.err = nil
		m.nameInput.Blur()

	case key.Matches(msg, m.keys.Enter):
		return m, m.saveAs(m.nameInput.Value())

	default:
		m.nameInput, cmd = m.nameInput.Update(msg)
	}

	return m, cmd
}

func (m Model) handlePasswordKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = ModeNormal
		m.err = nil
		m.passwordInput.Blur()

	case key.Matches(msg, m.keys.Enter):
		password := m.passwordInput.Value()
		switch m.passwordAction {
		case passwordOpen:
			return m, m.openFile(m.passwordTarget, password)
		case passwordProtect:
			return m, m.protect(m.passwordTarget, password)
		case passwordUnprotect:
			return m, m.unprotect(m.passwordTarget, password)
		}

	default:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}

	return m, cmd
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		target := m.deleteTarget
		m.deleteTarget = ""
		return m, m.deleteFile(target)
	case "n", "N", "esc":
		m.mode = ModeNormal
		m.deleteTarget = ""
	}
	return m, nil
}
