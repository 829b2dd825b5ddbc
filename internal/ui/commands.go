package ui

import (
	"errors"
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nzaccagnino/go-sheets/internal/autosave"
	"github.com/nzaccagnino/go-sheets/internal/editor"
	"github.com/nzaccagnino/go-sheets/internal/i18n"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

func (m Model) loadFiles() tea.Cmd {
	return func() tea.Msg {
		all, err := m.store.ListAll(m.ctx)
		if err != nil {
			return errMsg(err)
		}
		files := make([]fileItem, 0, len(all))
		for name, modified := range all {
			files = append(files, fileItem{Name: name, Modified: modified})
		}
		sort.Slice(files, func(i, j int) bool {
			if files[i].Modified.Equal(files[j].Modified) {
				return files[i].Name < files[j].Name
			}
			return files[i].Modified.After(files[j].Modified)
		})
		return filesLoadedMsg(files)
	}
}

func (m Model) waitForStatus() tea.Cmd {
	ch := m.statuses
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(st)
	}
}

func (m Model) waitForNotification() tea.Cmd {
	ch := m.notes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func (m Model) info(text string) tea.Cmd {
	return func() tea.Msg {
		return infoMsg(text)
	}
}

// openFile loads name into the buffer and points autosave at it. A
// protected document without a password asks for one instead.
func (m Model) openFile(name, password string) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.store.GetDecrypted(m.ctx, name, password)
		if errors.Is(err, store.ErrPasswordRequired) {
			return needPasswordMsg(name)
		}
		if err != nil {
			return errMsg(err)
		}
		content, err := store.DecodeContent(doc.Content)
		if err != nil {
			return errMsg(err)
		}
		kind := doc.BillType
		if kind == 0 {
			kind = editor.DefaultKind
		}

		m.buffer.Load(content, kind)
		var opts []autosave.StartOption
		if doc.PasswordProtected {
			opts = append(opts, autosave.WithPassword(password))
		}
		if err := m.scheduler.Start(m.ctx, name, kind, opts...); err != nil {
			return errMsg(err)
		}
		return fileOpenedMsg{name: name, content: content, kind: kind, protected: doc.PasswordProtected}
	}
}

func (m Model) newSheet() tea.Cmd {
	return func() tea.Msg {
		m.buffer.Load("", editor.DefaultKind)
		if err := m.scheduler.Start(m.ctx, store.UntitledName, editor.DefaultKind); err != nil {
			return errMsg(err)
		}
		return fileOpenedMsg{name: store.UntitledName, kind: editor.DefaultKind}
	}
}

func (m Model) manualSave() tea.Cmd {
	name := m.current
	return func() tea.Msg {
		err := m.scheduler.ManualSave(m.ctx)
		switch {
		case err == nil:
			return savedMsg(name)
		case errors.Is(err, autosave.ErrSaveInProgress):
			return infoMsg(i18n.T().SaveInProgress)
		default:
			return errMsg(err)
		}
	}
}

// saveAs writes the buffer under a new name and moves autosave onto it.
func (m Model) saveAs(name string) tea.Cmd {
	return func() tea.Msg {
		content := m.buffer.Content()
		kind := m.buffer.Kind()
		doc, err := m.store.Create(m.ctx, store.Document{
			Name:     name,
			Content:  store.EncodeContent(content),
			BillType: kind,
		})
		if err != nil {
			return errMsg(err)
		}
		if err := m.scheduler.Start(m.ctx, doc.Name, kind); err != nil {
			return errMsg(err)
		}
		return fileOpenedMsg{name: doc.Name, content: content, kind: kind, saved: true}
	}
}

// protect hands the password to autosave before the stored copy is sealed.
func (m Model) protect(name, password string) tea.Cmd {
	return func() tea.Msg {
		if password == "" {
			return errMsg(store.ErrPasswordRequired)
		}
		if err := m.scheduler.ManualSave(m.ctx); err != nil && !errors.Is(err, autosave.ErrSaveInProgress) {
			return errMsg(err)
		}
		kind := m.buffer.Kind()
		if err := m.scheduler.Retarget(m.ctx, name, kind, autosave.WithPassword(password)); err != nil {
			return errMsg(err)
		}
		if err := m.store.Protect(m.ctx, name, password); err != nil {
			return errMsg(err)
		}
		return protectionChangedMsg{name: name, protected: true}
	}
}

func (m Model) unprotect(name, password string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.RemoveProtection(m.ctx, name, password); err != nil {
			return errMsg(err)
		}
		if err := m.scheduler.Retarget(m.ctx, name, m.buffer.Kind(), autosave.WithPassword("")); err != nil {
			return errMsg(err)
		}
		return protectionChangedMsg{name: name, protected: false}
	}
}

func (m Model) deleteFile(name string) tea.Cmd {
	current := m.current
	return func() tea.Msg {
		if err := m.store.Delete(m.ctx, name); err != nil {
			return errMsg(err)
		}
		wasCurrent := name == current
		if wasCurrent {
			m.buffer.Load("", editor.DefaultKind)
			if err := m.scheduler.Start(m.ctx, store.UntitledName, editor.DefaultKind); err != nil {
				return errMsg(err)
			}
		}
		return deletedMsg{name: name, wasCurrent: wasCurrent}
	}
}

func (m Model) updateConfig(patch autosave.ConfigPatch) tea.Cmd {
	return func() tea.Msg {
		if err := m.scheduler.UpdateConfig(m.ctx, patch); err != nil {
			return errMsg(err)
		}
		return configMsg(m.scheduler.Config())
	}
}

func (m Model) cycleKind() tea.Cmd {
	current := m.current
	return func() tea.Msg {
		kind := m.buffer.Kind()%kindCount + 1
		m.buffer.SetKind(kind)
		if err := m.scheduler.Retarget(m.ctx, current, kind); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

// describeError maps store and autosave failures to a translated message.
func describeError(err error) string {
	t := i18n.T()
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrInvalidName):
		return t.ErrInvalidName
	case errors.Is(err, store.ErrAlreadyExists):
		return t.ErrAlreadyExists
	case errors.Is(err, store.ErrNotFound):
		return t.ErrNotFound
	case errors.Is(err, store.ErrPasswordRequired):
		return t.ErrPasswordRequired
	case errors.Is(err, store.ErrInvalidPassword):
		return t.ErrInvalidPassword
	case errors.Is(err, store.ErrAlreadyProtected):
		return t.ErrAlreadyProtected
	case errors.Is(err, store.ErrNotProtected):
		return t.ErrNotProtected
	case errors.Is(err, store.ErrInvalidRecord):
		return t.ErrCorrupt
	case errors.Is(err, store.ErrPersistence):
		return t.ErrStorage
	case errors.Is(err, autosave.ErrSaveInProgress):
		return t.SaveInProgress
	case errors.Is(err, autosave.ErrNoDocument):
		return t.NothingToSave
	}
	return fmt.Sprintf("%s: %v", t.Error, err)
}

func formatMsg(format, arg string) string {
	return fmt.Sprintf(format, arg)
}
