package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzaccagnino/go-sheets/internal/autosave"
	"github.com/nzaccagnino/go-sheets/internal/crypto"
	"github.com/nzaccagnino/go-sheets/internal/db"
	"github.com/nzaccagnino/go-sheets/internal/editor"
	"github.com/nzaccagnino/go-sheets/internal/i18n"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

type harness struct {
	store *store.Store
	sched *autosave.Scheduler
	buf   *editor.Buffer
}

// idleTicker never fires; tests drive saves through the model.
func idleTicker(time.Duration) (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

func newHarness(t *testing.T) (*harness, Model) {
	t.Helper()

	prev := i18n.GetLanguage()
	i18n.SetLanguage(i18n.English)
	t.Cleanup(func() { i18n.SetLanguage(prev) })

	database, err := db.New(filepath.Join(t.TempDir(), "sheets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	c, err := crypto.New(crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1})
	require.NoError(t, err)

	ctx := context.Background()
	h := &harness{
		store: store.New(database.Documents(), store.WithCipher(c)),
		buf:   editor.NewBuffer(),
	}
	h.sched = autosave.New(ctx, h.store, h.buf, autosave.NewConfigStore(database.Settings(), nil),
		autosave.WithTicker(idleTicker))
	t.Cleanup(h.sched.Close)
	require.NoError(t, h.sched.Start(ctx, store.UntitledName, editor.DefaultKind))

	m := NewModel(ctx, h.store, h.sched, h.buf, nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h, m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	return update(t, m, cmd())
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) seed(t *testing.T, name, content string, opts ...store.SaveOption) {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(),
		store.Document{Name: name, Content: store.EncodeContent(content), BillType: 1}, opts...))
}

func TestNewModel_StartsUntitled(t *testing.T) {
	_, m := newHarness(t)

	assert.Equal(t, store.UntitledName, m.current)
	assert.False(t, m.hasDocument())
	assert.Equal(t, ModeNormal, m.mode)
	assert.Contains(t, m.View(), "Untitled")
}

func TestView_LoadingBeforeResize(t *testing.T) {
	h, _ := newHarness(t)
	m := NewModel(context.Background(), h.store, h.sched, h.buf, nil, nil)
	assert.Equal(t, i18n.T().Loading, m.View())
}

func TestEditing_UpdatesBuffer(t *testing.T) {
	h, m := newHarness(t)

	m = update(t, m, keyRunes("i"))
	require.Equal(t, ModeEditing, m.mode)

	m = update(t, m, keyRunes("a"))
	m = update(t, m, keyRunes("b"))
	assert.Equal(t, "ab", h.buf.Content())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestSave_UntitledOpensSaveAs(t *testing.T) {
	_, m := newHarness(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, ModeSaveAs, m.mode)
	assert.Contains(t, m.View(), "Save As")
}

func TestSaveAs_CreatesAndRetargets(t *testing.T) {
	h, m := newHarness(t)
	ctx := context.Background()
	h.buf.Set("a,b,c")

	m.openSaveAs()
	m = run(t, m, m.saveAs("Invoice1"))

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Invoice1", m.current)
	assert.Equal(t, "Saved: Invoice1", m.flash)

	doc, err := h.store.Get(ctx, "Invoice1")
	require.NoError(t, err)
	content, err := store.DecodeContent(doc.Content)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", content)

	name, _ := h.sched.Document()
	assert.Equal(t, "Invoice1", name)

	m = run(t, m, m.loadFiles())
	require.Len(t, m.files, 1)
	assert.Equal(t, "Invoice1", m.files[0].Name)
}

func TestSaveAs_RejectsBadNames(t *testing.T) {
	h, m := newHarness(t)
	h.seed(t, "Taken", "x")

	m.openSaveAs()
	for _, name := range []string{"", "default", "bad/name", "Taken"} {
		m = run(t, m, m.saveAs(name))
		assert.Equal(t, ModeSaveAs, m.mode, name)
		require.Error(t, m.err, name)
	}
	assert.Contains(t, m.View(), "already exists")
}

func TestManualSave_WritesEdits(t *testing.T) {
	h, m := newHarness(t)
	ctx := context.Background()
	h.seed(t, "Budget", "old")

	m = run(t, m, m.openFile("Budget", ""))
	require.Equal(t, "Budget", m.current)
	assert.Equal(t, "old", h.buf.Content())

	h.buf.Set("new")
	m = run(t, m, m.manualSave())
	assert.Equal(t, "Saved: Budget", m.flash)

	doc, err := h.store.Get(ctx, "Budget")
	require.NoError(t, err)
	assert.Equal(t, store.EncodeContent("new"), doc.Content)
}

func TestOpenProtected_AsksForPassword(t *testing.T) {
	h, m := newHarness(t)
	h.seed(t, "Secret", "hidden", store.WithPassword("hunter2"))

	m = run(t, m, m.openFile("Secret", ""))
	require.Equal(t, ModePassword, m.mode)
	assert.Equal(t, passwordOpen, m.passwordAction)
	assert.Equal(t, "Secret", m.passwordTarget)

	m = run(t, m, m.openFile("Secret", "wrong"))
	assert.Equal(t, ModePassword, m.mode)
	assert.ErrorIs(t, m.err, store.ErrInvalidPassword)
	assert.Contains(t, m.View(), "Wrong password")

	m = run(t, m, m.openFile("Secret", "hunter2"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Secret", m.current)
	assert.True(t, m.protected)
	assert.Equal(t, "hidden", h.buf.Content())
	assert.NoError(t, m.err)
}

func TestProtectAndUnprotect(t *testing.T) {
	h, m := newHarness(t)
	ctx := context.Background()
	h.seed(t, "Plain", "data")
	m = run(t, m, m.openFile("Plain", ""))

	m = update(t, m, keyRunes("p"))
	require.Equal(t, ModePassword, m.mode)
	assert.Equal(t, passwordProtect, m.passwordAction)

	m = run(t, m, m.protect("Plain", "X"))
	assert.True(t, m.protected)
	assert.Equal(t, ModeNormal, m.mode)
	assert.True(t, h.store.IsPasswordProtected(ctx, "Plain"))

	// autosave keeps writing with the held password
	h.buf.Set("more data")
	require.NoError(t, h.sched.ManualSave(ctx))
	doc, err := h.store.GetDecrypted(ctx, "Plain", "X")
	require.NoError(t, err)
	assert.Equal(t, store.EncodeContent("more data"), doc.Content)

	m = update(t, m, keyRunes("u"))
	require.Equal(t, passwordUnprotect, m.passwordAction)

	m = run(t, m, m.unprotect("Plain", "wrong"))
	assert.ErrorIs(t, m.err, store.ErrInvalidPassword)
	assert.True(t, h.store.IsPasswordProtected(ctx, "Plain"))

	m = run(t, m, m.unprotect("Plain", "X"))
	assert.False(t, m.protected)
	assert.False(t, h.store.IsPasswordProtected(ctx, "Plain"))
}

func TestProtect_UntitledShowsHint(t *testing.T) {
	_, m := newHarness(t)

	next, cmd := m.Update(keyRunes("p"))
	m = next.(Model)
	assert.Equal(t, ModeNormal, m.mode)
	m = run(t, m, cmd)
	assert.Equal(t, i18n.T().NothingToSave, m.flash)
}

func TestDelete_CurrentResetsToUntitled(t *testing.T) {
	h, m := newHarness(t)
	ctx := context.Background()
	h.seed(t, "Gone", "bye")

	m = run(t, m, m.openFile("Gone", ""))
	m = run(t, m, m.loadFiles())
	require.Len(t, m.files, 1)

	m = update(t, m, keyRunes("d"))
	require.Equal(t, ModeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Delete 'Gone'?")

	next, cmd := m.Update(keyRunes("y"))
	m = next.(Model)
	assert.Equal(t, ModeNormal, m.mode)
	m = run(t, m, cmd)

	assert.Equal(t, store.UntitledName, m.current)
	assert.Empty(t, h.buf.Content())
	exists, err := h.store.Exists(ctx, "Gone")
	require.NoError(t, err)
	assert.False(t, exists)

	name, _ := h.sched.Document()
	assert.Equal(t, store.UntitledName, name)
}

func TestDelete_Cancel(t *testing.T) {
	h, m := newHarness(t)
	h.seed(t, "Keep", "x")
	m = run(t, m, m.loadFiles())

	m = update(t, m, keyRunes("d"))
	m = update(t, m, keyRunes("n"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, m.deleteTarget)
}

func TestAutosaveKeys_UpdateConfig(t *testing.T) {
	h, m := newHarness(t)

	next, cmd := m.Update(keyRunes("+"))
	m = run(t, next.(Model), cmd)
	assert.Equal(t, 2, m.autosave.IntervalSeconds)

	next, cmd = m.Update(keyRunes("a"))
	m = run(t, next.(Model), cmd)
	assert.False(t, m.autosave.Enabled)

	next, cmd = m.Update(keyRunes("m"))
	m = run(t, next.(Model), cmd)
	assert.True(t, m.autosave.ShowNotifications)

	assert.Equal(t, m.autosave, h.sched.Config())
}

func TestIntervalDown_StopsAtMinimum(t *testing.T) {
	_, m := newHarness(t)

	_, cmd := m.Update(keyRunes("-"))
	assert.Nil(t, cmd)
}

func TestCycleKind(t *testing.T) {
	h, m := newHarness(t)

	for want := 2; want <= kindCount; want++ {
		_, cmd := m.Update(keyRunes("t"))
		cmd()
		assert.Equal(t, want, h.buf.Kind())
	}
	_, cmd := m.Update(keyRunes("t"))
	cmd()
	assert.Equal(t, 1, h.buf.Kind())
}

func TestStatusMsg_RendersIndicator(t *testing.T) {
	_, m := newHarness(t)
	saved := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	m = update(t, m, statusMsg(autosave.Status{Active: true, Document: "X", LastSavedAt: &saved}))
	assert.Contains(t, m.autosaveIndicator(), "saved at 09:00:00")

	m = update(t, m, statusMsg(autosave.Status{Active: true, Document: "X", HasUnsavedChanges: true}))
	assert.Contains(t, m.autosaveIndicator(), "Unsaved")

	m = update(t, m, statusMsg(autosave.Status{
		Active:    true,
		Document:  "X",
		LastError: &store.Error{Op: "save", Name: "X", Err: store.ErrPersistence},
	}))
	assert.Contains(t, m.autosaveIndicator(), "Save failed: Storage error")

	m = update(t, m, statusMsg(autosave.Status{}))
	assert.Contains(t, m.autosaveIndicator(), "Autosave off")
}

func TestNotification_FlashesAndClears(t *testing.T) {
	_, m := newHarness(t)

	m = update(t, m, notificationMsg(autosave.Notification{Document: "Invoice1"}))
	assert.Equal(t, "Auto-saved: Invoice1", m.flash)
	id := m.flashID

	m = update(t, m, clearFlashMsg(id-1))
	assert.NotEmpty(t, m.flash)

	m = update(t, m, clearFlashMsg(id))
	assert.Empty(t, m.flash)
}

func TestHelpMode(t *testing.T) {
	_, m := newHarness(t)

	m = update(t, m, keyRunes("?"))
	require.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Toggle autosave")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestDescribeError(t *testing.T) {
	i18n.SetLanguage(i18n.English)
	defer i18n.SetLanguage(i18n.Italian)

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&store.Error{Op: "create", Name: "a/b", Err: store.ErrInvalidName}, "Invalid name"},
		{fmt.Errorf("wrapped: %w", store.ErrNotFound), "File not found"},
		{store.ErrInvalidRecord, "File is corrupted"},
		{autosave.ErrSaveInProgress, "Save in progress"},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeError(tt.err))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "", truncate("abc", 0))
}
