package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatoverlay/history"
	"chatoverlay/prefs"
	"chatoverlay/render"
	"chatoverlay/window"
	"chatoverlay/window/windowtest"
)

const chatPage = "https://www.youtube.com/live_chat?is_popout=1&v=abc"

type fakeSurfaces struct {
	win          *windowtest.Fake
	handle       window.Handle // overrides win when set
	missing      bool
	settingsErr  error
	settingsOpen int
}

func (s *fakeSurfaces) MainWindow() (window.Handle, error) {
	if s.missing {
		return nil, ErrWindowNotFound
	}
	if s.handle != nil {
		return s.handle, nil
	}
	return s.win, nil
}

// slowLockWindow delays locking so a concurrent unlock can overtake it.
type slowLockWindow struct {
	*windowtest.Fake
	delay time.Duration
}

func (w *slowLockWindow) SetIgnoreCursorEvents(v bool) error {
	if v {
		time.Sleep(w.delay)
	}
	return w.Fake.SetIgnoreCursorEvents(v)
}

func (s *fakeSurfaces) OpenSettings() error {
	s.settingsOpen++
	return s.settingsErr
}

type mockDialog struct {
	mock.Mock
}

func (m *mockDialog) ShowError(title, message string) {
	m.Called(title, message)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Record(ctx context.Context, streamID, url string) error {
	return m.Called(ctx, streamID, url).Error(0)
}

func (m *mockHistory) Prune(ctx context.Context, keep int) error {
	return m.Called(ctx, keep).Error(0)
}

func (m *mockHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]history.Entry), args.Error(1)
}

type fixture struct {
	o        *Orchestrator
	store    *prefs.Store
	surfaces *fakeSurfaces
	dialog   *mockDialog
	path     string
	changes  []Field
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), prefs.FileName)
	renderer, err := render.New()
	require.NoError(t, err)
	return newFixtureWith(t, path, renderer)
}

func newFixtureWith(t *testing.T, path string, renderer *render.Renderer) *fixture {
	t.Helper()
	f := &fixture{
		store:    prefs.Open(path),
		surfaces: &fakeSurfaces{win: windowtest.New(chatPage)},
		dialog:   &mockDialog{},
		path:     path,
	}
	o, err := New(Options{
		Store:    f.store,
		Renderer: renderer,
		Surfaces: f.surfaces,
		Dialog:   f.dialog,
		OnChange: func(field Field, _ prefs.Preferences) { f.changes = append(f.changes, field) },
	})
	require.NoError(t, err)
	f.o = o
	return f
}

func TestNewRequiresCollaborators(t *testing.T) {
	renderer, err := render.New()
	require.NoError(t, err)
	store := prefs.Open(filepath.Join(t.TempDir(), prefs.FileName))

	_, err = New(Options{Renderer: renderer, Surfaces: &fakeSurfaces{}})
	assert.Error(t, err)
	_, err = New(Options{Store: store, Surfaces: &fakeSurfaces{}})
	assert.Error(t, err)
	_, err = New(Options{Store: store, Renderer: renderer})
	assert.Error(t, err)
}

func TestPageLoaded_InjectsStyleThenFilterThenScale(t *testing.T) {
	f := newFixture(t)

	f.o.PageLoaded(chatPage)

	require.Len(t, f.surfaces.win.Evals, 3)
	assert.Contains(t, f.surfaces.win.Evals[0], "chatoverlay-style")
	assert.Contains(t, f.surfaces.win.Evals[0], "Imprima")
	assert.Equal(t, window.ChatFilterScript(true), f.surfaces.win.Evals[1])
	assert.Equal(t, window.FontScaleScript(1), f.surfaces.win.Evals[2])
	assert.Zero(t, f.surfaces.win.Reloads)
	f.dialog.AssertNotCalled(t, "ShowError", mock.Anything, mock.Anything)
}

func TestPageLoaded_IgnoresOtherPages(t *testing.T) {
	f := newFixture(t)

	f.o.PageLoaded("http://127.0.0.1:5000/")
	f.o.PageLoaded("https://www.youtube.com/watch?v=abc")

	assert.Empty(t, f.surfaces.win.Evals)
	assert.Zero(t, f.surfaces.win.Reloads)
}

func TestPageLoaded_RenderFailureInjectsEmptyScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefs.FileName)
	renderer, err := render.NewFromStrings("{{ .NoSuchField }}", `var css = "{{ js .CSS }}";`)
	require.NoError(t, err)
	f := newFixtureWith(t, path, renderer)

	f.o.PageLoaded(chatPage)

	require.Len(t, f.surfaces.win.Evals, 3)
	assert.Equal(t, "", f.surfaces.win.Evals[0])
	assert.Equal(t, window.ChatFilterScript(true), f.surfaces.win.Evals[1])
	assert.Equal(t, window.FontScaleScript(1), f.surfaces.win.Evals[2])
}

func TestPageLoaded_EvalFailureShowsDialog(t *testing.T) {
	f := newFixture(t)
	f.surfaces.win.Fail["Eval"] = errors.New("page gone")
	f.dialog.On("ShowError", "Style injection failed", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "page gone")
	})).Once()

	f.o.PageLoaded(chatPage)

	f.dialog.AssertExpectations(t)
	assert.Len(t, f.surfaces.win.Evals, 3)
}

func TestPageLoaded_MissingWindow(t *testing.T) {
	f := newFixture(t)
	f.surfaces.missing = true

	f.o.PageLoaded(chatPage)

	assert.Empty(t, f.surfaces.win.Evals)
}

func TestSetMessageFont_ReloadsOnceWithoutEval(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.o.SetMessageFont(prefs.String("Roboto")))

	assert.Equal(t, 1, f.surfaces.win.Reloads)
	assert.Empty(t, f.surfaces.win.Evals)
	assert.Equal(t, []Field{FieldMessageFont}, f.changes)
}

func TestRobotoScenario(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.o.SetMessageFont(prefs.String("Roboto")))

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message_font": "Roboto"`)

	f.surfaces.win.Reset()
	f.o.PageLoaded(chatPage)
	require.NotEmpty(t, f.surfaces.win.Evals)
	assert.Contains(t, f.surfaces.win.Evals[0], `family=Roboto`)
	assert.Contains(t, f.surfaces.win.Evals[0], `\"Roboto\"`)

	renderer, err := render.New()
	require.NoError(t, err)
	sheet, err := renderer.Stylesheet(StyleInputs(f.store.Get(), DefaultFontImportBaseURL))
	require.NoError(t, err)
	assert.Contains(t, sheet, "family=Roboto")
	assert.Contains(t, sheet, `"Roboto"`)
}

func TestReloadClassFields(t *testing.T) {
	tests := []struct {
		name  string
		apply func(o *Orchestrator) error
		check func(t *testing.T, p prefs.Preferences)
	}{
		{"author font", func(o *Orchestrator) error { return o.SetAuthorFont(prefs.String("Lobster Two")) },
			func(t *testing.T, p prefs.Preferences) { assert.Equal(t, "Lobster Two", *p.AuthorFont) }},
		{"background", func(o *Orchestrator) error { return o.SetBackgroundColor(prefs.String("#000000")) },
			func(t *testing.T, p prefs.Preferences) { assert.Equal(t, "#000000", *p.BackgroundColor) }},
		{"message color", func(o *Orchestrator) error { return o.SetMessageColor(prefs.String("red")) },
			func(t *testing.T, p prefs.Preferences) { assert.Equal(t, "red", *p.MessageColor) }},
		{"author color", func(o *Orchestrator) error { return o.SetAuthorColor(prefs.String("blue")) },
			func(t *testing.T, p prefs.Preferences) { assert.Equal(t, "blue", *p.AuthorColor) }},
		{"blank resets", func(o *Orchestrator) error { return o.SetAuthorColor(prefs.String("   ")) },
			func(t *testing.T, p prefs.Preferences) { assert.Nil(t, p.AuthorColor) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, tt.apply(f.o))
			assert.Equal(t, 1, f.surfaces.win.Reloads)
			assert.Empty(t, f.surfaces.win.Evals)
			tt.check(t, f.store.Get())
			tt.check(t, prefs.Load(f.path))
		})
	}
}

func TestSetFontSize_EvalsOnceWithoutReload(t *testing.T) {
	f := newFixture(t)

	got, err := f.o.SetFontSize(1.5)
	require.NoError(t, err)

	assert.Equal(t, 1.5, got)
	assert.Zero(t, f.surfaces.win.Reloads)
	assert.Equal(t, []string{window.FontScaleScript(1.5)}, f.surfaces.win.Evals)
	assert.Equal(t, 1.5, prefs.Load(f.path).FontScale)
}

func TestSetFontSize_Clamps(t *testing.T) {
	f := newFixture(t)

	got, err := f.o.SetFontSize(99)
	require.NoError(t, err)
	assert.Equal(t, prefs.MaxFontScale, got)

	got, err = f.o.SetFontSize(-1)
	require.NoError(t, err)
	assert.Equal(t, prefs.MinFontScale, got)
}

func TestAdjustFontSize_FloorsAtMinimum(t *testing.T) {
	f := newFixture(t)

	var got float64
	var err error
	for i := 0; i < 40; i++ {
		got, err = f.o.AdjustFontSize(false)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.1, got)
	assert.Equal(t, 0.1, prefs.Load(f.path).FontScale)

	got, err = f.o.AdjustFontSize(true)
	require.NoError(t, err)
	assert.Equal(t, 0.15, got)
}

func TestSetLocked_AppliesAllProperties(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.o.SetLocked(true))
	w := f.surfaces.win
	assert.True(t, w.IgnoreCursor)
	assert.False(t, w.Decorated)
	assert.True(t, w.OnTop)
	assert.False(t, w.Shadow)
	assert.True(t, f.o.Settings().IsLocked)
	assert.Zero(t, w.Reloads)
	assert.Empty(t, w.Evals)

	// Locked is session state only.
	assert.False(t, prefs.Load(f.path).Locked)
}

func TestSetLocked_ReportsPartialFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.surfaces.win.Fail["SetAlwaysOnTop"] = boom

	err := f.o.SetLocked(true)
	assert.ErrorIs(t, err, boom)
	assert.True(t, f.surfaces.win.IgnoreCursor)
	assert.False(t, f.surfaces.win.Shadow)
	assert.True(t, f.o.Settings().IsLocked)
}

func TestSetFullChat(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.o.SetFullChat(false))
	assert.Equal(t, []string{window.ChatFilterScript(false)}, f.surfaces.win.Evals)
	assert.False(t, prefs.Load(f.path).FullChat)
}

func TestCommandsWithoutWindow(t *testing.T) {
	f := newFixture(t)
	f.surfaces.missing = true

	assert.ErrorIs(t, f.o.SetLocked(true), ErrWindowNotFound)
	_, err := f.o.SetFontSize(2)
	assert.ErrorIs(t, err, ErrWindowNotFound)

	// Nothing was mutated.
	assert.Equal(t, prefs.Default(), f.store.Get())
	assert.Empty(t, f.changes)
}

func TestStyleChangeWithoutWindowIsStillStored(t *testing.T) {
	f := newFixture(t)
	f.surfaces.missing = true

	assert.ErrorIs(t, f.o.SetMessageFont(prefs.String("Roboto")), ErrWindowNotFound)
	assert.ErrorIs(t, f.o.SetAuthorColor(prefs.String("#00ff00")), ErrWindowNotFound)

	got := f.store.Get()
	require.NotNil(t, got.MessageFont)
	assert.Equal(t, "Roboto", *got.MessageFont)
	saved := prefs.Load(f.path)
	require.NotNil(t, saved.MessageFont)
	assert.Equal(t, "Roboto", *saved.MessageFont)
	require.NotNil(t, saved.AuthorColor)
	assert.Equal(t, "#00ff00", *saved.AuthorColor)
	assert.Equal(t, []Field{FieldMessageFont, FieldAuthorColor}, f.changes)
	assert.Zero(t, f.surfaces.win.Reloads)
}

func TestConcurrentLockChangesKeepWindowInStep(t *testing.T) {
	f := newFixture(t)
	f.surfaces.handle = &slowLockWindow{Fake: f.surfaces.win, delay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.o.SetLocked(true))
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.o.SetLocked(false))
	}()
	wg.Wait()

	locked := f.store.Get().Locked
	w := f.surfaces.win
	assert.Equal(t, locked, w.IgnoreCursor)
	assert.Equal(t, !locked, w.Decorated)
	assert.Equal(t, locked, w.OnTop)
	assert.Equal(t, !locked, w.Shadow)
}

func TestPersistFailureKeepsChangeAndApplies(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	renderer, err := render.New()
	require.NoError(t, err)
	f := newFixtureWith(t, filepath.Join(blocker, prefs.FileName), renderer)

	_, err = f.o.SetFontSize(2)
	var perr *prefs.PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2.0, f.store.Get().FontScale)
	assert.Equal(t, []string{window.FontScaleScript(2)}, f.surfaces.win.Evals)
}

func TestStyleInputs(t *testing.T) {
	in := StyleInputs(prefs.Default(), DefaultFontImportBaseURL)
	assert.Equal(t, render.StyleInputs{
		AuthorFontImportURL:  "https://fonts.googleapis.com/css2?family=Changa+One",
		MessageFontImportURL: "https://fonts.googleapis.com/css2?family=Imprima",
		BackgroundColor:      "rgba(0,0,0,0)",
		MessageFontFamily:    `"Imprima"`,
		AuthorColor:          "#cccccc",
		AuthorFontFamily:     `"Changa One"`,
		MessageColor:         "#ffffff",
	}, in)

	p := prefs.Default()
	p.MessageFont = prefs.String("Open Sans")
	p.MessageColor = prefs.String("#123456")
	in = StyleInputs(p, "https://fonts.example/css?family=")
	assert.Equal(t, "https://fonts.example/css?family=Open+Sans", in.MessageFontImportURL)
	assert.Equal(t, `"Open Sans"`, in.MessageFontFamily)
	assert.Equal(t, "#123456", in.MessageColor)
}

func TestPreferenceChanged(t *testing.T) {
	f := newFixture(t)
	snap := prefs.Default()
	snap.FontScale = 2

	require.NoError(t, f.o.PreferenceChanged(FieldFontScale, snap))
	require.NoError(t, f.o.PreferenceChanged(FieldBackgroundColor, snap))
	assert.Equal(t, []string{window.FontScaleScript(2)}, f.surfaces.win.Evals)
	assert.Equal(t, 1, f.surfaces.win.Reloads)

	assert.Error(t, f.o.PreferenceChanged(Field(99), snap))
}

func TestResetWindow(t *testing.T) {
	f := newFixture(t)
	w := f.surfaces.win
	w.IgnoreCursor, w.Decorated, w.OnTop, w.Shadow = true, false, true, false

	require.NoError(t, f.o.ResetWindow())
	assert.False(t, w.IgnoreCursor)
	assert.True(t, w.Decorated)
	assert.False(t, w.OnTop)
	assert.True(t, w.Shadow)
}

func TestOpenChat(t *testing.T) {
	f := newFixture(t)
	h := &mockHistory{}
	f.o.history = h
	want := "https://www.youtube.com/live_chat?hl=en&is_popout=1&persist_hl=1&v=dQw4w9WgXcQ"
	h.On("Record", mock.Anything, "dQw4w9WgXcQ", want).Return(nil).Once()
	h.On("Prune", mock.Anything, 20).Return(nil).Once()

	got, err := f.o.OpenChat(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{window.NavigateScript(want)}, f.surfaces.win.Evals)
	h.AssertExpectations(t)

	_, err = f.o.OpenChat(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, ErrInvalidStream)
}

func TestOpenChat_HistoryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	h := &mockHistory{}
	f.o.history = h
	h.On("Record", mock.Anything, "abc", mock.Anything).Return(errors.New("disk full"))

	_, err := f.o.OpenChat(context.Background(), "abc")
	assert.NoError(t, err)
}

func TestRecentChats(t *testing.T) {
	f := newFixture(t)

	entries, err := f.o.RecentChats(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	h := &mockHistory{}
	f.o.history = h
	h.On("Recent", mock.Anything, 20).Return([]history.Entry{{StreamID: "abc"}}, nil).Once()
	entries, err = f.o.RecentChats(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	h.AssertExpectations(t)
}

func TestInvoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.o.Invoke(ctx, "adjust_font_size", json.RawMessage(`{"increase":true}`))
	require.NoError(t, err)
	assert.Equal(t, 1.05, res)

	res, err = f.o.Invoke(ctx, "set_font_size", json.RawMessage(`{"font_size":0.5}`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, res)

	_, err = f.o.Invoke(ctx, "toggle_lock", json.RawMessage(`{"locked":true}`))
	require.NoError(t, err)

	_, err = f.o.Invoke(ctx, "set_message_font", json.RawMessage(`{"font_name":"Roboto"}`))
	require.NoError(t, err)

	_, err = f.o.Invoke(ctx, "set_author_color", json.RawMessage(`{"color":null}`))
	require.NoError(t, err)

	res, err = f.o.Invoke(ctx, "get_settings", nil)
	require.NoError(t, err)
	view, ok := res.(SettingsView)
	require.True(t, ok)
	assert.True(t, view.IsLocked)
	assert.Equal(t, 0.5, view.FontScale)
	assert.Equal(t, "Roboto", *view.MessageFont)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"is_locked":true`)
	assert.Contains(t, string(data), `"font_size":0.5`)
	assert.Contains(t, string(data), `"author_color":null`)
	assert.Contains(t, string(data), `"defaults":{"message_font":"Imprima"`)

	res, err = f.o.Invoke(ctx, "open_chat", json.RawMessage(`{"stream_id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/live_chat?hl=en&is_popout=1&persist_hl=1&v=abc", res)

	_, err = f.o.Invoke(ctx, "open_settings_window", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.surfaces.settingsOpen)
}

func TestInvokeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.o.Invoke(ctx, "format_disk", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = f.o.Invoke(ctx, "toggle_lock", json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = f.o.Invoke(ctx, "set_font_size", json.RawMessage(`{"font_size":"big"}`))
	assert.Error(t, err)

	_, err = f.o.Invoke(ctx, "toggle_full_chat", nil)
	assert.Error(t, err)

	assert.Contains(t, f.o.Commands(), "recent_chats")
	assert.Len(t, f.o.Commands(), 13)
}
