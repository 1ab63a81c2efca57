// Package overlay keeps the embedded chat page and the overlay window in
// step with the stored preferences.
//
// Two events drive it. When the page finishes loading, the style sheet is
// rendered from the current preferences and injected, and the chat filter
// and font scale are re-applied. When a preference changes, either the
// matching effect is applied in place or, for fields that only take effect
// through the injected style sheet, the page is reloaded once so the
// page-load path injects the new sheet.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chatoverlay/history"
	"chatoverlay/logging"
	"chatoverlay/prefs"
	"chatoverlay/render"
	"chatoverlay/window"
)

// ErrWindowNotFound is returned when the main overlay window does not exist.
var ErrWindowNotFound = errors.New("window not found")

// Fallbacks for unset preferences.
const (
	DefaultMessageFont     = "Imprima"
	DefaultAuthorFont      = "Changa One"
	DefaultBackgroundColor = "rgba(0,0,0,0)"
	DefaultMessageColor    = "#ffffff"
	DefaultAuthorColor     = "#cccccc"
)

// Defaults used when no configuration overrides them.
const (
	DefaultChatBaseURL       = "https://www.youtube.com/live_chat?is_popout=1&hl=en&persist_hl=1"
	DefaultTargetPattern     = "youtube.com/live_chat"
	DefaultFontImportBaseURL = "https://fonts.googleapis.com/css2?family="
)

// Surfaces gives access to the application's windows.
type Surfaces interface {
	// MainWindow returns the overlay window, or an error wrapping
	// ErrWindowNotFound when it does not exist.
	MainWindow() (window.Handle, error)
	// OpenSettings focuses the settings window, creating it if needed.
	OpenSettings() error
}

// Dialog shows blocking messages to the user.
type Dialog interface {
	ShowError(title, message string)
}

// History remembers opened streams.
type History interface {
	Record(ctx context.Context, streamID, url string) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Prune(ctx context.Context, keep int) error
}

// Logger is the logging surface the orchestrator writes to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Options configures an Orchestrator. Store, Renderer and Surfaces are
// required.
type Options struct {
	Store    *prefs.Store
	Renderer *render.Renderer
	Surfaces Surfaces
	Dialog   Dialog
	History  History
	Logger   Logger

	ChatBaseURL       string
	TargetPattern     string
	FontImportBaseURL string
	HistoryLimit      int

	// OnChange is called after every stored preference change.
	OnChange func(field Field, p prefs.Preferences)
	// OnQuit is called for the quit menu action.
	OnQuit func()
}

// Orchestrator reacts to page loads and preference changes.
type Orchestrator struct {
	store    *prefs.Store
	renderer *render.Renderer
	surfaces Surfaces
	dialog   Dialog
	history  History
	log      Logger

	chatBaseURL   string
	targetPattern string
	fontBaseURL   string
	historyLimit  int

	onChange func(Field, prefs.Preferences)
	onQuit   func()

	commands map[string]commandFunc
	menu     map[MenuAction]func(context.Context) error

	// effects serializes store updates with their window effects so the
	// window always ends in the state that was stored last.
	effects sync.Mutex
}

// New builds an Orchestrator from opts.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("overlay: preference store is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("overlay: renderer is required")
	}
	if opts.Surfaces == nil {
		return nil, fmt.Errorf("overlay: surfaces are required")
	}

	o := &Orchestrator{
		store:         opts.Store,
		renderer:      opts.Renderer,
		surfaces:      opts.Surfaces,
		dialog:        opts.Dialog,
		history:       opts.History,
		log:           opts.Logger,
		chatBaseURL:   opts.ChatBaseURL,
		targetPattern: opts.TargetPattern,
		fontBaseURL:   opts.FontImportBaseURL,
		historyLimit:  opts.HistoryLimit,
		onChange:      opts.OnChange,
		onQuit:        opts.OnQuit,
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	if o.chatBaseURL == "" {
		o.chatBaseURL = DefaultChatBaseURL
	}
	if o.targetPattern == "" {
		o.targetPattern = DefaultTargetPattern
	}
	if o.fontBaseURL == "" {
		o.fontBaseURL = DefaultFontImportBaseURL
	}
	if o.historyLimit <= 0 {
		o.historyLimit = 20
	}

	o.commands = o.commandTable()
	o.menu = o.menuTable()
	return o, nil
}

// Store returns the preference store the orchestrator mutates.
func (o *Orchestrator) Store() *prefs.Store { return o.store }

// IsTarget reports whether url is a chat page that receives injections.
func (o *Orchestrator) IsTarget(url string) bool {
	return strings.Contains(url, o.targetPattern)
}

// PageLoaded injects the style sheet and re-applies the chat filter and font
// scale when url is a chat page. Style injection is attempted first and its
// failure does not prevent the other two.
func (o *Orchestrator) PageLoaded(url string) {
	if !o.IsTarget(url) {
		o.log.Debugf("page loaded, not a chat page: %s", url)
		return
	}

	h, err := o.surfaces.MainWindow()
	if err != nil {
		o.log.Errorf("page loaded: %v", err)
		return
	}

	snap := o.store.Get()
	o.log.Debugf("page loaded: %s", url)

	script, err := o.renderer.Render(StyleInputs(snap, o.fontBaseURL))
	if err != nil {
		o.log.Errorf("rendering style injection: %v", err)
		script = ""
	}
	if err := h.Eval(script); err != nil {
		o.log.Errorf("injecting style: %v", err)
		if o.dialog != nil {
			o.dialog.ShowError("Style injection failed", fmt.Sprintf("Failed to inject chat style: %v", err))
		}
	}

	if err := window.ApplyChatFilter(h, snap.FullChat); err != nil {
		o.log.Warnf("applying chat filter: %v", err)
	}
	if err := window.ApplyFontScale(h, snap.FontScale); err != nil {
		o.log.Warnf("applying font scale: %v", err)
	}
}

// PreferenceChanged applies the effect of a change to field, given the
// snapshot taken right after the change.
func (o *Orchestrator) PreferenceChanged(field Field, snap prefs.Preferences) error {
	h, err := o.mainWindow()
	if err != nil {
		return err
	}
	return o.apply(h, field, snap)
}

func (o *Orchestrator) apply(h window.Handle, field Field, snap prefs.Preferences) error {
	if field.ReloadsPage() {
		if err := h.Reload(); err != nil {
			return fmt.Errorf("reloading page: %w", err)
		}
		return nil
	}

	switch field {
	case FieldLocked:
		if err := window.Lock(h, snap.Locked); err != nil {
			return fmt.Errorf("setting lock to %t: %w", snap.Locked, err)
		}
	case FieldFullChat:
		if err := window.ApplyChatFilter(h, snap.FullChat); err != nil {
			return fmt.Errorf("applying chat filter: %w", err)
		}
	case FieldFontScale:
		if err := window.ApplyFontScale(h, snap.FontScale); err != nil {
			return fmt.Errorf("applying font scale: %w", err)
		}
	default:
		return fmt.Errorf("unknown preference field %d", field)
	}
	return nil
}

// change mutates and persists the preferences, then applies the effect.
// In-place fields need the main window and fail before anything is stored
// when it is missing. Reload-class fields are stored first, so a missing
// window only loses the reload. A persistence failure is returned after the
// effect has been applied; the in-memory change always stands.
func (o *Orchestrator) change(field Field, fn func(*prefs.Preferences)) (prefs.Preferences, error) {
	o.effects.Lock()
	defer o.effects.Unlock()

	var h window.Handle
	if !field.ReloadsPage() {
		var err error
		if h, err = o.mainWindow(); err != nil {
			return o.store.Get(), err
		}
	}

	snap, persistErr := o.store.Update(fn)
	if persistErr != nil {
		o.log.Errorf("saving preferences: %v", persistErr)
	}
	if o.onChange != nil {
		o.onChange(field, snap)
	}

	if h == nil {
		var err error
		if h, err = o.mainWindow(); err != nil {
			o.log.Warnf("%s stored, page not reloaded: %v", field, err)
			return snap, errors.Join(err, persistErr)
		}
	}

	effectErr := o.apply(h, field, snap)
	if effectErr != nil {
		o.log.Warnf("%s: %v", field, effectErr)
	}
	return snap, errors.Join(effectErr, persistErr)
}

func (o *Orchestrator) mainWindow() (window.Handle, error) {
	h, err := o.surfaces.MainWindow()
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrWindowNotFound, err)
	}
	if h == nil {
		return nil, ErrWindowNotFound
	}
	return h, nil
}

// ResetWindow puts the main window into the unlocked configuration.
func (o *Orchestrator) ResetWindow() error {
	o.effects.Lock()
	defer o.effects.Unlock()

	h, err := o.mainWindow()
	if err != nil {
		return err
	}
	if err := window.Lock(h, false); err != nil {
		return fmt.Errorf("unlocking window: %w", err)
	}
	return nil
}

// StyleInputs derives the renderer inputs from p, substituting defaults for
// unset fields.
func StyleInputs(p prefs.Preferences, fontBaseURL string) render.StyleInputs {
	messageFont := prefs.Value(p.MessageFont, DefaultMessageFont)
	authorFont := prefs.Value(p.AuthorFont, DefaultAuthorFont)

	return render.StyleInputs{
		AuthorFontImportURL:  FontImportURL(fontBaseURL, authorFont),
		MessageFontImportURL: FontImportURL(fontBaseURL, messageFont),
		BackgroundColor:      prefs.Value(p.BackgroundColor, DefaultBackgroundColor),
		MessageFontFamily:    FontFamily(messageFont),
		AuthorColor:          prefs.Value(p.AuthorColor, DefaultAuthorColor),
		AuthorFontFamily:     FontFamily(authorFont),
		MessageColor:         prefs.Value(p.MessageColor, DefaultMessageColor),
	}
}

// FontImportURL returns the web font import URL for name.
func FontImportURL(base, name string) string {
	return base + strings.ReplaceAll(name, " ", "+")
}

// FontFamily returns name as a quoted CSS font family.
func FontFamily(name string) string {
	return `"` + name + `"`
}
