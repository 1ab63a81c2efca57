//go:build linux && cgo

package webview

/*
#cgo pkg-config: gtk+-3.0 webkit2gtk-4.0
#include <gtk/gtk.h>
#include <webkit2/webkit2.h>

static int overlay_gtk_init(void) {
	return gtk_init_check(NULL, NULL) ? 1 : 0;
}

// Windows are created here so the RGBA visual is set before realization.
static GtkWidget *overlay_new_window(int transparent) {
	GtkWidget *win = gtk_window_new(GTK_WINDOW_TOPLEVEL);
	if (transparent) {
		GdkScreen *screen = gtk_widget_get_screen(win);
		GdkVisual *visual = gdk_screen_get_rgba_visual(screen);
		if (visual != NULL && gdk_screen_is_composited(screen)) {
			gtk_widget_set_visual(win, visual);
			gtk_widget_set_app_paintable(win, TRUE);
		}
	}
	return win;
}

static GtkWidget *overlay_new_settings_window(void) {
	GtkWidget *win = overlay_new_window(0);
	g_signal_connect(win, "delete-event", G_CALLBACK(gtk_widget_hide_on_delete), NULL);
	return win;
}

static void overlay_clear_background(void *win) {
	GtkWidget *child = gtk_bin_get_child(GTK_BIN(win));
	if (child == NULL) {
		return;
	}
	GdkRGBA clear = {0, 0, 0, 0};
	webkit_web_view_set_background_color(WEBKIT_WEB_VIEW(child), &clear);
}

static void overlay_set_click_through(void *win, int ignore) {
	GtkWidget *w = GTK_WIDGET(win);
	if (ignore) {
		cairo_region_t *empty = cairo_region_create();
		gtk_widget_input_shape_combine_region(w, empty);
		cairo_region_destroy(empty);
	} else {
		gtk_widget_input_shape_combine_region(w, NULL);
	}
}

static void overlay_set_decorated(void *win, int decorated) {
	gtk_window_set_decorated(GTK_WINDOW(win), decorated);
}

static void overlay_set_keep_above(void *win, int above) {
	gtk_window_set_keep_above(GTK_WINDOW(win), above);
}

static void overlay_present(void *win) {
	gtk_widget_show_all(GTK_WIDGET(win));
	gtk_window_present(GTK_WINDOW(win));
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/sqweek/dialog"
	webview "github.com/webview/webview_go"

	"chatoverlay/overlay"
	"chatoverlay/window"
)

// Shell owns the GTK main loop, the overlay window and the lazily created
// settings window. Methods other than Run may be called from any goroutine
// except the GTK thread itself.
type Shell struct {
	opts Options

	main    webview.WebView
	mainWin unsafe.Pointer

	settings    webview.WebView
	settingsWin unsafe.Pointer
	settingsURL string

	mu     sync.Mutex
	onLoad func(url string)
	url    string

	running atomic.Bool
	stopped chan struct{}
}

var (
	_ overlay.Surfaces = (*Shell)(nil)
	_ overlay.Dialog   = (*Shell)(nil)
)

// New creates the overlay window. It must be called on the main OS thread.
func New(opts Options) (*Shell, error) {
	opts.defaults()

	if C.overlay_gtk_init() == 0 {
		return nil, errors.New("failed to initialise GTK")
	}

	win := unsafe.Pointer(C.overlay_new_window(1))
	wv := webview.NewWindow(opts.Debug, win)
	if wv == nil {
		return nil, errors.New("failed to create web view")
	}
	wv.SetTitle(opts.Title)
	wv.SetSize(opts.Width, opts.Height, webview.HintNone)
	C.overlay_clear_background(win)

	s := &Shell{
		opts:    opts,
		main:    wv,
		mainWin: win,
		stopped: make(chan struct{}),
	}

	wv.Init(pageLoadedScript)
	if err := wv.Bind(pageLoadedBinding, s.pageLoaded); err != nil {
		wv.Destroy()
		return nil, fmt.Errorf("failed to bind page load callback: %w", err)
	}
	return s, nil
}

// pageLoaded runs on the GTK thread; the callback gets its own goroutine so
// it can call back into the window.
func (s *Shell) pageLoaded(url string) {
	s.mu.Lock()
	s.url = url
	fn := s.onLoad
	s.mu.Unlock()

	s.opts.Log.Debugf("page loaded: %s", url)
	if fn != nil {
		go fn(url)
	}
}

// OnPageLoaded registers fn to run after every page load in the overlay
// window.
func (s *Shell) OnPageLoaded(fn func(url string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoad = fn
}

// SetSettingsURL sets the page the settings window shows.
func (s *Shell) SetSettingsURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsURL = url
}

// Navigate loads url in the overlay window.
func (s *Shell) Navigate(url string) error {
	return s.onMain(func() error {
		s.main.Navigate(url)
		return nil
	})
}

// Run blocks in the GTK main loop until the overlay window is closed or
// Terminate is called.
func (s *Shell) Run() {
	s.running.Store(true)
	s.main.Run()
	s.running.Store(false)
	close(s.stopped)
}

// Terminate stops the main loop.
func (s *Shell) Terminate() {
	if !s.running.Load() {
		s.main.Terminate()
		return
	}
	s.main.Dispatch(s.main.Terminate)
}

// Destroy releases both web views. Call it after Run returns.
func (s *Shell) Destroy() {
	if s.settings != nil {
		s.settings.Destroy()
	}
	s.main.Destroy()
}

func (s *Shell) closed() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

// onMain runs fn on the GTK thread and waits for it. Before Run starts the
// caller is the GTK thread, so fn runs inline.
func (s *Shell) onMain(fn func() error) error {
	if s.closed() {
		return overlay.ErrWindowNotFound
	}
	if !s.running.Load() {
		return fn()
	}
	done := make(chan error, 1)
	s.main.Dispatch(func() { done <- fn() })
	select {
	case err := <-done:
		return err
	case <-s.stopped:
		return overlay.ErrWindowNotFound
	}
}

// MainWindow returns the overlay window, or overlay.ErrWindowNotFound once it
// has been closed.
func (s *Shell) MainWindow() (window.Handle, error) {
	if s.closed() {
		return nil, overlay.ErrWindowNotFound
	}
	return &nativeWindow{s: s}, nil
}

// OpenSettings shows the settings window, creating it on first use.
func (s *Shell) OpenSettings() error {
	s.mu.Lock()
	url := s.settingsURL
	s.mu.Unlock()
	if url == "" {
		return errors.New("settings page not available")
	}

	return s.onMain(func() error {
		if s.settings == nil {
			win := unsafe.Pointer(C.overlay_new_settings_window())
			wv := webview.NewWindow(s.opts.Debug, win)
			if wv == nil {
				return errors.New("failed to create settings view")
			}
			wv.SetTitle(s.opts.SettingsTitle)
			wv.SetSize(s.opts.SettingsWidth, s.opts.SettingsHeight, webview.HintNone)
			wv.Navigate(url)
			s.settings = wv
			s.settingsWin = win
		}
		C.overlay_present(s.settingsWin)
		return nil
	})
}

// ShowError shows a modal error dialog.
func (s *Shell) ShowError(title, message string) {
	err := s.onMain(func() error {
		dialog.Message("%s", message).Title(title).Error()
		return nil
	})
	if err != nil {
		s.opts.Log.Errorf("%s: %s", title, message)
	}
}

func cBool(v bool) C.int {
	if v {
		return 1
	}
	return 0
}

// nativeWindow adapts the overlay window to window.Handle.
type nativeWindow struct {
	s *Shell
}

func (w *nativeWindow) SetIgnoreCursorEvents(ignore bool) error {
	return w.s.onMain(func() error {
		C.overlay_set_click_through(w.s.mainWin, cBool(ignore))
		return nil
	})
}

func (w *nativeWindow) SetDecorations(decorated bool) error {
	return w.s.onMain(func() error {
		C.overlay_set_decorated(w.s.mainWin, cBool(decorated))
		return nil
	})
}

func (w *nativeWindow) SetAlwaysOnTop(onTop bool) error {
	return w.s.onMain(func() error {
		C.overlay_set_keep_above(w.s.mainWin, cBool(onTop))
		return nil
	})
}

// SetShadow is a no-op; GTK leaves shadows to the window manager.
func (w *nativeWindow) SetShadow(bool) error {
	return nil
}

func (w *nativeWindow) Eval(js string) error {
	return w.s.onMain(func() error {
		w.s.main.Eval(js)
		return nil
	})
}

func (w *nativeWindow) Reload() error {
	return w.Eval("window.location.reload();")
}

// URL reports the address of the last page that finished loading.
func (w *nativeWindow) URL() (string, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.url, nil
}
