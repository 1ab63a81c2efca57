// Package webview hosts the overlay and settings pages in native web view
// windows and exposes them to the orchestrator.
package webview

import (
	"errors"

	"chatoverlay/logging"
)

// ErrUnsupported is returned by New on platforms without a native shell.
var ErrUnsupported = errors.New("desktop shell not supported on this platform")

// Options configures the shell windows.
type Options struct {
	Title  string
	Width  int
	Height int

	SettingsTitle  string
	SettingsWidth  int
	SettingsHeight int

	Debug bool
	Log   *logging.Logger
}

func (o *Options) defaults() {
	if o.Title == "" {
		o.Title = "YouTube Chat Overlay"
	}
	if o.Width <= 0 {
		o.Width = 400
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.SettingsTitle == "" {
		o.SettingsTitle = "YouTube Chat Overlay Settings"
	}
	if o.SettingsWidth <= 0 {
		o.SettingsWidth = 500
	}
	if o.SettingsHeight <= 0 {
		o.SettingsHeight = 800
	}
	if o.Log == nil {
		o.Log = logging.Discard()
	}
}

// pageLoadedBinding is the function the page calls after every load.
const pageLoadedBinding = "__chatOverlayPageLoaded"

// pageLoadedScript runs at the start of every document in the main window.
const pageLoadedScript = `window.addEventListener('load', function () {
  if (typeof window.` + pageLoadedBinding + ` === 'function') {
    window.` + pageLoadedBinding + `(window.location.href);
  }
});`
