//go:build !linux || !cgo

package webview

import (
	"github.com/sqweek/dialog"

	"chatoverlay/overlay"
	"chatoverlay/window"
)

// Shell is unavailable on this platform; New always fails.
type Shell struct {
	opts Options
}

// New returns ErrUnsupported.
func New(opts Options) (*Shell, error) {
	opts.defaults()
	return nil, ErrUnsupported
}

func (s *Shell) OnPageLoaded(func(url string)) {}
func (s *Shell) SetSettingsURL(string)         {}
func (s *Shell) Navigate(string) error         { return ErrUnsupported }
func (s *Shell) Run()                          {}
func (s *Shell) Terminate()                    {}
func (s *Shell) Destroy()                      {}

func (s *Shell) MainWindow() (window.Handle, error) {
	return nil, overlay.ErrWindowNotFound
}

func (s *Shell) OpenSettings() error {
	return ErrUnsupported
}

func (s *Shell) ShowError(title, message string) {
	dialog.Message("%s", message).Title(title).Error()
}
