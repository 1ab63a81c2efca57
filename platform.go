package main

import (
	"chatoverlay/config"
	"chatoverlay/logging"
	"chatoverlay/overlay"
	"chatoverlay/webview"
)

// Platform abstracts the native windows: the overlay window, the settings
// window and error dialogs.
type Platform interface {
	overlay.Surfaces
	overlay.Dialog

	OnPageLoaded(fn func(url string))
	SetSettingsURL(url string)
	Navigate(url string) error
	Run()
	Terminate()
	Destroy()
}

// NewPlatform creates the desktop shell sized from cfg.
func NewPlatform(cfg *config.Config, log *logging.Logger) (Platform, error) {
	shell, err := webview.New(webview.Options{
		Title:          cfg.Window.Title,
		Width:          cfg.Window.Width,
		Height:         cfg.Window.Height,
		SettingsTitle:  cfg.Settings.Title,
		SettingsWidth:  cfg.Settings.Width,
		SettingsHeight: cfg.Settings.Height,
		Debug:          cfg.Log.Debug,
		Log:            log,
	})
	if err != nil {
		return nil, err
	}
	return shell, nil
}
