package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/systray"

	"chatoverlay/bridge"
	"chatoverlay/config"
	"chatoverlay/history"
	"chatoverlay/logging"
	"chatoverlay/overlay"
	"chatoverlay/prefs"
	"chatoverlay/render"
	"chatoverlay/settingsui"
)

// App is the main tray application state.
type App struct {
	cfg      *config.Config
	log      *logging.Logger
	platform Platform
	orch     *overlay.Orchestrator
	ui       *settingsui.Server
	bridge   *bridge.Server
	history  *history.DB

	mu        sync.Mutex
	menuItems map[overlay.MenuAction]*systray.MenuItem
	quitOnce  sync.Once
}

func runTrayApp(cfg *config.Config) error {
	fmt.Fprintf(os.Stderr, "[chatoverlay] starting tray app\n")

	logging.Configure(cfg.LogDir(), cfg.Log.Debug, nil)
	log := logging.MustLogger("app")
	defer log.Close()
	log.Infof("session %s, data dir %s", log.SessionID(), cfg.DataDir)

	app := &App{cfg: cfg, log: log}

	store := prefs.Open(cfg.PrefsPath())
	fmt.Fprintf(os.Stderr, "[chatoverlay] preferences loaded from %s\n", store.Path())

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("loading style templates: %w", err)
	}

	var hist overlay.History
	if cfg.History.Enabled {
		db, err := history.Open(cfg.HistoryPath())
		if err != nil {
			log.Warnf("recent chats disabled: %v", err)
		} else {
			app.history = db
			hist = db
		}
	}

	platform, err := NewPlatform(cfg, log.With("webview"))
	if err != nil {
		return fmt.Errorf("creating windows: %w", err)
	}
	app.platform = platform
	fmt.Fprintf(os.Stderr, "[chatoverlay] platform initialized\n")

	orch, err := overlay.New(overlay.Options{
		Store:             store,
		Renderer:          renderer,
		Surfaces:          platform,
		Dialog:            platform,
		History:           hist,
		Logger:            log.With("overlay"),
		ChatBaseURL:       cfg.Chat.BaseURL,
		TargetPattern:     cfg.Chat.TargetPattern,
		FontImportBaseURL: cfg.Fonts.ImportBaseURL,
		HistoryLimit:      cfg.History.Limit,
		OnChange:          app.onPrefsChanged,
		OnQuit:            app.quit,
	})
	if err != nil {
		platform.Destroy()
		return err
	}
	app.orch = orch
	platform.OnPageLoaded(orch.PageLoaded)

	// Settings and launcher pages.
	app.ui = settingsui.New(orch, log.With("settings"))
	base, err := app.ui.Start(cfg.Settings.ListenAddr)
	if err != nil {
		app.cleanup()
		return fmt.Errorf("starting settings server: %w", err)
	}
	platform.SetSettingsURL(app.ui.SettingsURL())
	fmt.Fprintf(os.Stderr, "[chatoverlay] settings server on %s\n", base)

	// Control socket for `chatoverlay ctl`.
	bs, err := bridge.NewServer(cfg.SocketPath(), orch, log.With("bridge"))
	if err != nil {
		log.Warnf("control socket disabled: %v", err)
	} else {
		app.bridge = bs
		go func() {
			if err := bs.Serve(); err != nil {
				log.Errorf("control socket: %v", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "[chatoverlay] bridge server started\n")
	}

	// The window always starts unlocked so it can be moved into place.
	if err := orch.ResetWindow(); err != nil {
		log.Warnf("resetting window: %v", err)
	}
	if err := platform.Navigate(app.ui.LauncherURL()); err != nil {
		app.cleanup()
		return fmt.Errorf("opening launcher: %w", err)
	}

	fmt.Fprintf(os.Stderr, "[chatoverlay] setting up tray icon\n")
	startTray, endTray := systray.RunWithExternalLoop(app.onTrayReady, app.onTrayExit)
	startTray()

	// Block on the platform run loop (must be on main thread).
	fmt.Fprintf(os.Stderr, "[chatoverlay] entering run loop\n")
	platform.Run()

	endTray()
	app.cleanup()
	log.Infof("exited")
	return nil
}

// onTrayReady builds the tray menu.
func (a *App) onTrayReady() {
	if icon, err := CreateIconPNG(); err == nil {
		systray.SetIcon(icon)
	} else {
		a.log.Warnf("tray icon: %v", err)
	}
	systray.SetTitle("Chat Overlay")
	systray.SetTooltip(a.cfg.Window.Title)

	items := map[overlay.MenuAction]*systray.MenuItem{
		overlay.MenuLock: systray.AddMenuItemCheckbox("Lock window", "Click-through and always on top",
			a.orch.Store().Get().Locked),
		overlay.MenuSettings: systray.AddMenuItem("Open Settings", "Open the settings window"),
	}
	systray.AddSeparator()
	items[overlay.MenuQuit] = systray.AddMenuItem("Quit", "Quit chatoverlay")

	a.mu.Lock()
	a.menuItems = items
	a.mu.Unlock()

	for action, item := range items {
		go func(action overlay.MenuAction, item *systray.MenuItem) {
			for range item.ClickedCh {
				a.onMenuClick(action)
			}
		}(action, item)
	}
	fmt.Fprintf(os.Stderr, "[chatoverlay] menu built\n")
}

func (a *App) onTrayExit() {
	a.log.Debugf("tray removed")
}

// onMenuClick runs the orchestrator's handler for a tray menu entry.
func (a *App) onMenuClick(action overlay.MenuAction) {
	err := a.orch.HandleMenu(context.Background(), action)
	if err == nil {
		return
	}
	a.log.Warnf("menu %s: %v", action, err)
	if !errors.Is(err, overlay.ErrWindowNotFound) {
		a.platform.ShowError("YouTube Chat Overlay", err.Error())
	}
}

// onPrefsChanged keeps the tray checkbox and open settings pages in step
// with the stored preferences.
func (a *App) onPrefsChanged(field overlay.Field, p prefs.Preferences) {
	if field == overlay.FieldLocked {
		a.mu.Lock()
		item := a.menuItems[overlay.MenuLock]
		a.mu.Unlock()
		if item != nil {
			if p.Locked {
				item.Check()
			} else {
				item.Uncheck()
			}
		}
	}
	if a.ui != nil {
		a.ui.Broadcast("settings_changed", a.orch.Settings())
	}
}

func (a *App) quit() {
	a.quitOnce.Do(func() {
		a.log.Infof("quit requested")
		a.platform.Terminate()
	})
}

func (a *App) cleanup() {
	if a.bridge != nil {
		a.bridge.Close()
	}
	if a.ui != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.ui.Shutdown(ctx); err != nil {
			a.log.Warnf("stopping settings server: %v", err)
		}
		cancel()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warnf("closing history: %v", err)
		}
	}
	if a.platform != nil {
		a.platform.Destroy()
	}
}
