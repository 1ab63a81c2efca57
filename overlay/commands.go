package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"chatoverlay/history"
	"chatoverlay/prefs"
	"chatoverlay/window"
)

// ErrUnknownCommand is returned by Invoke for names it does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// SettingsView is the get_settings result: the persisted preferences plus
// the session-only lock state and the fallbacks used for unset fields.
type SettingsView struct {
	prefs.Preferences
	IsLocked bool          `json:"is_locked"`
	Defaults StyleDefaults `json:"defaults"`
}

// StyleDefaults lists the fallbacks for unset style preferences.
type StyleDefaults struct {
	MessageFont     string `json:"message_font"`
	AuthorFont      string `json:"author_font"`
	BackgroundColor string `json:"background_color"`
	MessageColor    string `json:"message_color"`
	AuthorColor     string `json:"author_color"`
}

var styleDefaults = StyleDefaults{
	MessageFont:     DefaultMessageFont,
	AuthorFont:      DefaultAuthorFont,
	BackgroundColor: DefaultBackgroundColor,
	MessageColor:    DefaultMessageColor,
	AuthorColor:     DefaultAuthorColor,
}

// OpenChat navigates the main window to the chat of the stream named by
// input (an id or a stream URL) and records it in the history.
func (o *Orchestrator) OpenChat(ctx context.Context, input string) (string, error) {
	id, err := ParseStreamID(input)
	if err != nil {
		return "", err
	}
	chatURL, err := ChatURL(o.chatBaseURL, id)
	if err != nil {
		return "", err
	}

	h, err := o.mainWindow()
	if err != nil {
		return "", err
	}
	if err := window.Navigate(h, chatURL); err != nil {
		return "", fmt.Errorf("opening chat %s: %w", id, err)
	}
	o.log.Infof("opened chat %s", id)

	if o.history != nil {
		if err := o.history.Record(ctx, id, chatURL); err != nil {
			o.log.Warnf("recording history: %v", err)
		} else if err := o.history.Prune(ctx, o.historyLimit); err != nil {
			o.log.Warnf("pruning history: %v", err)
		}
	}
	return chatURL, nil
}

// Settings returns the current preferences.
func (o *Orchestrator) Settings() SettingsView {
	snap := o.store.Get()
	return SettingsView{Preferences: snap, IsLocked: snap.Locked, Defaults: styleDefaults}
}

// SetLocked locks or unlocks the main window.
func (o *Orchestrator) SetLocked(locked bool) error {
	_, err := o.change(FieldLocked, func(p *prefs.Preferences) { p.Locked = locked })
	return err
}

// ToggleLocked flips the lock state and returns the new value.
func (o *Orchestrator) ToggleLocked() (bool, error) {
	snap, err := o.change(FieldLocked, func(p *prefs.Preferences) { p.Locked = !p.Locked })
	return snap.Locked, err
}

// SetFullChat selects the full (true) or filtered (false) chat view.
func (o *Orchestrator) SetFullChat(full bool) error {
	_, err := o.change(FieldFullChat, func(p *prefs.Preferences) { p.FullChat = full })
	return err
}

// AdjustFontSize steps the font scale up or down and returns the new value.
func (o *Orchestrator) AdjustFontSize(increase bool) (float64, error) {
	snap, err := o.change(FieldFontScale, func(p *prefs.Preferences) {
		p.FontScale = prefs.StepFontScale(p.FontScale, increase)
	})
	return snap.FontScale, err
}

// SetFontSize sets the font scale, clamped, and returns the stored value.
func (o *Orchestrator) SetFontSize(scale float64) (float64, error) {
	snap, err := o.change(FieldFontScale, func(p *prefs.Preferences) { p.FontScale = scale })
	return snap.FontScale, err
}

// SetMessageFont sets the message font; nil or blank restores the default.
func (o *Orchestrator) SetMessageFont(name *string) error {
	return o.setStyle(FieldMessageFont, name, func(p *prefs.Preferences, v *string) { p.MessageFont = v })
}

// SetAuthorFont sets the author font; nil or blank restores the default.
func (o *Orchestrator) SetAuthorFont(name *string) error {
	return o.setStyle(FieldAuthorFont, name, func(p *prefs.Preferences, v *string) { p.AuthorFont = v })
}

// SetBackgroundColor sets the chat background; nil or blank restores the default.
func (o *Orchestrator) SetBackgroundColor(color *string) error {
	return o.setStyle(FieldBackgroundColor, color, func(p *prefs.Preferences, v *string) { p.BackgroundColor = v })
}

// SetMessageColor sets the message text color; nil or blank restores the default.
func (o *Orchestrator) SetMessageColor(color *string) error {
	return o.setStyle(FieldMessageColor, color, func(p *prefs.Preferences, v *string) { p.MessageColor = v })
}

// SetAuthorColor sets the author name color; nil or blank restores the default.
func (o *Orchestrator) SetAuthorColor(color *string) error {
	return o.setStyle(FieldAuthorColor, color, func(p *prefs.Preferences, v *string) { p.AuthorColor = v })
}

func (o *Orchestrator) setStyle(field Field, value *string, set func(*prefs.Preferences, *string)) error {
	var v *string
	if value != nil {
		v = prefs.String(strings.TrimSpace(*value))
	}
	_, err := o.change(field, func(p *prefs.Preferences) { set(p, v) })
	return err
}

// OpenSettingsWindow focuses or creates the settings window.
func (o *Orchestrator) OpenSettingsWindow() error {
	if err := o.surfaces.OpenSettings(); err != nil {
		return fmt.Errorf("opening settings window: %w", err)
	}
	return nil
}

// RecentChats returns recently opened streams, newest first. A non-positive
// limit uses the configured one.
func (o *Orchestrator) RecentChats(ctx context.Context, limit int) ([]history.Entry, error) {
	if o.history == nil {
		return []history.Entry{}, nil
	}
	if limit <= 0 {
		limit = o.historyLimit
	}
	return o.history.Recent(ctx, limit)
}

type commandFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

type openChatArgs struct {
	StreamID string `json:"stream_id"`
}

type lockArgs struct {
	Locked *bool `json:"locked"`
}

type fullChatArgs struct {
	FullChat *bool `json:"full_chat"`
}

type adjustFontArgs struct {
	Increase bool `json:"increase"`
}

type fontSizeArgs struct {
	FontSize *float64 `json:"font_size"`
}

type fontNameArgs struct {
	FontName *string `json:"font_name"`
}

type colorArgs struct {
	Color *string `json:"color"`
}

type limitArgs struct {
	Limit int `json:"limit"`
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (o *Orchestrator) commandTable() map[string]commandFunc {
	styleCommand := func(set func(*string) error) commandFunc {
		return func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a colorArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, set(a.Color)
		}
	}
	fontCommand := func(set func(*string) error) commandFunc {
		return func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a fontNameArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, set(a.FontName)
		}
	}

	return map[string]commandFunc{
		"open_chat": func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var a openChatArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			chatURL, err := o.OpenChat(ctx, a.StreamID)
			if err != nil {
				return nil, err
			}
			return chatURL, nil
		},
		"get_settings": func(context.Context, json.RawMessage) (interface{}, error) {
			return o.Settings(), nil
		},
		"toggle_lock": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a lockArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			if a.Locked == nil {
				return nil, fmt.Errorf("invalid arguments: locked is required")
			}
			return nil, o.SetLocked(*a.Locked)
		},
		"toggle_full_chat": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a fullChatArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			if a.FullChat == nil {
				return nil, fmt.Errorf("invalid arguments: full_chat is required")
			}
			return nil, o.SetFullChat(*a.FullChat)
		},
		"adjust_font_size": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a adjustFontArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return o.AdjustFontSize(a.Increase)
		},
		"set_font_size": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a fontSizeArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			if a.FontSize == nil {
				return nil, fmt.Errorf("invalid arguments: font_size is required")
			}
			return o.SetFontSize(*a.FontSize)
		},
		"set_message_font":     fontCommand(o.SetMessageFont),
		"set_author_font":      fontCommand(o.SetAuthorFont),
		"set_background_color": styleCommand(o.SetBackgroundColor),
		"set_message_color":    styleCommand(o.SetMessageColor),
		"set_author_color":     styleCommand(o.SetAuthorColor),
		"open_settings_window": func(context.Context, json.RawMessage) (interface{}, error) {
			return nil, o.OpenSettingsWindow()
		},
		"recent_chats": func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var a limitArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return o.RecentChats(ctx, a.Limit)
		},
	}
}

// Invoke runs the named command with JSON object arguments.
func (o *Orchestrator) Invoke(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	fn, ok := o.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	o.log.Debugf("invoke %s %s", name, string(args))
	return fn(ctx, args)
}

// Commands returns the names Invoke serves, sorted.
func (o *Orchestrator) Commands() []string {
	names := make([]string, 0, len(o.commands))
	for name := range o.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
