package overlay

import (
	"context"
	"fmt"
	"strconv"
)

// MenuAction is a tray menu entry.
type MenuAction int

const (
	MenuLock MenuAction = iota
	MenuSettings
	MenuQuit
)

func (a MenuAction) String() string {
	switch a {
	case MenuLock:
		return "lock"
	case MenuSettings:
		return "settings"
	case MenuQuit:
		return "quit"
	}
	return "unknown"
}

// ID returns the menu item identifier for a.
func (a MenuAction) ID() string {
	return strconv.Itoa(int(a))
}

// ParseMenuID maps a menu item identifier back to its action.
func ParseMenuID(id string) (MenuAction, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("invalid menu id %q", id)
	}
	a := MenuAction(n)
	switch a {
	case MenuLock, MenuSettings, MenuQuit:
		return a, nil
	}
	return 0, fmt.Errorf("unknown menu id %q", id)
}

func (o *Orchestrator) menuTable() map[MenuAction]func(context.Context) error {
	return map[MenuAction]func(context.Context) error{
		MenuLock: func(context.Context) error {
			_, err := o.ToggleLocked()
			return err
		},
		MenuSettings: func(context.Context) error {
			return o.OpenSettingsWindow()
		},
		MenuQuit: func(context.Context) error {
			if o.onQuit != nil {
				o.onQuit()
			}
			return nil
		},
	}
}

// HandleMenu runs the handler for a tray menu action.
func (o *Orchestrator) HandleMenu(ctx context.Context, action MenuAction) error {
	fn, ok := o.menu[action]
	if !ok {
		return fmt.Errorf("no handler for menu action %d", int(action))
	}
	o.log.Debugf("menu %s", action)
	return fn(ctx)
}
