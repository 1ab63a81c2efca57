// Package window applies preference-driven modes to the overlay window and
// the chat page it hosts.
package window

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"chatoverlay/prefs"
)

// Handle is the capability set the overlay needs from a native window that
// embeds a web page.
type Handle interface {
	SetIgnoreCursorEvents(ignore bool) error
	SetDecorations(decorated bool) error
	SetAlwaysOnTop(onTop bool) error
	SetShadow(shadow bool) error
	Eval(js string) error
	Reload() error
	URL() (string, error)
}

// Lock switches h between the locked configuration (click-through,
// borderless, always on top, no shadow) and the normal one. All four
// properties are attempted; failures are joined and nothing is rolled back.
func Lock(h Handle, locked bool) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"ignore cursor events", func() error { return h.SetIgnoreCursorEvents(locked) }},
		{"decorations", func() error { return h.SetDecorations(!locked) }},
		{"always on top", func() error { return h.SetAlwaysOnTop(locked) }},
		{"shadow", func() error { return h.SetShadow(!locked) }},
	}

	var errs []error
	for _, s := range steps {
		if err := s.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

const chatFilterScript = `(function () {
  var links = document.querySelectorAll('#chat-messages #menu a');
  for (var i = 0; i < links.length; i++) {
    if ((links[i].innerText || '').toLowerCase().indexOf('%s') !== -1) {
      links[i].click();
      return;
    }
  }
})();`

const fontScaleScript = `(function () {
  var contents = document.querySelector('#contents');
  if (contents) {
    contents.style.zoom = %s;
  }
  var scroller = document.querySelector('#item-scroller');
  if (scroller) {
    scroller.scrollBy(0, scroller.scrollHeight);
  }
})();`

// ChatFilterScript returns the script that picks the "Live chat" (full) or
// "Top chat" view from the chat page's menu. It does nothing when the menu
// has not been rendered.
func ChatFilterScript(full bool) string {
	label := "top chat"
	if full {
		label = "live chat"
	}
	return fmt.Sprintf(chatFilterScript, label)
}

// FontScaleScript returns the script that zooms the chat contents and keeps
// the view pinned to the newest message.
func FontScaleScript(scale float64) string {
	scale = prefs.ClampFontScale(scale)
	return fmt.Sprintf(fontScaleScript, strconv.FormatFloat(scale, 'f', -1, 64))
}

// ApplyChatFilter evaluates ChatFilterScript in h.
func ApplyChatFilter(h Handle, full bool) error {
	return h.Eval(ChatFilterScript(full))
}

// ApplyFontScale evaluates FontScaleScript in h.
func ApplyFontScale(h Handle, scale float64) error {
	return h.Eval(FontScaleScript(scale))
}

// NavigateScript returns the script that replaces the current document with
// url without adding a history entry.
func NavigateScript(url string) string {
	quoted, _ := json.Marshal(url)
	return fmt.Sprintf("window.location.replace(%s);", quoted)
}

// Navigate evaluates NavigateScript in h.
func Navigate(h Handle, url string) error {
	return h.Eval(NavigateScript(url))
}
