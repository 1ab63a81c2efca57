package prefs

import "math"

// Font scale bounds and the step used by the tray/settings +/- controls.
const (
	MinFontScale     = 0.1
	MaxFontScale     = 5.0
	DefaultFontScale = 1.0
	FontScaleStep    = 0.05
)

// Preferences holds every user display preference. Locked is transient and
// never written to disk.
type Preferences struct {
	Locked          bool    `json:"-"`
	FullChat        bool    `json:"is_full_chat"`
	FontScale       float64 `json:"font_size"`
	MessageFont     *string `json:"message_font"`
	AuthorFont      *string `json:"author_font"`
	BackgroundColor *string `json:"background_color"`
	MessageColor    *string `json:"message_color"`
	AuthorColor     *string `json:"author_color"`
}

// Default returns the first-run preferences.
func Default() Preferences {
	return Preferences{
		Locked:    false,
		FullChat:  true,
		FontScale: DefaultFontScale,
	}
}

// ClampFontScale pins v into [MinFontScale, MaxFontScale]. NaN maps to the default.
func ClampFontScale(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultFontScale
	}
	return math.Min(math.Max(v, MinFontScale), MaxFontScale)
}

// StepFontScale moves v one step up or down, rounded to two decimals and clamped.
func StepFontScale(v float64, increase bool) float64 {
	if increase {
		v += FontScaleStep
	} else {
		v -= FontScaleStep
	}
	return ClampFontScale(math.Round(v*100) / 100)
}

// Clone returns a deep copy; the optional fields do not alias p's.
func (p Preferences) Clone() Preferences {
	c := p
	c.MessageFont = cloneString(p.MessageFont)
	c.AuthorFont = cloneString(p.AuthorFont)
	c.BackgroundColor = cloneString(p.BackgroundColor)
	c.MessageColor = cloneString(p.MessageColor)
	c.AuthorColor = cloneString(p.AuthorColor)
	return c
}

// String returns a pointer to a copy of s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences s, falling back to def when it is nil or empty.
func Value(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
