package overlay

// Field identifies a preference that changed.
type Field int

const (
	FieldLocked Field = iota
	FieldFullChat
	FieldFontScale
	FieldMessageFont
	FieldAuthorFont
	FieldBackgroundColor
	FieldMessageColor
	FieldAuthorColor
)

var fieldNames = map[Field]string{
	FieldLocked:          "locked",
	FieldFullChat:        "full_chat",
	FieldFontScale:       "font_size",
	FieldMessageFont:     "message_font",
	FieldAuthorFont:      "author_font",
	FieldBackgroundColor: "background_color",
	FieldMessageColor:    "message_color",
	FieldAuthorColor:     "author_color",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// ReloadsPage reports whether a change to f only takes effect by reloading
// the page so the style sheet is injected again.
func (f Field) ReloadsPage() bool {
	switch f {
	case FieldMessageFont, FieldAuthorFont, FieldBackgroundColor, FieldMessageColor, FieldAuthorColor:
		return true
	}
	return false
}
