package overlay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStreamID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"  dQw4w9WgXcQ \n", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/live/jfKfPfyJRdk?feature=share", "jfKfPfyJRdk"},
		{"https://youtu.be/jfKfPfyJRdk", "jfKfPfyJRdk"},
		{"https://www.youtube.com/live_chat?is_popout=1&v=jfKfPfyJRdk", "jfKfPfyJRdk"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStreamID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStreamID_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"https://www.youtube.com/",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/live/",
		"https://www.youtube.com/watch?v=<script>",
		"not an id",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseStreamID(input)
			assert.True(t, errors.Is(err, ErrInvalidStream), "got %v", err)
		})
	}
}

func TestChatURL(t *testing.T) {
	got, err := ChatURL(DefaultChatBaseURL, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/live_chat?hl=en&is_popout=1&persist_hl=1&v=abc", got)

	got, err = ChatURL("https://chat.example/popout?v=old", "new")
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example/popout?v=new", got)

	_, err = ChatURL("%zz", "abc")
	assert.Error(t, err)
}

func TestMenu(t *testing.T) {
	for _, a := range []MenuAction{MenuLock, MenuSettings, MenuQuit} {
		got, err := ParseMenuID(a.ID())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseMenuID("7")
	assert.Error(t, err)
	_, err = ParseMenuID("lock")
	assert.Error(t, err)

	f := newFixture(t)
	quit := 0
	f.o.onQuit = func() { quit++ }
	ctx := context.Background()

	require.NoError(t, f.o.HandleMenu(ctx, MenuLock))
	assert.True(t, f.o.Settings().IsLocked)
	assert.True(t, f.surfaces.win.IgnoreCursor)
	require.NoError(t, f.o.HandleMenu(ctx, MenuLock))
	assert.False(t, f.o.Settings().IsLocked)
	assert.False(t, f.surfaces.win.IgnoreCursor)

	require.NoError(t, f.o.HandleMenu(ctx, MenuSettings))
	assert.Equal(t, 1, f.surfaces.settingsOpen)

	require.NoError(t, f.o.HandleMenu(ctx, MenuQuit))
	assert.Equal(t, 1, quit)

	assert.Error(t, f.o.HandleMenu(ctx, MenuAction(42)))
	assert.Equal(t, []Field{FieldLocked, FieldLocked}, f.changes)
}
