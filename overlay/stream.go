package overlay

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidStream is returned when no stream id can be found in the input.
var ErrInvalidStream = errors.New("invalid url")

var streamIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseStreamID extracts a stream id from a bare id or a watch, live,
// live_chat or short-link URL.
func ParseStreamID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrInvalidStream
	}
	if streamIDPattern.MatchString(s) {
		return s, nil
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStream, err)
	}

	var id string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case u.Query().Get("v") != "":
		id = u.Query().Get("v")
	case strings.TrimPrefix(u.Hostname(), "www.") == "youtu.be" && len(segments) > 0:
		id = segments[0]
	case len(segments) >= 2 && segments[0] == "live":
		id = segments[1]
	}

	if !streamIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStream, input)
	}
	return id, nil
}

// ChatURL returns the chat page URL for streamID under base.
func ChatURL(base, streamID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing chat base url: %w", err)
	}
	q := u.Query()
	q.Set("v", streamID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
