// Package bridge exposes the overlay's command surface on a Unix socket so
// a running instance can be scripted from the command line.
package bridge

import (
	"context"
	"encoding/json"
	"path/filepath"
)

// Request is the wire format for requests sent over the Unix socket, one
// JSON object per line.
type Request struct {
	Type      string          `json:"type"`                // "Invoke", "Commands", "Ping"
	Name      string          `json:"name,omitempty"`      // command name for Invoke
	Arguments json.RawMessage `json:"arguments,omitempty"` // command arguments for Invoke
}

// Response is the wire format for responses sent over the Unix socket.
type Response struct {
	Type     string          `json:"type"`               // "Result", "Commands", "Pong", "Error"
	Result   json.RawMessage `json:"result,omitempty"`   // JSON-encoded command result
	Commands []string        `json:"commands,omitempty"` // served command names
	Code     int             `json:"code,omitempty"`     // error code
	Message  string          `json:"message,omitempty"`  // error message
}

// Error codes, following JSON-RPC.
const (
	CodeParseError     = -32700
	CodeUnknownRequest = -32601
	CodeCommandFailed  = -32603
)

// Router handles bridge requests. Implemented by the overlay orchestrator.
type Router interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (interface{}, error)
	Commands() []string
}

// SocketName is the socket file created inside the data directory.
const SocketName = "chatoverlay.sock"

// SocketPath returns the bridge socket path inside dir.
func SocketPath(dir string) string {
	return filepath.Join(dir, SocketName)
}
