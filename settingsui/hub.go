package settingsui

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"chatoverlay/logging"
)

var upgrader = websocket.Upgrader{CheckOrigin: sameOrigin}

// sameOrigin accepts clients without an Origin header (ctl tooling) and pages
// served by this server. Other web pages may not drive the overlay.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// request is the incoming WebSocket message format.
type request struct {
	ID      int             `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// message is the outgoing WebSocket message format.
type message struct {
	ID      int         `json:"id,omitempty"`
	Type    string      `json:"type"` // "result", "error" or "event"
	Event   string      `json:"event,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(m message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(m)
}

type hub struct {
	log     *logging.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(log *logging.Logger) *hub {
	return &hub{log: log, clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) snapshot() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *hub) broadcast(m message) {
	for _, c := range h.snapshot() {
		if err := c.send(m); err != nil {
			h.log.Debugf("websocket broadcast: %v", err)
		}
	}
}

func (h *hub) closeAll() {
	for _, c := range h.snapshot() {
		_ = c.conn.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	c := &client{conn: conn}
	s.hub.add(c)
	defer func() {
		s.hub.remove(c)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("websocket read: %v", err)
			}
			return
		}

		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendWS(c, message{Type: "error", Message: "invalid message format"})
			continue
		}
		if req.Command == "" {
			s.sendWS(c, message{ID: req.ID, Type: "error", Message: "command is required"})
			continue
		}

		result, err := s.invoker.Invoke(r.Context(), req.Command, req.Args)
		if err != nil {
			s.sendWS(c, message{ID: req.ID, Type: "error", Message: err.Error()})
			continue
		}
		s.sendWS(c, message{ID: req.ID, Type: "result", Result: result})
	}
}

func (s *Server) sendWS(c *client, m message) {
	if err := c.send(m); err != nil {
		s.log.Warnf("websocket write: %v", err)
	}
}
