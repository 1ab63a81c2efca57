// Package settingsui serves the launcher and settings pages shown in the
// overlay's web views, together with the JSON and WebSocket endpoints those
// pages use to run overlay commands.
package settingsui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"chatoverlay/logging"
	"chatoverlay/overlay"
)

// Invoker runs overlay commands. Implemented by *overlay.Orchestrator.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (interface{}, error)
}

// Server is the local HTTP server behind the overlay's own pages.
type Server struct {
	invoker    Invoker
	log        *logging.Logger
	router     chi.Router
	hub        *hub
	httpServer *http.Server
	baseURL    string
}

// New creates a Server that runs commands through invoker.
func New(invoker Invoker, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		invoker: invoker,
		log:     log,
		hub:     newHub(log),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", s.handleLauncher)
	r.Get("/settings", s.handleSettings)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleGetSettings)
		r.Get("/recent", s.handleRecent)
		r.Post("/invoke/{command}", s.handleInvoke)
	})

	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr and serves in the background. It returns the base
// URL, which carries the real port when addr asks for port 0.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.baseURL = "http://" + ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("settings server: %v", err)
		}
	}()
	s.log.Infof("settings server listening on %s", s.baseURL)
	return s.baseURL, nil
}

// BaseURL returns the URL the server listens on, or "" before Start.
func (s *Server) BaseURL() string { return s.baseURL }

// LauncherURL returns the launcher page URL.
func (s *Server) LauncherURL() string { return s.baseURL + "/" }

// SettingsURL returns the settings page URL.
func (s *Server) SettingsURL() string { return s.baseURL + "/settings" }

// Shutdown closes WebSocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Broadcast pushes an event to every connected page.
func (s *Server) Broadcast(event string, payload interface{}) {
	s.hub.broadcast(message{Type: "event", Event: event, Result: payload})
}

func (s *Server) handleLauncher(w http.ResponseWriter, r *http.Request) {
	recent, err := s.invoker.Invoke(r.Context(), "recent_chats", nil)
	if err != nil {
		s.log.Warnf("loading recent chats: %v", err)
		recent = []interface{}{}
	}
	writeHTML(w, renderLauncherHTML(recent))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.invoker.Invoke(r.Context(), "get_settings", nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, renderSettingsHTML(settings))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, "get_settings", nil)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	var args json.RawMessage
	if q := r.URL.Query().Get("limit"); q != "" {
		limit, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		args = json.RawMessage(fmt.Sprintf(`{"limit":%d}`, limit))
	}
	s.respond(w, r, "recent_chats", args)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	s.respond(w, r, chi.URLParam(r, "command"), body)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, command string, args json.RawMessage) {
	result, err := s.invoker.Invoke(r.Context(), command, args)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, overlay.ErrUnknownCommand):
			status = http.StatusNotFound
		case errors.Is(err, overlay.ErrWindowNotFound):
			status = http.StatusConflict
		case errors.Is(err, overlay.ErrInvalidStream):
			status = http.StatusBadRequest
		}
		s.log.Warnf("%s: %v", command, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}
