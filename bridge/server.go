package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"chatoverlay/logging"
)

// Server listens on a Unix socket and routes requests via a Router.
type Server struct {
	router   Router
	listener net.Listener
	sockPath string
	log      *logging.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer creates a Server bound to sockPath. A stale socket file left by
// a previous run is removed first.
func NewServer(sockPath string, router Router, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(sockPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating socket directory: %w", err)
	}
	_ = os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", sockPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		router:   router,
		listener: listener,
		sockPath: sockPath,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.sockPath }

// Serve accepts connections and handles them. Blocks until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Listener was closed.
			return err
		}
		s.track(conn, true)
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Close shuts down the server: closes the listener and open connections,
// waits for handlers, removes the socket.
func (s *Server) Close() {
	s.cancel()
	_ = s.listener.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	_ = os.Remove(s.sockPath)
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.track(conn, false)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		resp := s.handleRequest(scanner.Bytes())

		data, err := json.Marshal(resp)
		if err != nil {
			data, _ = json.Marshal(Response{
				Type:    "Error",
				Code:    -1,
				Message: err.Error(),
			})
		}
		data = append(data, '\n')

		if _, err := conn.Write(data); err != nil {
			return
		}
	}
}

func (s *Server) handleRequest(line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{
			Type:    "Error",
			Code:    CodeParseError,
			Message: "parse error: " + err.Error(),
		}
	}

	switch req.Type {
	case "Invoke":
		result, err := s.router.Invoke(s.ctx, req.Name, req.Arguments)
		if err != nil {
			s.log.Warnf("%s: %v", req.Name, err)
			return Response{
				Type:    "Error",
				Code:    CodeCommandFailed,
				Message: err.Error(),
			}
		}
		data, err := json.Marshal(result)
		if err != nil {
			return Response{
				Type:    "Error",
				Code:    CodeCommandFailed,
				Message: "encoding result: " + err.Error(),
			}
		}
		return Response{
			Type:   "Result",
			Result: data,
		}

	case "Commands":
		return Response{
			Type:     "Commands",
			Commands: s.router.Commands(),
		}

	case "Ping":
		return Response{Type: "Pong"}

	default:
		s.log.Warnf("unknown request type: %s", req.Type)
		return Response{
			Type:    "Error",
			Code:    CodeUnknownRequest,
			Message: "unknown request type: " + req.Type,
		}
	}
}
