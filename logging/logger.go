package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes leveled, component-tagged lines to the session log file.
// All components of one process share the same file.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	debug     bool
	echo      io.Writer
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	logDir   string
	logDirMu sync.Mutex

	debugEnabled bool
	echoWriter   io.Writer
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Configure sets the log directory, debug level and an optional writer that
// receives a copy of every line. It affects loggers created afterwards.
func Configure(dir string, debug bool, echo io.Writer) {
	logDirMu.Lock()
	defer logDirMu.Unlock()
	logDir = dir
	debugEnabled = debug
	echoWriter = echo
}

func directory() (string, error) {
	logDirMu.Lock()
	defer logDirMu.Unlock()

	if logDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to get config directory: %w", err)
		}
		logDir = filepath.Join(dir, "chatoverlay", "logs")
	}
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return logDir, nil
}

// NewLogger creates a logger for component writing to
// <log dir>/<session-id>-chatoverlay.log. If the file cannot be opened it
// returns a stderr logger along with the error.
func NewLogger(component string) (*Logger, error) {
	dir, err := directory()
	if err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(dir, fmt.Sprintf("%s-chatoverlay.log", sessID))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	logDirMu.Lock()
	debug, echo := debugEnabled, echoWriter
	logDirMu.Unlock()

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
		debug:     debug,
		echo:      echo,
	}, nil
}

// MustLogger is NewLogger without the error; failures fall back to stderr.
func MustLogger(component string) *Logger {
	l, _ := NewLogger(component)
	return l
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    logger,
	}
	l.Warnf("file logging unavailable, using stderr: %v", err)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{component: "discard", logger: log.New(io.Discard, "", 0)}
}

func (l *Logger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	entry := fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, fmt.Sprintf(format, v...))
	l.logger.Println(entry)
	if l.echo != nil {
		fmt.Fprintln(l.echo, entry)
	}
}

// Debugf logs a debug-level message when debug logging is enabled.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if !l.debug {
		return
	}
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) { l.write("INFO", format, v...) }

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) { l.write("WARN", format, v...) }

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) { l.write("ERROR", format, v...) }

// With returns a logger for a sub-component sharing the same file.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: l.component + "/" + component,
		logger:    l.logger,
		logPath:   l.logPath,
		debug:     l.debug,
		echo:      l.echo,
	}
}

// SessionID returns the process-wide session ID.
func (l *Logger) SessionID() string { return l.sessionID }

// LogPath returns the log file path, or "" in fallback mode.
func (l *Logger) LogPath() string { return l.logPath }

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
