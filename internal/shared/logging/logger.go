package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBufferSize = 1000

// Config is passed explicitly to New; nothing here is read from globals.
type Config struct {
	// Verbose enables debug records on the console.
	Verbose bool
	// Console receives human-readable records. Nil keeps the console silent,
	// which JSON mode relies on.
	Console io.Writer
	// BufferSize bounds the in-memory history kept for crash logs.
	BufferSize int
	// CrashDir is where WriteCrashLog puts its files.
	CrashDir string
	// RunID tags the crash log. Empty generates one.
	RunID   string
	Version string
}

// Logger wraps slog.Logger and remembers the most recent records so they can
// be dumped to a crash log.
type Logger struct {
	*slog.Logger
	history *ring
	cfg     Config
}

func New(cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	history := newRing(cfg.BufferSize)
	handlers := []slog.Handler{
		slog.NewTextHandler(history, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	if cfg.Console != nil {
		level := slog.LevelInfo
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		handlers = append(handlers, slog.NewTextHandler(cfg.Console, &slog.HandlerOptions{Level: level}))
	}

	return &Logger{
		Logger:  slog.New(&teeHandler{handlers: handlers}),
		history: history,
		cfg:     cfg,
	}
}

// Discard returns a logger that keeps history but never prints.
func Discard() *Logger {
	return New(Config{BufferSize: 64})
}

func (l *Logger) RunID() string {
	return l.cfg.RunID
}

// Note records a line of user-facing output in the crash history without
// emitting a log record.
func (l *Logger) Note(line string) {
	l.history.add(time.Now().UTC().Format(time.RFC3339) + " OUTPUT " + line)
}

// History returns the buffered lines, oldest first.
func (l *Logger) History() []string {
	return l.history.snapshot()
}

// WriteCrashLog dumps the buffered history to a timestamped file and returns
// its path.
func (l *Logger) WriteCrashLog(reason string) (string, error) {
	dir := l.cfg.CrashDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log directory %q: %w", dir, err)
	}

	now := time.Now().UTC()
	path := filepath.Join(dir, now.Format("20060102_150405.000")+".log")
	lines := l.History()

	var b strings.Builder
	b.WriteString("=== am CRASH LOG ===\n")
	fmt.Fprintf(&b, "Run ID: %s\n", l.cfg.RunID)
	if l.cfg.Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", l.cfg.Version)
	}
	fmt.Fprintf(&b, "Time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Reason: %s\n", reason)
	fmt.Fprintf(&b, "Entries: %d\n", len(lines))
	b.WriteString("====================\n\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("write crash log %q: %w", path, err)
	}
	return path, nil
}

// ring is a fixed-size line buffer. slog handlers write one record per call.
type ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func newRing(size int) *ring {
	return &ring{lines: make([]string, size)}
}

func (r *ring) Write(p []byte) (int, error) {
	r.add(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (r *ring) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[:r.next]...)
}

// teeHandler sends each record to every handler that accepts its level.
type teeHandler struct {
	handlers []slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, next := range h.handlers {
		if next.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, next := range h.handlers {
		if !next.Enabled(ctx, r.Level) {
			continue
		}
		if err := next.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, next := range h.handlers {
		out[i] = next.WithAttrs(attrs)
	}
	return &teeHandler{handlers: out}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, next := range h.handlers {
		out[i] = next.WithGroup(name)
	}
	return &teeHandler{handlers: out}
}
