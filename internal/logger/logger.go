// Package logger builds the slog loggers used by the binaries: a coloured,
// human-readable handler for terminals and JSON for machines.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	// FormatJSON selects slog's JSON handler.
	FormatJSON = "json"
	// FormatPretty selects PrettyHandler.
	FormatPretty = "pretty"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorGray    = "\033[37m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

// Config holds logger configuration.
type Config struct {
	Writer    io.Writer
	Format    string
	Level     slog.Level
	AddSource bool
}

// New creates a logger for the given configuration. The pretty format is
// the default.
func New(cfg Config) *slog.Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, FormatJSON) {
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	} else {
		handler = NewPrettyHandler(cfg.Writer, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string to slog.Level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// PrettyHandler is a slog.Handler that writes one coloured line per record:
//
//	15:04:05 WRN retrying unit=page 3 error=HTTP 502 backoff=10s
//
// It honours HandlerOptions.AddSource and ReplaceAttr the way slog's own
// handlers do, including for the built-in time, level, source and message
// keys. Groups are rendered as dotted key prefixes.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	groups []string
	// fields holds attributes added by WithAttrs, already rendered.
	fields []byte
}

// NewPrettyHandler creates a new pretty handler. A nil opts is the zero value.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.opts.Level == nil {
		return level >= slog.LevelInfo
	}
	return level >= h.opts.Level.Level()
}

// Handle formats and writes the log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var line lineBuilder

	if !r.Time.IsZero() {
		if a, ok := h.builtin(slog.Time(slog.TimeKey, r.Time)); ok {
			v := a.Value.String()
			if a.Value.Kind() == slog.KindTime {
				v = a.Value.Time().Format("15:04:05")
			}
			line.field(colorDim, v)
		}
	}

	if a, ok := h.builtin(slog.Any(slog.LevelKey, r.Level)); ok {
		if lvl, isLevel := a.Value.Any().(slog.Level); isLevel {
			label, color := formatLevel(lvl)
			line.field(color, label)
		} else {
			line.field(colorGray, a.Value.String())
		}
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		src := &slog.Source{Function: frame.Function, File: frame.File, Line: frame.Line}
		if a, ok := h.builtin(slog.Any(slog.SourceKey, src)); ok {
			if s, isSource := a.Value.Any().(*slog.Source); isSource {
				line.field(colorDim, fmt.Sprintf("%s:%d", s.File, s.Line))
			} else {
				line.field(colorDim, a.Value.String())
			}
		}
	}

	if a, ok := h.builtin(slog.String(slog.MessageKey, r.Message)); ok {
		line.field(colorBold, a.Value.String())
	}

	attrs := h.fields
	if r.NumAttrs() > 0 {
		attrs = append([]byte(nil), h.fields...)
		r.Attrs(func(a slog.Attr) bool {
			attrs = h.appendAttr(attrs, h.groups, a)
			return true
		})
	}
	if len(attrs) > 0 {
		line.field(colorCyan, string(attrs[1:]))
	}

	line.buf = append(line.buf, '\n')

	// Concurrent workers share one writer
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(line.buf)
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.fields = append([]byte(nil), h.fields...)
	for _, a := range attrs {
		h2.fields = h.appendAttr(h2.fields, h.groups, a)
	}
	return &h2
}

// WithGroup returns a handler that prefixes later attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}

// builtin runs a top-level record field through ReplaceAttr. ok is false
// when the replacement dropped it.
func (h *PrettyHandler) builtin(a slog.Attr) (slog.Attr, bool) {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}
	return a, a.Key != ""
}

// appendAttr renders " key=value" for a, recursing into groups.
func (h *PrettyHandler) appendAttr(buf []byte, groups []string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		if len(members) == 0 {
			return buf
		}
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, m := range members {
			buf = h.appendAttr(buf, groups, m)
		}
		return buf
	}

	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}
	if a.Equal(slog.Attr{}) || a.Key == "" {
		return buf
	}

	buf = append(buf, ' ')
	for _, g := range groups {
		buf = append(buf, g...)
		buf = append(buf, '.')
	}
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return append(buf, formatValue(a.Value)...)
}

// lineBuilder joins coloured fields with single spaces.
type lineBuilder struct {
	buf []byte
}

func (l *lineBuilder) field(color, text string) {
	if len(l.buf) > 0 {
		l.buf = append(l.buf, ' ')
	}
	l.buf = append(l.buf, color...)
	l.buf = append(l.buf, text...)
	l.buf = append(l.buf, colorReset...)
}

func formatLevel(level slog.Level) (label, color string) {
	switch level {
	case slog.LevelDebug:
		return "DBG", colorMagenta
	case slog.LevelInfo:
		return "INF", colorGreen
	case slog.LevelWarn:
		return "WRN", colorYellow
	case slog.LevelError:
		return "ERR", colorRed
	default:
		return level.String(), colorGray
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.String()
	}
}
