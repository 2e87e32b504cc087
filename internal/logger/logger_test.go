package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json", Level: slog.LevelInfo})

	log.Info("fetched page", "page", 3)

	assert.Contains(t, buf.String(), `"msg":"fetched page"`)
	assert.Contains(t, buf.String(), `"page":3`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_PrettyIsDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Level: slog.LevelInfo})

	log.Warn("retrying", "unit", "page 3", "error", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "retrying")
	assert.Contains(t, out, "unit=page 3")
	assert.Contains(t, out, "error=boom")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Level: slog.LevelWarn})

	log.Info("hidden")
	log.Debug("hidden too")
	assert.Empty(t, buf.String())

	log.Error("shown")
	assert.Contains(t, buf.String(), "ERR")
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf}).With("phase", "download")

	log.Info("skipping existing", "id", 21)

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Less(t, strings.Index(out, "phase=download"), strings.Index(out, "id=21"))
}

func TestNew_PrettyAddSource(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, AddSource: true})

	log.Info("hello")

	out := buf.String()
	assert.Contains(t, out, "logger_test.go:")
	assert.NotContains(t, out, "/logger_test.go")
}

func TestPrettyHandler_ReplaceAttr(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch {
			case len(groups) == 0 && a.Key == slog.TimeKey:
				return slog.Attr{}
			case a.Key == "secret":
				return slog.String("secret", "***")
			case a.Key == "noise":
				return slog.Attr{}
			}
			return a
		},
	})
	log := slog.New(h)

	log.Info("login", "user", "ana", "secret", "hunter2", "noise", 1)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, colorGreen+"INF"), out)
	assert.Contains(t, out, "user=ana")
	assert.Contains(t, out, "secret=***")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "noise")
}

func TestPrettyHandler_DropsMessageAndLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
				return slog.Attr{}
			}
			return a
		},
	})

	slog.New(h).Warn("gone", "page", 2)

	out := buf.String()
	assert.NotContains(t, out, "WRN")
	assert.NotContains(t, out, "gone")
	assert.Contains(t, out, "page=2")
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	var seen [][]string
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "id" {
				seen = append(seen, groups)
			}
			return a
		},
	})

	slog.New(h).WithGroup("asset").Info("saved", "id", 7, slog.Group("size", "w", 225))

	out := buf.String()
	assert.Contains(t, out, "asset.id=7")
	assert.Contains(t, out, "asset.size.w=225")
	require.Len(t, seen, 1)
	assert.Equal(t, []string{"asset"}, seen[0])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	require.NotNil(t, log)
	log.Error("nobody hears this")
}
