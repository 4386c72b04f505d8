package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/config"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FormatText
	default:
		return FormatJSON
	}
}

// ParseLevel acepta debug|info|warn|warning|error; cualquier otra cosa es info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New arma el logger del proceso y lo deja como slog.Default.
func New(cfg config.LogConfig) *slog.Logger {
	l := NewWithWriter(os.Stdout, cfg)
	slog.SetDefault(l)
	return l
}

// NewWithWriter no toca el default; sirve para tests.
func NewWithWriter(w io.Writer, cfg config.LogConfig) *slog.Logger {
	format := ParseFormat(cfg.Format)
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: format == FormatText,
	}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)
	if app := strings.TrimSpace(cfg.App); app != "" {
		l = l.With("app", app)
	}
	return l
}
