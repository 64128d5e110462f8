package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/jrick/logrotate/rotator"
)

const (
	rotateThresholdKB = 10 * 1024
	maxRolls          = 30
)

// teeWriter writes to stdout and to the rotating log file.
type teeWriter struct {
	rotator *rotator.Rotator
}

func (w teeWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	w.rotator.Write(p)
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default slog logger. LogOutput is "stdout" or a file
// path; a file is rotated and mirrored to stdout. The returned closer must be
// closed on shutdown.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.LogOutput != "" && cfg.LogOutput != "stdout" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogOutput), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		r, err := rotator.New(cfg.LogOutput, rotateThresholdKB, false, maxRolls)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		out = teeWriter{rotator: r}
		closer = r
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	log.SetOutput(out)
	return closer, nil
}

func parseLevel(level string) slog.Level {
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
