package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpelias/base-repeat-twitter-bot/internal/config"
)

// setupLogging installs the process-wide slog default: a text handler
// writing to both stderr and the configured log file. The returned
// closer flushes and releases the file sink; run it on every exit path,
// after the store is closed.
func setupLogging(cfg *config.Config, verbose bool) (func() error, error) {
	file, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, file), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	return func() error {
		if err := file.Sync(); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}, nil
}
