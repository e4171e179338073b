// Package logger provides structured logging for the notification relay.
// It uses Go's slog package and writes every record to two sinks: the
// console (tint, coloured when attached to a terminal) and a plain-text
// log file.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"

	"github.com/edgard/notifybot/internal/config"
)

// LogFileName is the file created inside the configured log directory.
const LogFileName = "notify_bot.log"

// ParseLevel maps a config level string to a slog.Level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the application logger. The console sink writes to
// stdout; the file sink appends to cfg.Dir/notify_bot.log, creating the
// directory if needed. The returned closer releases the log file.
func NewLogger(cfg config.LoggerConfig) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory %s: %w", cfg.Dir, err)
	}

	path := filepath.Join(cfg.Dir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	colour := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return New(ParseLevel(cfg.Level), cfg.JSON, os.Stdout, colour, file), file, nil
}

// New builds a logger from explicit writers. A nil fileOut disables the file sink.
func New(level slog.Level, jsonOutput bool, consoleOut io.Writer, colour bool, fileOut io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if jsonOutput {
		console = slog.NewJSONHandler(consoleOut, opts)
	} else {
		console = tint.NewHandler(consoleOut, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    !colour,
		})
	}

	if fileOut == nil {
		return slog.New(console)
	}
	return slog.New(slogmulti.Fanout(console, slog.NewTextHandler(fileOut, opts)))
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs information about incoming updates for debugging purposes.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)

			updateType := "other"
			if msg := update.Message; msg != nil {
				updateType = "message"
				var username string
				var userID int64
				if msg.From != nil {
					username = msg.From.Username
					userID = msg.From.ID
				}
				logEntry = logEntry.With(
					"message_id", msg.ID,
					"chat_id", msg.Chat.ID,
					"chat_type", msg.Chat.Type,
					"user_id", userID,
					"username", username,
					"has_photo", len(msg.Photo) > 0,
					"has_video", msg.Video != nil,
					"text_preview", truncateString(firstNonEmpty(msg.Text, msg.Caption), 50),
				)
			}
			logEntry = logEntry.With("update_type", updateType)

			logEntry.InfoContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
