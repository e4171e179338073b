// Package tasks implements the scheduled maintenance tasks of the relay
// and their registration table.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/notifybot/internal/config"
)

// Prober checks that the SMTP account can log in. *mail.Sender implements it.
type Prober interface {
	Probe(ctx context.Context, username, password string) error
	Host() string
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Prober Prober
}
