package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/notifybot/internal/config"
	"github.com/edgard/notifybot/internal/intake"
)

// Processor runs an inbound message through the intake gates.
// *intake.Pipeline implements it.
type Processor interface {
	Handle(ctx context.Context, msg *intake.Message) intake.Outcome
}

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Pipeline Processor
}
