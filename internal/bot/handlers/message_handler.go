package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// messageSender is the part of *bot.Bot used to answer the sender.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// NewMessageHandler returns the handler for text, photo and video messages.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

// messageHandler hands messages to the intake pipeline and sends back its reply.
type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h messageHandler) handle(ctx context.Context, s messageSender, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	if update.Message == nil {
		log.WarnContext(ctx, "Message handler received update without message", "update_id", update.ID)
		return
	}

	out := h.deps.Pipeline.Handle(ctx, MessageFromUpdate(update.Message))
	if out.Reply == "" {
		return
	}
	reply(ctx, s, log, update.Message, out.Reply)
}

// reply answers msg in its chat, quoting it.
func reply(ctx context.Context, s messageSender, log *slog.Logger, msg *models.Message, text string) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", msg.Chat.ID)
		return
	}
	log.DebugContext(ctx, "Reply sent", "chat_id", msg.Chat.ID)
}
