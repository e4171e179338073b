// Package handlers contains Telegram update handlers, their registration
// table and middleware.
package handlers

import (
	"context"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover creates a middleware that logs and swallows panics raised by the
// wrapped handler, so a single bad update never stops the polling loop.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					attrs := []any{"panic", r, "update_id", update.ID, "stack", string(debug.Stack())}
					if update.Message != nil {
						attrs = append(attrs, "chat_id", update.Message.Chat.ID, "message_id", update.Message.ID)
					}
					deps.Logger.With("middleware", "Recover").ErrorContext(ctx, "Update handler panicked", attrs...)
				}
			}()
			next(ctx, bot, update)
		}
	}
}
