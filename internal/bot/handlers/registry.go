package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes one entry of the handler table together with
// its middleware. When Match is set it takes precedence over Pattern.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	MatchType   tgbot.MatchType
	Match       tgbot.MatchFunc
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
}

// RegisterAll returns the handler table keyed by event kind: the /start
// command, plain text that is not a command, and photo or video messages.
func RegisterAll(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)
	mw := []tgbot.Middleware{Recover(deps)}
	messageHandler := NewMessageHandler(deps)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Handler:     NewStartHandler(deps),
		Middleware:  mw,
	}
	handlers["text"] = RegisteredHandler{
		Match:      IsPlainText,
		Handler:    messageHandler,
		Middleware: mw,
	}
	handlers["media"] = RegisteredHandler{
		Match:      HasMedia,
		Handler:    messageHandler,
		Middleware: mw,
	}

	deps.Logger.Info("Initialized update handlers", "count", len(handlers))
	return handlers
}
