package handlers

import (
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/notifybot/internal/intake"
)

// MessageFromUpdate converts a Telegram message into the intake view.
func MessageFromUpdate(m *models.Message) *intake.Message {
	msg := &intake.Message{
		ID:       m.ID,
		ChatID:   m.Chat.ID,
		ChatType: string(m.Chat.Type),
		Date:     time.Unix(int64(m.Date), 0).UTC(),
		Text:     m.Text,
		Caption:  m.Caption,
	}
	if m.From != nil {
		msg.Username = m.From.Username
	}
	for _, p := range m.Photo {
		msg.Photos = append(msg.Photos, intake.Photo{FileID: p.FileID, Width: p.Width, Height: p.Height})
	}
	if m.Video != nil {
		msg.Video = &intake.Video{FileID: m.Video.FileID}
	}
	return msg
}

// IsPlainText matches text messages that are not bot commands.
func IsPlainText(update *models.Update) bool {
	if update.Message == nil || update.Message.Text == "" {
		return false
	}
	return !isCommand(update.Message)
}

// HasMedia matches messages carrying a photo or a video.
func HasMedia(update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	return len(update.Message.Photo) > 0 || update.Message.Video != nil
}

func isCommand(m *models.Message) bool {
	for _, e := range m.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}
