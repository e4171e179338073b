package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/notifybot/internal/config"
	"github.com/edgard/notifybot/internal/intake"
)

type fakeSender struct {
	sent []*tgbot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *tgbot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: 99}, nil
}

type fakeProcessor struct {
	got []*intake.Message
	out intake.Outcome
}

func (p *fakeProcessor) Handle(_ context.Context, msg *intake.Message) intake.Outcome {
	p.got = append(p.got, msg)
	return p.out
}

func testDeps(p Processor) HandlerDeps {
	return HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   &config.Config{Messages: config.DefaultMessages},
		Pipeline: p,
	}
}

func privateMessage() *models.Message {
	return &models.Message{
		ID:   7,
		Date: int(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC).Unix()),
		From: &models.User{ID: 1, Username: "alice"},
		Chat: models.Chat{ID: 1001, Type: models.ChatTypePrivate},
		Text: "Leak in basement",
	}
}

func TestMessageHandler_RepliesWithOutcome(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{out: intake.Outcome{Status: intake.StatusSent, Reply: "Your message has been sent to [x@y]"}}
	s := &fakeSender{}
	h := messageHandler{testDeps(p)}

	h.handle(context.Background(), s, &models.Update{ID: 1, Message: privateMessage()})

	require.Len(t, p.got, 1)
	assert.Equal(t, "Leak in basement", p.got[0].Text)

	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(1001), s.sent[0].ChatID)
	assert.Equal(t, "Your message has been sent to [x@y]", s.sent[0].Text)
	require.NotNil(t, s.sent[0].ReplyParameters)
	assert.Equal(t, 7, s.sent[0].ReplyParameters.MessageID)
}

func TestMessageHandler_SilentOutcomes(t *testing.T) {
	t.Parallel()

	for _, status := range []intake.Status{intake.StatusIgnoredChat, intake.StatusStale} {
		p := &fakeProcessor{out: intake.Outcome{Status: status}}
		s := &fakeSender{}

		messageHandler{testDeps(p)}.handle(context.Background(), s, &models.Update{Message: privateMessage()})

		assert.Len(t, p.got, 1)
		assert.Empty(t, s.sent, "status %s must not reply", status)
	}
}

func TestMessageHandler_NilMessage(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{}
	s := &fakeSender{}
	messageHandler{testDeps(p)}.handle(context.Background(), s, &models.Update{ID: 3})

	assert.Empty(t, p.got)
	assert.Empty(t, s.sent)
}

func TestMessageHandler_ReplyErrorIsLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	deps := testDeps(&fakeProcessor{out: intake.Outcome{Reply: "nope"}})
	deps.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	messageHandler{deps}.handle(context.Background(), &fakeSender{err: errors.New("network down")},
		&models.Update{Message: privateMessage()})

	assert.Contains(t, buf.String(), "Failed to send reply")
	assert.Contains(t, buf.String(), "network down")
}

func TestStartHandler_Greets(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	msg := privateMessage()
	msg.Text = "/start"

	startHandler{testDeps(nil)}.handle(context.Background(), s, &models.Update{Message: msg})

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Hello! I am listening to all messages.", s.sent[0].Text)
}

func TestRecover_SwallowsPanics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	deps := testDeps(nil)
	deps.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	h := Recover(deps)(func(context.Context, *tgbot.Bot, *models.Update) {
		panic("boom")
	})

	require.NotPanics(t, func() {
		h(context.Background(), nil, &models.Update{ID: 5, Message: privateMessage()})
	})
	assert.Contains(t, buf.String(), "Update handler panicked")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "update_id=5")
}

func TestMessageFromUpdate(t *testing.T) {
	t.Parallel()

	m := privateMessage()
	m.Text = ""
	m.Caption = "Broken pipe"
	m.Photo = []models.PhotoSize{
		{FileID: "small", Width: 90, Height: 60},
		{FileID: "large", Width: 1280, Height: 960},
	}
	m.Video = &models.Video{FileID: "clip"}

	got := MessageFromUpdate(m)

	assert.Equal(t, 7, got.ID)
	assert.Equal(t, int64(1001), got.ChatID)
	assert.Equal(t, intake.ChatTypePrivate, got.ChatType)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Date.Equal(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Broken pipe", got.Caption)
	assert.Equal(t, []intake.Photo{
		{FileID: "small", Width: 90, Height: 60},
		{FileID: "large", Width: 1280, Height: 960},
	}, got.Photos)
	require.NotNil(t, got.Video)
	assert.Equal(t, "clip", got.Video.FileID)

	m.From = nil
	assert.Empty(t, MessageFromUpdate(m).Username)
}

func TestMatchers(t *testing.T) {
	t.Parallel()

	command := privateMessage()
	command.Text = "/start"
	command.Entities = []models.MessageEntity{{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: 6}}

	photo := privateMessage()
	photo.Text = ""
	photo.Photo = []models.PhotoSize{{FileID: "p"}}

	video := privateMessage()
	video.Text = ""
	video.Video = &models.Video{FileID: "v"}

	tests := []struct {
		name      string
		update    *models.Update
		plainText bool
		media     bool
	}{
		{"text", &models.Update{Message: privateMessage()}, true, false},
		{"command", &models.Update{Message: command}, false, false},
		{"photo", &models.Update{Message: photo}, false, true},
		{"video", &models.Update{Message: video}, false, true},
		{"no message", &models.Update{}, false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.plainText, IsPlainText(tt.update), tt.name)
		assert.Equal(t, tt.media, HasMedia(tt.update), tt.name)
	}
}

func TestRegisterAll(t *testing.T) {
	t.Parallel()

	table := RegisterAll(testDeps(&fakeProcessor{}))

	require.Len(t, table, 3)
	start := table["/start"]
	assert.Equal(t, "start", start.Pattern)
	assert.Equal(t, tgbot.MatchTypeCommandStartOnly, start.MatchType)
	assert.NotNil(t, start.Handler)

	for _, name := range []string{"text", "media"} {
		assert.NotNil(t, table[name].Match, name)
		assert.NotNil(t, table[name].Handler, name)
		assert.Len(t, table[name].Middleware, 1, name)
	}
}
