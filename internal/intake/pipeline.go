package intake

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/notifybot/internal/config"
	"github.com/edgard/notifybot/internal/mail"
	"github.com/edgard/notifybot/internal/metrics"
)

const (
	subjectPrefix     = "Meldung/Information an "
	subjectTextLength = 20
)

// Status is the terminal state of one processed message.
type Status string

const (
	StatusIgnoredChat    Status = "ignored_chat_type"
	StatusUnauthorized   Status = "unauthorized"
	StatusStale          Status = "stale"
	StatusEmpty          Status = "empty"
	StatusDownloadFailed Status = "download_failed"
	StatusIncomplete     Status = "incomplete"
	StatusSendFailed     Status = "send_failed"
	StatusSent           Status = "sent"
)

// Outcome describes what happened to a message. An empty Reply means the
// sender gets no answer.
type Outcome struct {
	Status      Status
	Reply       string
	Attachments []string
}

// Downloader stores a remote file at dest.
type Downloader interface {
	Download(ctx context.Context, fileID, dest string) error
}

// Notifier sends the notification mail. *mail.Composer implements it.
type Notifier interface {
	Notify(ctx context.Context, n mail.Notification) error
}

// Pipeline applies the intake gates to inbound messages. It is safe for
// concurrent use; the only shared state is the attachment directory.
type Pipeline struct {
	cfg        *config.Config
	downloader Downloader
	notifier   Notifier
	clock      clockwork.Clock
	logger     *slog.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for message age and file timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg *config.Config, downloader Downloader, notifier Notifier, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:        cfg,
		downloader: downloader,
		notifier:   notifier,
		clock:      clockwork.NewRealClock(),
		logger:     logger.With("component", "intake"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle runs msg through the gates and, when all pass, sends the mail.
func (p *Pipeline) Handle(ctx context.Context, msg *Message) Outcome {
	log := p.logger.With(
		"intake_id", uuid.NewString(),
		"message_id", msg.ID,
		"chat_id", msg.ChatID,
		"username", msg.Username,
	)
	out := p.handle(ctx, log, msg)
	metrics.MessagesHandled.WithLabelValues(string(out.Status)).Inc()
	log.InfoContext(ctx, "Message processed", "outcome", out.Status, "attachments", len(out.Attachments))
	return out
}

func (p *Pipeline) handle(ctx context.Context, log *slog.Logger, msg *Message) Outcome {
	if msg.ChatType != ChatTypePrivate {
		log.WarnContext(ctx, "Ignored message from non-private chat", "chat_type", msg.ChatType)
		return Outcome{Status: StatusIgnoredChat}
	}

	if !p.cfg.IsAuthorized(msg.Username) {
		log.WarnContext(ctx, "Ignored message from unauthorized user", "authorized_user", p.cfg.AuthorizedUser)
		return Outcome{Status: StatusUnauthorized, Reply: p.cfg.Messages.NotAuthorized}
	}

	now := p.clock.Now()
	age := now.UTC().Sub(msg.Date.UTC())
	log.DebugContext(ctx, "Message age", "age", age)
	if age > p.cfg.Bot.MaxMessageAge {
		log.WarnContext(ctx, "Ignored stale message", "age", age, "max_age", p.cfg.Bot.MaxMessageAge)
		return Outcome{Status: StatusStale}
	}

	text := msg.Content()
	if text == "" && !msg.HasMedia() {
		log.WarnContext(ctx, "Received a message without text or media, no email was sent")
		return Outcome{Status: StatusEmpty, Reply: p.cfg.Messages.NoContent}
	}

	attachments, err := p.materialize(ctx, log, msg, text, now)
	if err != nil {
		log.ErrorContext(ctx, "Failed to download attachment", "error", err)
		return Outcome{Status: StatusDownloadFailed, Reply: p.cfg.Messages.SendFailed, Attachments: attachments}
	}

	if text == "" || len(attachments) == 0 {
		log.WarnContext(ctx, "Message contained only text or only media, no email was sent",
			"has_text", text != "", "attachments", len(attachments))
		return Outcome{Status: StatusIncomplete, Reply: p.cfg.Messages.PartialContent, Attachments: attachments}
	}

	recipients := p.cfg.Recipients()
	err = p.notifier.Notify(ctx, mail.Notification{
		Credential:    p.cfg.OwnMailPassword,
		SenderAddress: p.cfg.OwnMail,
		SenderName:    p.cfg.OwnMailName,
		Recipients:    recipients,
		Bcc:           p.cfg.BCCMail,
		Salutation:    p.cfg.Salutation,
		Text:          text,
		Closing:       p.cfg.Closing,
		Subject:       Subject(p.cfg.PUP, text),
		Attachments:   attachments,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send email", "error", err)
		return Outcome{Status: StatusSendFailed, Reply: p.cfg.Messages.SendFailed, Attachments: attachments}
	}

	log.InfoContext(ctx, "Email sent", "recipients", recipients)
	return Outcome{Status: StatusSent, Reply: sentReply(p.cfg.Messages.Sent, recipients), Attachments: attachments}
}

// materialize downloads the largest photo and then the video. Paths of files
// written before a failure are still returned.
func (p *Pipeline) materialize(ctx context.Context, log *slog.Logger, msg *Message, base string, now time.Time) ([]string, error) {
	var attachments []string
	counter := 1

	fetch := func(kind MediaKind, fileID string) error {
		path := filepath.Join(p.cfg.Bot.AttachmentDir, FileName(base, now, counter, kind))
		if err := p.downloader.Download(ctx, fileID, path); err != nil {
			metrics.AttachmentDownloads.WithLabelValues(string(kind), "failure").Inc()
			return fmt.Errorf("download %s %s: %w", kind, fileID, err)
		}
		metrics.AttachmentDownloads.WithLabelValues(string(kind), "success").Inc()
		log.InfoContext(ctx, "Attachment saved", "kind", kind, "path", path)
		attachments = append(attachments, path)
		counter++
		return nil
	}

	if photo, ok := msg.LargestPhoto(); ok {
		if err := fetch(MediaPhoto, photo.FileID); err != nil {
			return attachments, err
		}
	}
	if msg.Video != nil {
		if err := fetch(MediaVideo, msg.Video.FileID); err != nil {
			return attachments, err
		}
	}
	return attachments, nil
}

// Subject returns "Meldung/Information an {pup}: " followed by the first 20
// characters of text.
func Subject(pup, text string) string {
	r := []rune(text)
	if len(r) > subjectTextLength {
		r = r[:subjectTextLength]
	}
	return subjectPrefix + pup + ": " + string(r)
}

func sentReply(format string, recipients []string) string {
	if !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, recipients)
}
