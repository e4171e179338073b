package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/edgard/notifybot/internal/config"
	"github.com/edgard/notifybot/internal/metrics"
)

// Sender validates and delivers one e-mail per call over implicit TLS.
type Sender struct {
	host      string
	port      int
	timeout      time.Duration
	newTransport TransportFactory
	logger       *slog.Logger
}

// Option customises a Sender.
type Option func(*Sender)

// WithTransportFactory replaces the SMTP transport, mainly for tests.
func WithTransportFactory(f TransportFactory) Option {
	return func(s *Sender) {
		s.newTransport = f
	}
}

// NewSender creates a Sender for the configured submission endpoint.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger, opts ...Option) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sender{
		host:    cfg.Host,
		port:    cfg.Port,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "mail_sender"),
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultSMTPTimeout
	}

	insecure := cfg.InsecureSkipVerify
	if insecure {
		s.logger.Warn("InsecureSkipVerify is enabled for mail TLS connection")
	}
	s.newTransport = func(username, password string) Transport {
		tlsConfig := &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: insecure} //nolint:gosec // opt-in via config
		return newSMTPTransport(cfg.Host, cfg.Port, tlsConfig, username, password)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Host returns the SMTP host used for delivery.
func (s *Sender) Host() string {
	return s.host
}

// Send validates e, attaches every file and submits the message. Any
// missing attachment aborts the whole send; partial sets are never sent.
func (s *Sender) Send(ctx context.Context, e *Email) error {
	if err := e.Validate(); err != nil {
		s.logger.ErrorContext(ctx, "Mail validation failed", "error", err)
		metrics.MailSendFailure.WithLabelValues(s.host, "validation").Inc()
		return err
	}

	log := s.logger.With("recipients", strings.Join(e.To, ", "), "subject", e.Subject)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", e.FromAddress, e.FromName)
	msg.SetHeader("To", e.To...)
	if len(e.Bcc) > 0 {
		msg.SetHeader("Bcc", e.Bcc...)
	}
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.Body)

	for _, path := range e.Attachments {
		if err := attachFile(msg, path); err != nil {
			log.WarnContext(ctx, "Attachment file not found or is not a file", "path", path, "error", err)
			metrics.MailSendFailure.WithLabelValues(s.host, "attachment").Inc()
			return err
		}
		log.InfoContext(ctx, "Attached file", "path", path)
	}

	rcpt := envelopeRecipients(e.To, e.Bcc)
	if err := s.deliver(ctx, s.newTransport(e.FromAddress, e.Credential), e.FromAddress, rcpt, msg); err != nil {
		log.ErrorContext(ctx, "Failed to send email", "error", err)
		metrics.MailSendFailure.WithLabelValues(s.host, "delivery").Inc()
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	log.InfoContext(ctx, "Email sent successfully")
	metrics.MailSendSuccess.WithLabelValues(s.host).Inc()
	return nil
}

// Probe dials and authenticates without sending anything.
func (s *Sender) Probe(ctx context.Context, username, password string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.timeoutError(ctx, s.newTransport(username, password).Verify(ctx))
}

// deliver submits msg within the send timeout. The transport returns only
// after its session has ended, so an error here means nothing was handed over
// after the deadline.
func (s *Sender) deliver(ctx context.Context, t Transport, from string, rcpt []string, msg *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.timeoutError(ctx, t.Submit(ctx, from, rcpt, msg))
}

func (s *Sender) timeoutError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("smtp %s:%d: %w (%v)", s.host, s.port, ctxErr, err)
	}
	return fmt.Errorf("smtp %s:%d: %w", s.host, s.port, err)
}

// envelopeRecipients is To followed by Bcc, first occurrence wins.
func envelopeRecipients(to, bcc []string) []string {
	seen := make(map[string]struct{}, len(to)+len(bcc))
	rcpt := make([]string, 0, len(to)+len(bcc))
	for _, addr := range append(append([]string(nil), to...), bcc...) {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		rcpt = append(rcpt, addr)
	}
	return rcpt
}

// attachFile reads path fully and adds it as a part named after its base name.
func attachFile(msg *gomail.Message, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAttachment, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrAttachment, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAttachment, path, err)
	}

	msg.Attach(filepath.Base(path),
		gomail.SetHeader(map[string][]string{"Content-Type": {attachmentContentType(path)}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}),
	)
	return nil
}
