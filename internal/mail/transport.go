package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport submits rendered messages to the SMTP server. Implementations
// must finish all I/O before returning: once Submit has returned an error the
// message has not been handed over and never will be.
type Transport interface {
	Submit(ctx context.Context, from string, rcpt []string, msg io.WriterTo) error
	Verify(ctx context.Context) error
}

// TransportFactory builds a Transport authenticating as username.
type TransportFactory func(username, password string) Transport

// smtpTransport runs one implicit-TLS session per call. The connection is
// closed as soon as ctx is done, so the final dot is never written late.
type smtpTransport struct {
	addr      string
	tlsConfig *tls.Config
	username  string
	password  string
}

func newSMTPTransport(host string, port int, tlsConfig *tls.Config, username, password string) *smtpTransport {
	return &smtpTransport{
		addr:      net.JoinHostPort(host, strconv.Itoa(port)),
		tlsConfig: tlsConfig,
		username:  username,
		password:  password,
	}
}

func (t *smtpTransport) Submit(ctx context.Context, from string, rcpt []string, msg io.WriterTo) error {
	return t.session(ctx, func(c *smtp.Client) error {
		if err := c.Mail(from, nil); err != nil {
			return err
		}
		for _, addr := range rcpt {
			if err := c.Rcpt(addr, nil); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := msg.WriteTo(w); err != nil {
			return err
		}
		return w.Close()
	})
}

// Verify authenticates and quits.
func (t *smtpTransport) Verify(ctx context.Context) error {
	return t.session(ctx, func(*smtp.Client) error { return nil })
}

func (t *smtpTransport) session(ctx context.Context, fn func(c *smtp.Client) error) error {
	dialer := &tls.Dialer{NetDialer: &net.Dialer{}, Config: t.tlsConfig}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	c := smtp.NewClient(conn)
	defer c.Close()
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		c.CommandTimeout = remaining
		c.SubmissionTimeout = remaining
	}

	if err := c.Auth(sasl.NewPlainClient("", t.username, t.password)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := fn(c); err != nil {
		return err
	}
	// the server has acknowledged everything that matters; a failed QUIT is not a failed send
	_ = c.Quit()
	return nil
}
