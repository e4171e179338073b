package mail_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/notifybot/internal/config"
	"github.com/edgard/notifybot/internal/mail"
)

type receivedMail struct {
	from string
	to   []string
	data string
}

// testBackend is an in-memory submission server accepting one account.
type testBackend struct {
	username string
	password string
	// hold, when set, stalls MAIL FROM until closed.
	hold chan struct{}

	mu       sync.Mutex
	received []receivedMail
}

func (b *testBackend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &testSession{backend: b}, nil
}

func (b *testBackend) messages() []receivedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]receivedMail(nil), b.received...)
}

type testSession struct {
	backend *testBackend
	authed  bool
	current receivedMail
}

func (s *testSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *testSession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.backend.username || password != s.backend.password {
			return errors.New("invalid credentials")
		}
		s.authed = true
		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authed {
		return smtp.ErrAuthRequired
	}
	if s.backend.hold != nil {
		<-s.backend.hold
	}
	s.current.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = string(b)
	s.backend.mu.Lock()
	s.backend.received = append(s.backend.received, s.current)
	s.backend.mu.Unlock()
	return nil
}

func (s *testSession) Reset() {
	s.current = receivedMail{}
}

func (s *testSession) Logout() error {
	return nil
}

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

// startSMTPS runs an implicit-TLS server on a loopback port.
func startSMTPS(t *testing.T, be *testBackend) config.SMTPConfig {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	tlsLn := tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{selfSignedCert(t)},
		MinVersion:   tls.VersionTLS12,
	})

	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second
	srv.MaxMessageBytes = 10 * 1024 * 1024
	srv.AllowInsecureAuth = true

	go func() {
		_ = srv.Serve(tlsLn)
	}()
	t.Cleanup(func() {
		_ = srv.Close()
	})

	return config.SMTPConfig{
		Host:               "127.0.0.1",
		Port:               ln.Addr().(*net.TCPAddr).Port,
		Timeout:            10 * time.Second,
		InsecureSkipVerify: true,
	}
}

func TestSender_DeliversOverTLS(t *testing.T) {
	t.Parallel()

	be := &testBackend{username: "me@example.com", password: "app-password"}
	cfg := startSMTPS(t, be)
	dir := t.TempDir()

	e := validEmail()
	e.Attachments = []string{writeFile(t, dir, "leak_20261015120000_1.jpg", "jpeg-bytes")}

	require.NoError(t, mail.NewSender(cfg, nil).Send(context.Background(), e))

	msgs := be.messages()
	require.Len(t, msgs, 1)
	got := msgs[0]
	assert.Equal(t, "me@example.com", got.from)
	assert.ElementsMatch(t, []string{"service@stadtwerke.example", "me+copy@example.com"}, got.to)
	assert.Contains(t, got.data, "Subject: Meldung/Information an Stadtwerke: Leak in basement")
	assert.Contains(t, got.data, "leak_20261015120000_1.jpg")
	assert.Contains(t, got.data, "image/jpeg")
	assert.False(t, strings.Contains(got.data, "\r\nBcc:"), "bcc header must not be transmitted")
}

func TestSender_RejectedCredentials(t *testing.T) {
	t.Parallel()

	be := &testBackend{username: "me@example.com", password: "app-password"}
	cfg := startSMTPS(t, be)

	e := validEmail()
	e.Credential = "wrong-password"

	err := mail.NewSender(cfg, nil).Send(context.Background(), e)
	require.ErrorIs(t, err, mail.ErrDelivery)
	assert.Empty(t, be.messages())
}

func TestSender_ProbeOverTLS(t *testing.T) {
	t.Parallel()

	be := &testBackend{username: "me@example.com", password: "app-password"}
	cfg := startSMTPS(t, be)
	s := mail.NewSender(cfg, nil)

	require.NoError(t, s.Probe(context.Background(), "me@example.com", "app-password"))
	require.Error(t, s.Probe(context.Background(), "me@example.com", "nope"))
	assert.Empty(t, be.messages())
}

func TestSender_StalledServerGetsNothingAfterTimeout(t *testing.T) {
	t.Parallel()

	be := &testBackend{username: "me@example.com", password: "app-password", hold: make(chan struct{})}
	cfg := startSMTPS(t, be)
	cfg.Timeout = 300 * time.Millisecond

	err := mail.NewSender(cfg, nil).Send(context.Background(), validEmail())
	require.ErrorIs(t, err, mail.ErrDelivery)
	assert.Contains(t, err.Error(), "deadline exceeded")

	close(be.hold)
	assert.Never(t, func() bool { return len(be.messages()) > 0 }, 500*time.Millisecond, 20*time.Millisecond)
}
