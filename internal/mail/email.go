// Package mail composes and delivers notification e-mails over implicit-TLS
// SMTP. Delivery failures are returned as errors wrapping one of the package
// sentinels and are never retried.
package mail

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors returned by Sender.Send.
var (
	ErrInvalidInput = errors.New("invalid mail input")
	ErrAttachment   = errors.New("attachment unavailable")
	ErrDelivery     = errors.New("mail delivery failed")
)

const (
	minBodyLength    = 10
	minSubjectLength = 10
)

// Email is a single outbound message. It is built per send and never stored.
type Email struct {
	// Credential authenticates FromAddress against the SMTP server.
	Credential  string
	FromAddress string
	FromName    string
	To          []string
	Bcc         []string
	Subject     string
	Body        string
	// Attachments are local file paths; the sender only reads them.
	Attachments []string
}

// Validate checks the message before any file or network access.
func (e *Email) Validate() error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: email is nil", ErrInvalidInput)
	case e.Credential == "":
		return fmt.Errorf("%w: account password is empty", ErrInvalidInput)
	case len(e.To) == 0:
		return fmt.Errorf("%w: recipients list is empty", ErrInvalidInput)
	case containsEmpty(e.To):
		return fmt.Errorf("%w: recipients list contains an empty address", ErrInvalidInput)
	case containsEmpty(e.Bcc):
		return fmt.Errorf("%w: bcc list contains an empty address", ErrInvalidInput)
	case !strings.Contains(e.FromAddress, "@"):
		return fmt.Errorf("%w: sender address %q is not valid", ErrInvalidInput, e.FromAddress)
	case utf8.RuneCountInString(e.Body) < minBodyLength:
		return fmt.Errorf("%w: message text is shorter than %d characters", ErrInvalidInput, minBodyLength)
	case utf8.RuneCountInString(e.Subject) < minSubjectLength:
		return fmt.Errorf("%w: subject is shorter than %d characters", ErrInvalidInput, minSubjectLength)
	}
	return nil
}

func containsEmpty(addrs []string) bool {
	for _, a := range addrs {
		if strings.TrimSpace(a) == "" {
			return true
		}
	}
	return false
}
