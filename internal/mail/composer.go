package mail

import "context"

// Mailer delivers a composed e-mail. *Sender implements it.
type Mailer interface {
	Send(ctx context.Context, e *Email) error
}

// Notification is the raw input of a notification mail before templating.
type Notification struct {
	Credential    string
	SenderAddress string
	SenderName    string
	Recipients    []string
	Bcc           string
	Salutation    string
	Text          string
	Closing       string
	Subject       string
	Attachments   []string
}

// Composer wraps notification text in the salutation/closing template and
// hands it to a Mailer.
type Composer struct {
	mailer Mailer
}

// NewComposer creates a Composer delegating to mailer.
func NewComposer(mailer Mailer) *Composer {
	return &Composer{mailer: mailer}
}

// Notify builds the e-mail for n and returns the mailer's result unchanged.
func (c *Composer) Notify(ctx context.Context, n Notification) error {
	var bcc []string
	if n.Bcc != "" {
		bcc = []string{n.Bcc}
	}

	return c.mailer.Send(ctx, &Email{
		Credential:  n.Credential,
		FromAddress: n.SenderAddress,
		FromName:    n.SenderName,
		To:          n.Recipients,
		Bcc:         bcc,
		Subject:     n.Subject,
		Body:        ComposeBody(n.Salutation, n.Text, n.Closing),
		Attachments: n.Attachments,
	})
}

// ComposeBody returns "{salutation}\n\n{text}\n\n{closing}".
func ComposeBody(salutation, text, closing string) string {
	return salutation + "\n\n" + text + "\n\n" + closing
}
