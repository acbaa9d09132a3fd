package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
)

// Error is a provider failure during an email send. It is always treated as
// non-fatal by callers: logged, recorded in email_logs, never propagated.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notification error: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message is one transactional email
type Message struct {
	ToEmail  string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}

// SMTPMailer sends via an authenticated SMTP relay
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer creates an SMTP-backed mailer
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers one message. The returned message ID is generated locally
// since SMTP gives no provider identifier back.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Cause: err}
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{fmt.Sprintf("%s <%s>", msg.ToName, msg.ToEmail)}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTMLBody)
	e.Text = []byte(msg.TextBody)

	messageID := uuid.New().String()
	e.Headers.Set("Message-Id", fmt.Sprintf("<%s@%s>", messageID, m.host))

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := e.Send(addr, auth); err != nil {
		return "", &Error{Cause: err}
	}
	return messageID, nil
}
