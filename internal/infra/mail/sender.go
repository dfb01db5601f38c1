package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/usecase"
)

// SMTPSender delivers one message through the selected mailbox's own SMTP
// account. It implements usecase.MailTransport; bounce handling after the
// server accepts the message lives in the external bounce pipeline.
type SMTPSender struct{}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

func (s *SMTPSender) Send(ctx context.Context, creds config.MailboxCredentials, to, subject, body string) (string, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", creds.Email)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	messageID := fmt.Sprintf("<%d.%s>", time.Now().UnixNano(), creds.Email)
	m.SetHeader("Message-ID", messageID)

	d := gomail.NewDialer(creds.Host, creds.Port, creds.User, creds.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return "", &usecase.TransientError{
			Code:    "SMTP_TIMEOUT",
			Message: "smtp send deadline exceeded",
			Err:     ctx.Err(),
		}
	case err := <-done:
		if err != nil {
			return "", classify(err)
		}
		return messageID, nil
	}
}

// classify splits SMTP failures into what retrying can fix and what it
// cannot. Auth rejections are permanent and count against mailbox health.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "535"),
		strings.Contains(msg, "username and password not accepted"),
		strings.Contains(msg, "authentication"):
		return &usecase.PermanentError{
			Code:    "SMTP_AUTH",
			Message: "smtp authentication rejected",
			Err:     err,
		}
	case strings.Contains(msg, "421"),
		strings.Contains(msg, "450"),
		strings.Contains(msg, "451"),
		strings.Contains(msg, "452"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "timeout"):
		return &usecase.TransientError{
			Code:    "SMTP_UNAVAILABLE",
			Message: "smtp temporarily unavailable",
			Err:     err,
		}
	default:
		return &usecase.PermanentError{
			Code:    "SMTP_REJECTED",
			Message: "smtp rejected the message",
			Err:     err,
		}
	}
}
