// Package email entrega los códigos de verificación por SMTP.
// La composición es mínima a propósito: el contenido rico es territorio
// del frontend, acá solo viaja el código.
package email

import (
	"context"
	"fmt"

	mail "github.com/go-mail/mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implementa auth.Mailer sobre go-mail.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTP(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

const verificationSubject = "Cadenza verification code"

const verificationBody = `Here is your verification code:

%s
`

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", verificationSubject)
	msg.SetBody("text/plain", fmt.Sprintf(verificationBody, code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("email: send verification code: %w", err)
	}
	return nil
}
