package contact

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SMTPSender relays messages through an SMTP server. It maps the gate
// credentials as: ServiceID is the relay "host:port", TemplateID the
// recipient mailbox and PublicKey the account password.
type SMTPSender struct {
	User string

	// send is smtp.SendMail outside of tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender returns a sender that authenticates as user.
func NewSMTPSender(user string) *SMTPSender {
	return &SMTPSender{User: user, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, creds Credentials, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	host, _, err := net.SplitHostPort(creds.ServiceID)
	if err != nil {
		return fmt.Errorf("smtp relay %q: %w", creds.ServiceID, err)
	}
	if s.User == "" {
		return fmt.Errorf("%w: smtp user", ErrNotConfigured)
	}

	auth := smtp.PlainAuth("", s.User, creds.PublicKey, host)
	msg := composeMessage(s.User, creds.TemplateID, d)
	if err := s.send(creds.ServiceID, auth, s.User, []string{creds.TemplateID}, msg); err != nil {
		return fmt.Errorf("sending mail via %s: %w", host, err)
	}
	return nil
}

// composeMessage builds the RFC 5322 message. Header values are stripped of
// line breaks so form input cannot add headers.
func composeMessage(from, to string, d Draft) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", oneLine(d.Subject))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, d.Name, d.Email, d.Subject, d.Message)

	return []byte("To: " + oneLine(to) + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + oneLine(from) + "\r\n" +
		"Reply-To: " + oneLine(d.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
