package mail

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-auth-gateway/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// Mailer delivers user-facing email (one-time codes, verification and reset
// links).
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	client *gomail.Client
	from   string
}

// NewMailer builds an SMTP-backed Mailer. Auth is only configured when a
// username is present so local dev against a capture server keeps working.
func NewMailer(cfg *config.Config) (Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTimeout(30 * time.Second),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	if cfg.SMTPUseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts,
			gomail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			gomail.WithTLSPolicy(gomail.NoTLS),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return &mailer{client: client, from: cfg.SMTPFrom}, nil
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return m.client.DialAndSend(msg)
}
