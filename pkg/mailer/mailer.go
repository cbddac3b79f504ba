package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// DefaultTimeout bounds dialing and each SMTP command
const DefaultTimeout = 10 * time.Second

// Message is a plain-text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through a single SMTP relay
type SMTPMailer struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Send implements Mailer. The relay is given until ctx is done or Timeout
// elapses, whichever comes first.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	em := mail.NewMsg()
	if err := em.From(m.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.From, err)
	}
	if err := em.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	em.Subject(msg.Subject)
	em.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(m.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, em); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) options() []mail.Option {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []mail.Option{
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.Port > 0 {
		opts = append(opts, mail.WithPort(m.Port))
	}
	if m.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.User),
			mail.WithPassword(m.Password))
	}
	return opts
}

// LogMailer only logs messages. Used when no relay is configured.
type LogMailer struct {
	Logger *zap.Logger
}

// Send implements Mailer
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Logger.Info("Mail not delivered, no SMTP relay configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// New returns an SMTP mailer when a host is configured, a log-only mailer otherwise
func New(host string, port int, user, password, from string, log *zap.Logger) Mailer {
	if host == "" {
		return &LogMailer{Logger: log}
	}
	return &SMTPMailer{Host: host, Port: port, User: user, Password: password, From: from}
}
