package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Mailer delivers HTML mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New returns an SMTP mailer when credentials are configured, otherwise a
// mailer that only logs.
func New(cfg config.MailConfig) Mailer {
	if !cfg.Enabled() {
		logger.Warn("SMTP credentials missing, mail will only be logged")
		return &LogMailer{prefix: cfg.SubjectPrefix}
	}
	return NewSMTPMailer(cfg)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	prefix string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &SMTPMailer{dialer: d, from: cfg.From, prefix: cfg.SubjectPrefix}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", withPrefix(m.prefix, subject))
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		logger.Error("Failed to send mail", err, map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return fmt.Errorf("send mail: %w", err)
	}
	logger.Info("Mail sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

// LogMailer writes mail to the log instead of sending it.
type LogMailer struct {
	prefix string
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	logger.Info("Mail (not sent)", map[string]interface{}{
		"to":      to,
		"subject": withPrefix(m.prefix, subject),
		"body":    htmlBody,
	})
	return nil
}

func withPrefix(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + " " + subject
}

func WelcomeHTML(nickname string) string {
	return fmt.Sprintf(
		`<p>Dear %s,</p><p>Welcome to <b>Three Meal</b>! Pick your zip code to see what home chefs near you are cooking.</p>`,
		html.EscapeString(nickname))
}

func ResetPasswordHTML(nickname, link string, ttl time.Duration) string {
	return fmt.Sprintf(
		`<p>Dear %s,</p><p>To reset your password <a href="%s">click here</a>.</p><p>The link expires in %d minutes. If you did not request a reset, ignore this message.</p>`,
		html.EscapeString(nickname), html.EscapeString(link), int(ttl.Minutes()))
}

func StaleOrdersHTML(nickname string, count int) string {
	return fmt.Sprintf(
		`<p>Dear %s,</p><p>You have <b>%d</b> order(s) waiting to be handled.</p>`,
		html.EscapeString(nickname), count)
}
