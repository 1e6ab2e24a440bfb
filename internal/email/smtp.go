package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/shinagawa-clinic/reservation-api/internal/config"
	"github.com/shinagawa-clinic/reservation-api/pkg/logger"
)

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPSender sends mail through the configured SMTP relay.
func NewSMTPSender(cfg config.MailConfig, log *logger.Logger) Sender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL
	return &smtpSender{
		dialer: dialer,
		from:   cfg.From,
		logger: log,
	}
}

func (s *smtpSender) Send(_ context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.logger.Error(err, "failed to send email", "to", to, "subject", subject)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

type suppressedSender struct {
	logger *logger.Logger
}

// NewSuppressedSender logs messages instead of delivering them. Used when
// MAIL_SUPPRESS_SEND is set in non-production environments.
func NewSuppressedSender(log *logger.Logger) Sender {
	return &suppressedSender{logger: log}
}

func (s *suppressedSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("suppressed email send", "to", to, "subject", subject, "body", body)
	return nil
}
