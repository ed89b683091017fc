// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"errors"
	"fmt"

	"doc-review-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp delivery is not configured")

type IEmailService interface {
	Send(m *gomail.Message) error
	Configured() bool
}

type emailService struct {
	dialer *gomail.Dialer
	logger logger.ILogger
}

// NewEmailService returns a sender that refuses to send when host is empty.
func NewEmailService(host string, port int, username, password string, log logger.ILogger) IEmailService {
	var d *gomail.Dialer
	if host != "" {
		d = gomail.NewDialer(host, port, username, password)
	}
	return &emailService{
		dialer: d,
		logger: log,
	}
}

func (s *emailService) Configured() bool {
	return s.dialer != nil
}

func (s *emailService) Send(m *gomail.Message) error {
	if s.dialer == nil {
		return ErrNotConfigured
	}

	to := m.GetHeader("To")
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Mailer", "Failed to send email", map[string]interface{}{
			"to":    to,
			"error": err.Error(),
		})
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("Mailer", "Email sent", map[string]interface{}{"to": to})
	return nil
}
