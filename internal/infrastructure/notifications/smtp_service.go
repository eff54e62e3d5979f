package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func newSMTPDialer(opts Options) mailDialer {
	return gomail.NewDialer(opts.SMTPHost, opts.SMTPPort, opts.SMTPUsername, opts.SMTPPassword)
}

// SendEmail implements domain.NotificationService
func (s *NotificationServiceImpl) SendEmail(ctx context.Context, msg *domain.EmailMessage) (*domain.EmailReceipt, error) {
	if msg == nil || len(msg.To) == 0 {
		return nil, domain.ErrValidation("email has no recipients")
	}

	// If SMTP is not configured, log instead of sending
	if s.mailer == nil {
		s.log.Info("mock email", "to", strings.Join(msg.To, ","), "subject", msg.Subject)
		return &domain.EmailReceipt{Accepted: msg.To}, nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	if err := runWithContext(ctx, func() error { return s.mailer.DialAndSend(m) }); err != nil {
		return &domain.EmailReceipt{Rejected: msg.To}, fmt.Errorf("failed to send email: %w", err)
	}
	return &domain.EmailReceipt{Accepted: msg.To}, nil
}
