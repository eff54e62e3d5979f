package notifications

import (
	"context"
	"log/slog"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// Options configures the outbound channels. An empty SMTPHost or
// TwilioFrom turns the channel into a logging stub.
type Options struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	SMSEnabled  bool
}

// NotificationServiceImpl implements domain.NotificationService over SMTP and Twilio.
type NotificationServiceImpl struct {
	mailer  mailDialer
	from    string
	sms     smsCreator
	smsFrom string
	log     *slog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(opts Options, log *slog.Logger) domain.NotificationService {
	svc := &NotificationServiceImpl{
		from:    opts.From,
		smsFrom: opts.TwilioFrom,
		log:     log,
	}
	if opts.SMTPHost != "" {
		svc.mailer = newSMTPDialer(opts)
	}
	if opts.SMSEnabled && opts.TwilioFrom != "" {
		svc.sms = newTwilioClient(opts.TwilioSID, opts.TwilioToken)
	}
	return svc
}

// runWithContext returns when fn finishes or ctx is done, whichever is first.
// Neither gomail nor twilio-go accept a context.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
