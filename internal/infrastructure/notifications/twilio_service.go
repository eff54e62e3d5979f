package notifications

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type smsCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

func newTwilioClient(accountSID, authToken string) smsCreator {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return client.Api
}

// SendSMS implements domain.NotificationService
func (s *NotificationServiceImpl) SendSMS(ctx context.Context, to, message string) error {
	if to == "" {
		return fmt.Errorf("sms recipient is empty")
	}

	// If credentials are not configured, log instead of sending
	if s.sms == nil {
		s.log.Info("mock sms", "to", to, "length", len(message))
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.smsFrom)
	params.SetBody(message)

	err := runWithContext(ctx, func() error {
		_, err := s.sms.CreateMessage(params)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
