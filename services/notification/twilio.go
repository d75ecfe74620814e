package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// NotificationService sends outbound messages to customers.
type NotificationService interface {
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

// TwilioService sends WhatsApp messages through Twilio's Messages API.
type TwilioService struct {
	client              *resty.Client
	accountSID          string
	messagingServiceSID string
	from                string
	logger              *zap.Logger
}

func NewTwilioService(accountSID, authToken, messagingServiceSID, from string, logger *zap.Logger) *TwilioService {
	client := resty.New()
	client.SetBaseURL(twilioBaseURL)
	client.SetTimeout(15 * time.Second)
	client.SetBasicAuth(accountSID, authToken)
	return &TwilioService{
		client:              client,
		accountSID:          accountSID,
		messagingServiceSID: messagingServiceSID,
		from:                from,
		logger:              logger,
	}
}

type twilioMessage struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendWhatsApp delivers one message and returns its SID.
func (s *TwilioService) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	var (
		msg    twilioMessage
		apiErr twilioError
	)
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":                  "whatsapp:+" + to,
			"From":                s.from,
			"MessagingServiceSid": s.messagingServiceSID,
			"Body":                body,
		}).
		SetResult(&msg).
		SetError(&apiErr).
		Post(fmt.Sprintf("/Accounts/%s/Messages.json", s.accountSID))
	if err != nil {
		return "", fmt.Errorf("twilio send: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("twilio send failed (status %d): %s", resp.StatusCode(), apiErr.Message)
	}

	s.logger.Info("message sent",
		zap.String("to", to),
		zap.String("sid", msg.Sid),
		zap.String("status", msg.Status))
	return msg.Sid, nil
}
