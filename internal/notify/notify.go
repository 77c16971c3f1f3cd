// Package notify sends short text notifications to clients.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tilequote/quote-api/internal/config"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when a message has no phone number to go to
var ErrNoRecipient = errors.New("no recipient phone number")

// Notifier delivers a text message to a phone number
type Notifier interface {
	Send(ctx context.Context, to, body string) error
	Enabled() bool
}

// NewNotifier returns a Twilio notifier when SMS is enabled and configured, otherwise a no-op
func NewNotifier(cfg *config.SMSConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NewNoopNotifier(logger)
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		logger.Warn("SMS enabled but Twilio credentials are incomplete, reminders will not be sent")
		return NewNoopNotifier(logger)
	}
	return NewTwilioNotifier(cfg.AccountSID, cfg.AuthToken, cfg.FromNumber, logger)
}

// TwilioNotifier sends SMS through the Twilio REST API
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

func NewTwilioNotifier(accountSID, authToken, from string, logger *zap.Logger) *TwilioNotifier {
	return &TwilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:   from,
		logger: logger,
	}
}

func (n *TwilioNotifier) Enabled() bool { return true }

// Send delivers one SMS. Twilio calls are not cancellable, so ctx is only checked before sending.
func (n *TwilioNotifier) Send(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	n.logger.Info("SMS sent", zap.String("to", maskPhone(to)), zap.String("sid", sid))
	return nil
}

// NoopNotifier drops messages; used when SMS is disabled
type NoopNotifier struct {
	logger *zap.Logger
}

func NewNoopNotifier(logger *zap.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) Enabled() bool { return false }

func (n *NoopNotifier) Send(ctx context.Context, to, body string) error {
	n.logger.Debug("SMS disabled, message dropped", zap.String("to", maskPhone(to)))
	return nil
}

// maskPhone keeps the last four digits of a phone number for logs
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
