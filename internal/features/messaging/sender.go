package messaging

import (
	"context"
	"fmt"

	common_models "go-chms/internal/common/models"
	"go-chms/internal/config"
	"go-chms/internal/features/notification"
	"go-chms/internal/features/template"

	"go.uber.org/zap"
)

// Provider delivers to an external gateway. SMS and push gateways live
// outside this service and are injected.
type Provider interface {
	Send(ctx context.Context, recipient string, subject, body string) error
}

// MessageSender resolves a template and fans a message out on one channel.
// Template variable substitution belongs to the delivery collaborators; the
// recipient record travels with the message untouched.
type MessageSender interface {
	Send(ctx context.Context, channel common_models.Channel, templateID string, recipient map[string]interface{}) error
}

type MessageSenderImpl struct {
	Templates     template.TemplateRepository
	Notifications notification.NotificationService
	SMSProvider   Provider
	PushProvider  Provider
	Config        *config.Config
	Logger        *zap.Logger
}

func NewMessageSender(
	templates template.TemplateRepository,
	notifications notification.NotificationService,
	smsProvider Provider,
	pushProvider Provider,
	cfg *config.Config,
	logger *zap.Logger,
) MessageSender {
	return &MessageSenderImpl{
		Templates:     templates,
		Notifications: notifications,
		SMSProvider:   smsProvider,
		PushProvider:  pushProvider,
		Config:        cfg,
		Logger:        logger,
	}
}

func (s *MessageSenderImpl) Send(ctx context.Context, channel common_models.Channel, templateID string, recipient map[string]interface{}) error {
	tpl, err := s.Templates.GetByID(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to resolve template %s: %w", templateID, err)
	}
	if tpl == nil {
		return fmt.Errorf("template %s not found", templateID)
	}
	if !tpl.IsActive {
		return fmt.Errorf("template %s is inactive", templateID)
	}

	switch channel {
	case common_models.ChannelEmail:
		return s.sendEmail(tpl, recipient)
	case common_models.ChannelSMS:
		return s.sendProvider(ctx, s.SMSProvider, "phone", tpl, recipient)
	case common_models.ChannelPush:
		return s.sendProvider(ctx, s.PushProvider, "member_id", tpl, recipient)
	case common_models.ChannelInApp:
		return s.sendInApp(ctx, tpl, recipient)
	default:
		return fmt.Errorf("unknown channel %q", channel)
	}
}

func (s *MessageSenderImpl) sendEmail(tpl *template.MessageTemplate, recipient map[string]interface{}) error {
	to, ok := recipient["email"].(string)
	if !ok || to == "" {
		return fmt.Errorf("recipient has no email address")
	}

	return SendSMTP(SMTPConfig{
		Host:     s.Config.SMTPHost,
		Port:     s.Config.SMTPPort,
		Username: s.Config.SMTPUsername,
		Password: s.Config.SMTPPassword,
	}, &Email{
		From:     s.Config.SMTPFrom,
		To:       []string{to},
		Subject:  tpl.Subject,
		HtmlBody: tpl.Body,
	})
}

func (s *MessageSenderImpl) sendProvider(ctx context.Context, provider Provider, addressField string, tpl *template.MessageTemplate, recipient map[string]interface{}) error {
	address, ok := recipient[addressField].(string)
	if !ok || address == "" {
		return fmt.Errorf("recipient has no %s", addressField)
	}
	return provider.Send(ctx, address, tpl.Subject, tpl.Body)
}

func (s *MessageSenderImpl) sendInApp(ctx context.Context, tpl *template.MessageTemplate, recipient map[string]interface{}) error {
	memberID, ok := recipient["member_id"].(string)
	if !ok || memberID == "" {
		return fmt.Errorf("recipient has no member id")
	}
	return s.Notifications.Notify(ctx, memberID, tpl.Subject, tpl.Body, notification.NotificationTypeAutomation)
}

// LogProvider stands in where no SMS or push gateway is configured. It logs
// the outbound message and reports success.
type LogProvider struct {
	Channel common_models.Channel
	Logger  *zap.Logger
}

func NewSMSProvider(logger *zap.Logger) Provider {
	return &LogProvider{Channel: common_models.ChannelSMS, Logger: logger}
}

func NewPushProvider(logger *zap.Logger) Provider {
	return &LogProvider{Channel: common_models.ChannelPush, Logger: logger}
}

func (p *LogProvider) Send(ctx context.Context, recipient string, subject, body string) error {
	p.Logger.Info("outbound message (no gateway configured)",
		zap.String("channel", string(p.Channel)),
		zap.String("recipient", recipient),
		zap.String("subject", subject),
	)
	return nil
}
