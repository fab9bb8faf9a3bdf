package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/willowtherapy/booking-platform/internal/config"
	"github.com/willowtherapy/booking-platform/internal/notify"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// BuildEmailSender selects the outbound email transport from configuration.
// awsCfg is only consulted for the "ses" provider and may be nil otherwise.
// Returns nil when email delivery is disabled; the notification worker still
// persists in-app notifications without it.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but no API key configured, email disabled")
			return nil
		}
		return sender
	case "ses":
		if awsCfg == nil {
			logger.Warn("ses selected but AWS config missing, email disabled")
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		if cfg.Env == "development" {
			return notify.NewStubEmailSender(logger)
		}
		return nil
	}
}
