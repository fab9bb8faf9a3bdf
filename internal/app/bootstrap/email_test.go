package bootstrap

import (
	"testing"

	appconfig "github.com/willowtherapy/booking-platform/internal/config"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

func TestBuildEmailSenderSendGrid(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:     "sendgrid",
		SendGridAPIKey:    "sg-key",
		SendGridFromEmail: "care@willowtherapy.example",
		SendGridFromName:  "Willow Therapy",
	}

	if sender := BuildEmailSender(cfg, nil, logging.New("error")); sender == nil {
		t.Fatalf("expected sendgrid sender")
	}
}

func TestBuildEmailSenderSendGridWithoutKey(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid"}

	if sender := BuildEmailSender(cfg, nil, logging.New("error")); sender != nil {
		t.Fatalf("expected nil sender without API key")
	}
}

func TestBuildEmailSenderSESRequiresAWSConfig(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "ses"}

	if sender := BuildEmailSender(cfg, nil, logging.New("error")); sender != nil {
		t.Fatalf("expected nil sender without AWS config")
	}
}

func TestBuildEmailSenderStubInDevelopment(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "none", Env: "development"}

	if sender := BuildEmailSender(cfg, nil, logging.New("error")); sender == nil {
		t.Fatalf("expected stub sender in development")
	}
}

func TestBuildEmailSenderDisabledInProduction(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "none", Env: "production"}

	if sender := BuildEmailSender(cfg, nil, logging.New("error")); sender != nil {
		t.Fatalf("expected nil sender when email disabled")
	}
}
