package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/mavericks/crisis-monitor/internal/config"
	"github.com/mavericks/crisis-monitor/internal/models"
)

// Service fans committed alerts out to the configured channels: a JSON
// webhook and/or email. Unconfigured channels are skipped.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(15 * time.Second),
	}
}

// Enabled reports whether any delivery channel is configured.
func (s *Service) Enabled() bool {
	return s.config.AlertWebhookURL != "" || s.config.NotificationEmail != ""
}

// NotifyAlert delivers one alert to every configured channel. Channel
// failures are collected, not short-circuited.
func (s *Service) NotifyAlert(alert models.Alert) error {
	var errors []string

	if s.config.AlertWebhookURL != "" {
		if err := s.sendWebhook(alert); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

type webhookPayload struct {
	Event string       `json:"event"`
	Alert models.Alert `json:"alert"`
}

func (s *Service) sendWebhook(alert models.Alert) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(webhookPayload{Event: "alert.created", Alert: alert}).
		Post(s.config.AlertWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) sendEmail(alert models.Alert) error {
	subject := fmt.Sprintf("Crisis alert #%d (%s, risk %d)", alert.ID, alert.Region, alert.RiskScore)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(alert))

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailText(alert models.Alert) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Alert #%d for %s\n", alert.ID, alert.Client))
	text.WriteString(fmt.Sprintf("Risk score: %d | Sentiment: %.2f | Source: %s\n\n", alert.RiskScore, alert.Sentiment, alert.Region))
	text.WriteString(fmt.Sprintf("Topic: %s\n", alert.Topic))
	text.WriteString(fmt.Sprintf("Published: %s\n", alert.TimeElapsed))
	if alert.Link != "" {
		text.WriteString(fmt.Sprintf("Link: %s\n", alert.Link))
	}
	if len(alert.Keywords) > 0 {
		text.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(alert.Keywords, ", ")))
	}
	text.WriteString("\n")
	text.WriteString(alert.TriggerEvent)
	text.WriteString("\n\n---\nSent automatically by the crisis monitor.\n")

	return text.String()
}
