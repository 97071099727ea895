// Package notify delivers matchmaking notifications. Every notification is
// stored as an in-app row; email and SMS are optional extra channels.
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// InAppStore persists the in-app copy of a notification.
type InAppStore interface {
	CreateNotification(ctx context.Context, userID string, n models.Notification) (string, error)
}

type Config struct {
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
	// SMSPriorityThreshold is the lowest priority that also goes out by SMS.
	SMSPriorityThreshold string
}

type Deps struct {
	InApp     InAppStore
	Profiles  store.ProfileStore
	SES       SESService
	SNS       SNSService
	Templates map[string]models.NotificationTemplate
}

type Service struct {
	config    Config
	inApp     InAppStore
	profiles  store.ProfileStore
	ses       SESService
	sns       SNSService
	templates map[string]models.NotificationTemplate
	logger    logger.Logger
}

var _ store.Notifier = (*Service)(nil)

func New(cfg Config, deps Deps, log logger.Logger) *Service {
	if cfg.SMSPriorityThreshold == "" {
		cfg.SMSPriorityThreshold = models.PriorityHigh
	}
	if deps.Templates == nil {
		deps.Templates = DefaultTemplates()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if deps.SES == nil {
		cfg.EmailEnabled = false
	}
	if deps.SNS == nil {
		cfg.SMSEnabled = false
	}
	return &Service{
		config:    cfg,
		inApp:     deps.InApp,
		profiles:  deps.Profiles,
		ses:       deps.SES,
		sns:       deps.SNS,
		templates: deps.Templates,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func priorityRank(p string) int {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 1
	}
	return 0
}

// Notify writes the in-app row and then tries each enabled external channel.
// Every channel is attempted; the first failure is returned.
func (s *Service) Notify(ctx context.Context, userID string, n models.Notification) error {
	var firstErr error
	fail := func(channel string, err error) {
		metrics.NotificationsSent.WithLabelValues(channel, "failed").Inc()
		s.logger.Warn("Notification delivery failed", map[string]interface{}{
			"channel": channel,
			"userId":  userID,
			"type":    n.Type,
			"error":   err,
		})
		if firstErr == nil {
			firstErr = apperrors.NewNotificationSendFailedError(channel, err)
		}
	}

	if s.inApp != nil {
		if _, err := s.inApp.CreateNotification(ctx, userID, n); err != nil {
			fail(ChannelInApp, err)
		} else {
			metrics.NotificationsSent.WithLabelValues(ChannelInApp, "sent").Inc()
		}
	}

	if !s.config.EmailEnabled && !s.config.SMSEnabled {
		return firstErr
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			s.logger.Warn("Recipient not found, skipping external channels", map[string]interface{}{"userId": userID})
			return firstErr
		}
		fail("lookup", err)
		return firstErr
	}

	data := map[string]interface{}{
		"title":    n.Title,
		"message":  n.Message,
		"priority": n.Priority,
		"fullName": profile.FullName,
	}
	for k, v := range n.Data {
		data[k] = v
	}

	tmpl, ok := s.templates[n.Type]
	if !ok {
		tmpl = models.NotificationTemplate{Type: n.Type, Subject: "{{title}}", Body: "{{message}}"}
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	if s.config.EmailEnabled {
		if profile.Email == "" {
			metrics.NotificationsSent.WithLabelValues(ChannelEmail, "skipped").Inc()
		} else {
			html := body
			if tmpl.HTMLBody != "" {
				html = renderTemplate(tmpl.HTMLBody, data)
			}
			if err := s.sendEmail(ctx, profile.Email, subject, body, html); err != nil {
				fail(ChannelEmail, err)
			} else {
				metrics.NotificationsSent.WithLabelValues(ChannelEmail, "sent").Inc()
			}
		}
	}

	if s.config.SMSEnabled && priorityRank(n.Priority) >= priorityRank(s.config.SMSPriorityThreshold) {
		if profile.Phone == "" {
			metrics.NotificationsSent.WithLabelValues(ChannelSMS, "skipped").Inc()
		} else {
			text := body
			if tmpl.SMSBody != "" {
				text = renderTemplate(tmpl.SMSBody, data)
			}
			if err := s.sendSMS(ctx, profile.Phone, text); err != nil {
				fail(ChannelSMS, err)
			} else {
				metrics.NotificationsSent.WithLabelValues(ChannelSMS, "sent").Inc()
			}
		}
	}

	return firstErr
}

func (s *Service) sendEmail(ctx context.Context, to, subject, text, html string) error {
	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(s.config.FromEmail),
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, to, message string) error {
	_, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
