package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"golang.org/x/time/rate"
)

// NotificationService delivers outbound email such as password reset codes
type NotificationService interface {
	SendEmail(ctx context.Context, email, subject, message string) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
	limiter       *rate.Limiter
}

// NewNotificationService creates a new notification service. perSecond <= 0 disables throttling.
func NewNotificationService(emailProvider EmailProvider, perSecond float64, burst int) NotificationService {
	var limiter *rate.Limiter
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &NotificationServiceImpl{
		emailProvider: emailProvider,
		limiter:       limiter,
	}
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(ctx context.Context, email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	// Basic email validation
	if len(email) == 0 || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %s", email)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("email throttled: %w", err)
		}
	}

	return s.emailProvider.SendEmail(ctx, email, subject, message)
}

type MockEmailProvider struct{}

func NewMockEmailProvider() EmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	log.Printf("Email sent to %s [%s]: %s", email, subject, message)
	return nil
}

// sesAPI is the subset of the SES client used here
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailProvider sends plain text email through Amazon SES
type SESEmailProvider struct {
	client    sesAPI
	fromEmail string
}

// NewSESEmailProvider loads the default AWS credential chain for region
func NewSESEmailProvider(ctx context.Context, region, fromEmail string) (EmailProvider, error) {
	if fromEmail == "" {
		return nil, fmt.Errorf("sender address is required for SES")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESEmailProvider{client: ses.NewFromConfig(cfg), fromEmail: fromEmail}, nil
}

func (p *SESEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(p.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(message), Charset: aws.String("UTF-8")},
			},
		},
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}
