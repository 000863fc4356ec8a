package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	sent []string
	err  error
}

func (p *recordingProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	p.sent = append(p.sent, email)
	return p.err
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNotificationServiceSendEmail(t *testing.T) {
	tests := []struct {
		name      string
		provider  EmailProvider
		email     string
		expectErr bool
	}{
		{name: "delivered", provider: &recordingProvider{}, email: "a@example.com"},
		{name: "no provider", provider: nil, email: "a@example.com", expectErr: true},
		{name: "invalid address", provider: &recordingProvider{}, email: "not-an-email", expectErr: true},
		{name: "provider failure", provider: &recordingProvider{err: errors.New("boom")}, email: "a@example.com", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewNotificationService(tt.provider, 0, 0)
			err := svc.SendEmail(context.Background(), tt.email, "subject", "body")
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotificationServiceThrottle(t *testing.T) {
	provider := &recordingProvider{}
	svc := NewNotificationService(provider, 0.001, 1)

	require.NoError(t, svc.SendEmail(context.Background(), "a@example.com", "s", "m"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := svc.SendEmail(ctx, "b@example.com", "s", "m")
	assert.Error(t, err)
	assert.Equal(t, []string{"a@example.com"}, provider.sent)
}

func TestSESEmailProvider(t *testing.T) {
	client := &fakeSES{}
	provider := &SESEmailProvider{client: client, fromEmail: "noreply@example.com"}

	require.NoError(t, provider.SendEmail(context.Background(), "to@example.com", "Reset", "123456"))
	require.NotNil(t, client.input)
	assert.Equal(t, "noreply@example.com", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"to@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Reset", aws.ToString(client.input.Message.Subject.Data))
	assert.Equal(t, "123456", aws.ToString(client.input.Message.Body.Text.Data))

	client.err = errors.New("throttled")
	assert.Error(t, provider.SendEmail(context.Background(), "to@example.com", "Reset", "123456"))
}
