package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

const notifyTimeout = 5 * time.Second

// EmailSender is the part of SES the notifier needs.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SESClient wraps AWS SESv2 sending.
type SESClient struct {
	client *sesv2.Client
	sender string
}

// NewSESClient initializes an SES client using static credentials and region.
func NewSESClient(accessKeyID, secretAccessKey, region, sender string) (*SESClient, error) {
	if accessKeyID == "" || secretAccessKey == "" || region == "" {
		return nil, fmt.Errorf("ses credentials and region are required")
	}
	if sender == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{client: sesv2.NewFromConfig(awsCfg), sender: sender}, nil
}

func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("ses client is not initialized")
	}
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}

	input := &sesv2.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
			},
		},
		FromEmailAddress: aws.String(c.sender),
	}
	if _, err := c.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send ses email: %w", err)
	}
	return nil
}

// Notifier wraps a Dispatcher and e-mails the provider a copy of every
// booking in the background. Mail failures never fail the booking.
type Notifier struct {
	next      Dispatcher
	sender    EmailSender
	recipient string
	// done is signalled after each background send; tests use it.
	done chan<- error
}

func NewNotifier(next Dispatcher, sender EmailSender, providerEmail string) *Notifier {
	return &Notifier{next: next, sender: sender, recipient: strings.TrimSpace(providerEmail)}
}

func (n *Notifier) Dispatch(ctx context.Context, fact Fact) (Dispatch, error) {
	out, err := n.next.Dispatch(ctx, fact)
	if err != nil {
		return out, err
	}
	if n.sender == nil || n.recipient == "" {
		return out, nil
	}

	subject := fmt.Sprintf("Novo agendamento: %s %s", fact.Date.Label(), fact.Time)
	body := out.Text
	sendCtx, cancel := detachedContext(ctx, notifyTimeout)
	go func() {
		defer cancel()
		err := n.sender.Send(sendCtx, n.recipient, subject, body)
		if err != nil {
			log.Ctx(ctx).Error().
				Err(err).
				Str("component", "messaging").
				Str("recipient", n.recipient).
				Msg("Failed to send booking notification")
		}
		if n.done != nil {
			n.done <- err
		}
	}()
	return out, nil
}

func detachedContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Handler-scoped cancellation must not abort the background send.
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
