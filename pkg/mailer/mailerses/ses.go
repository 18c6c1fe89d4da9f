// Package mailerses implements the mailer.Sender transport on AWS SES.
// Structured messages go through SendEmail; raw MIME messages go through
// SendRawEmail. Provider failures are always translated into the errx
// taxonomy, never surfaced raw.
package mailerses

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/Abraxas-365/caremail/pkg/mailer"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
)

// SESProvider implements mailer.Sender using AWS SES.
type SESProvider struct {
	client *ses.Client
}

// NewSESProvider creates a new SES transport.
func NewSESProvider(client *ses.Client) *SESProvider {
	return &SESProvider{client: client}
}

// SendStructured sends a plain HTML email via ses.SendEmail.
func (p *SESProvider) SendStructured(ctx context.Context, msg *mailer.StructuredMessage) (mailer.SendResult, error) {
	from := mail.Address{Name: msg.FromName, Address: msg.FromEmail}

	input := &ses.SendEmailInput{
		Source: aws.String(from.String()),
		Destination: &types.Destination{
			ToAddresses: msg.To,
			CcAddresses: msg.CC,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(msg.HTMLBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return mailer.SendResult{}, mapSendError(err, msg.FromEmail)
	}

	return mailer.SendResult{
		Success:       true,
		MessageID:     aws.ToString(out.MessageId),
		AcceptedCount: len(msg.To) + len(msg.CC),
	}, nil
}

// SendRaw sends a pre-assembled RFC 822 message via ses.SendRawEmail. The
// envelope destinations come from the composed message, not the headers.
func (p *SESProvider) SendRaw(ctx context.Context, msg *mailer.RawMessage) (mailer.SendResult, error) {
	input := &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: msg.Data},
		Source:       aws.String(msg.From),
		Destinations: msg.Recipients,
	}

	out, err := p.client.SendRawEmail(ctx, input)
	if err != nil {
		return mailer.SendResult{}, mapSendError(err, msg.From)
	}

	return mailer.SendResult{
		Success:       true,
		MessageID:     aws.ToString(out.MessageId),
		AcceptedCount: len(msg.Recipients),
	}, nil
}

// credential error codes SES/STS return for malformed or stale keys.
var credentialErrorCodes = map[string]bool{
	"InvalidClientTokenId":        true,
	"UnrecognizedClientException": true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
	"MissingAuthenticationToken":  true,
}

// mapSendError translates a provider failure into the errx taxonomy with
// enough detail for an operator to remediate.
func mapSendError(err error, fromAddress string) *errx.Error {
	var domainErr *types.MailFromDomainNotVerifiedException
	if errors.As(err, &domainErr) {
		return sesErrors.NewWithCause(ErrDomainNotVerified, err).
			WithDetail("domain", domainOf(fromAddress))
	}

	var pausedErr *types.AccountSendingPausedException
	if errors.As(err, &pausedErr) {
		return sesErrors.NewWithCause(ErrSendingPaused, err)
	}

	var rejectedErr *types.MessageRejected
	if errors.As(err, &rejectedErr) {
		// SES reports an unverified sender as a MessageRejected whose text
		// names the address.
		if strings.Contains(err.Error(), "not verified") {
			return sesErrors.NewWithCause(ErrSenderNotVerified, err).
				WithDetail("address", fromAddress)
		}
		return sesErrors.NewWithCause(ErrMessageRejected, err).
			WithDetail("address", fromAddress)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if credentialErrorCodes[apiErr.ErrorCode()] {
			return sesErrors.NewWithCause(ErrBadCredentials, err).
				WithDetail("code", apiErr.ErrorCode())
		}
		return sesErrors.NewWithCause(ErrMessageRejected, err).
			WithDetail("code", apiErr.ErrorCode())
	}

	return sesErrors.NewWithCause(ErrNetwork, err)
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return address
}
