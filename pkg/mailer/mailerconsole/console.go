// Package mailerconsole prints outgoing emails to the terminal via logx.
// Intended for development and testing.
package mailerconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/caremail/pkg/logx"
	"github.com/Abraxas-365/caremail/pkg/mailer"
	"github.com/google/uuid"
)

// ConsoleProvider implements mailer.Sender by logging instead of sending.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console transport.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendStructured logs the email details instead of sending it.
func (p *ConsoleProvider) SendStructured(_ context.Context, msg *mailer.StructuredMessage) (mailer.SendResult, error) {
	logx.WithFields(logx.Fields{
		"from":    msg.FromEmail,
		"to":      strings.Join(msg.To, ", "),
		"cc":      strings.Join(msg.CC, ", "),
		"subject": msg.Subject,
	}).Info("mailer/console: email sent (dev mode)")
	logx.Debugf("mailer/console: html body:\n%s", msg.HTMLBody)

	return mailer.SendResult{
		Success:       true,
		MessageID:     uuid.NewString(),
		AcceptedCount: len(msg.To) + len(msg.CC),
	}, nil
}

// SendRaw logs the raw message instead of sending it.
func (p *ConsoleProvider) SendRaw(_ context.Context, msg *mailer.RawMessage) (mailer.SendResult, error) {
	logx.WithFields(logx.Fields{
		"from":       msg.From,
		"recipients": strings.Join(msg.Recipients, ", "),
		"bytes":      len(msg.Data),
	}).Info("mailer/console: raw email sent (dev mode)")
	logx.Debugf("mailer/console: raw message:\n%s", string(msg.Data))

	return mailer.SendResult{
		Success:       true,
		MessageID:     uuid.NewString(),
		AcceptedCount: len(msg.Recipients),
	}, nil
}
