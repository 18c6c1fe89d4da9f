package mailer

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BuildInput carries everything needed to assemble a deliverable message.
// HTMLBody is expected to be already rendered and direction-processed.
type BuildInput struct {
	Subject     string
	FromName    string
	FromEmail   string
	ReplyTo     string
	To          []string
	CC          []string
	HTMLBody    string
	Attachments []Attachment
	IsRTL       bool
}

// BuildMessage assembles the wire-format email. Without attachments the
// result is a structured message (the provider builds the MIME itself) whose
// body is wrapped in a full HTML document shell. With attachments the result
// is a hand-built raw RFC 822 message: multipart/mixed at the top, a nested
// multipart/related part when inline (cid) attachments exist, and base64
// parts for everything binary.
func BuildMessage(in BuildInput) (ComposedMessage, error) {
	if len(in.To) == 0 {
		return ComposedMessage{}, mailerErrors.New(ErrInvalidRecipient).WithDetail("reason", "empty to list")
	}

	if len(in.Attachments) == 0 {
		return ComposedMessage{
			Structured: &StructuredMessage{
				FromName:  in.FromName,
				FromEmail: in.FromEmail,
				ReplyTo:   in.ReplyTo,
				To:        in.To,
				CC:        in.CC,
				Subject:   in.Subject,
				HTMLBody:  wrapDocument(in.HTMLBody, in.IsRTL),
			},
		}, nil
	}

	if err := validateAttachments(in.Attachments); err != nil {
		return ComposedMessage{}, err
	}

	data, err := buildRawMessage(in)
	if err != nil {
		return ComposedMessage{}, err
	}

	return ComposedMessage{
		Raw: &RawMessage{
			From:       in.FromEmail,
			Recipients: unionRecipients(in.To, in.CC),
			Data:       data,
		},
	}, nil
}

// wrapDocument puts the rendered body inside a complete HTML document with
// font and directionality styling matching ApplyDirection's semantics.
func wrapDocument(body string, isRTL bool) string {
	dir, direction, align := "ltr", "ltr", "left"
	if isRTL {
		dir, direction, align = "rtl", "rtl", "right"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html dir=%q>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, Helvetica, sans-serif; direction: %s; text-align: %s; }
</style>
</head>
<body>
%s
</body>
</html>`, dir, direction, align, body)
}

func validateAttachments(attachments []Attachment) error {
	for _, att := range attachments {
		if att.Filename == "" {
			return mailerErrors.New(ErrInvalidAttachment).WithDetail("reason", "missing filename")
		}
		if att.MimeType == "" {
			return mailerErrors.New(ErrInvalidAttachment).
				WithDetail("reason", "missing mime type").
				WithDetail("filename", att.Filename)
		}
		if len(att.Content) == 0 {
			return mailerErrors.New(ErrInvalidAttachment).
				WithDetail("reason", "empty content").
				WithDetail("filename", att.Filename)
		}
		if att.Inline && att.CID == "" {
			return mailerErrors.New(ErrInvalidAttachment).
				WithDetail("reason", "inline attachment without cid").
				WithDetail("filename", att.Filename)
		}
	}
	return nil
}

func buildRawMessage(in BuildInput) ([]byte, error) {
	var msg strings.Builder

	from := mail.Address{Name: in.FromName, Address: in.FromEmail}
	fmt.Fprintf(&msg, "From: %s\r\n", from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(in.To, ", "))
	if len(in.CC) > 0 {
		fmt.Fprintf(&msg, "Cc: %s\r\n", strings.Join(in.CC, ", "))
	}
	if in.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", in.ReplyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", in.Subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "Message-ID: <%s@%s>\r\n", uuid.NewString(), senderDomain(in.FromEmail))
	msg.WriteString("MIME-Version: 1.0\r\n")

	inline, regular := partitionAttachments(in.Attachments)

	mixedBoundary := newBoundary("mixed")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixedBoundary)

	if len(inline) > 0 {
		relatedBoundary := newBoundary("rel")
		fmt.Fprintf(&msg, "--%s\r\n", mixedBoundary)
		fmt.Fprintf(&msg, "Content-Type: multipart/related; boundary=%q\r\n\r\n", relatedBoundary)
		writeHTMLPart(&msg, relatedBoundary, in.HTMLBody)
		for _, att := range inline {
			writeAttachmentPart(&msg, relatedBoundary, att)
		}
		fmt.Fprintf(&msg, "--%s--\r\n", relatedBoundary)
	} else {
		writeHTMLPart(&msg, mixedBoundary, in.HTMLBody)
	}

	for _, att := range regular {
		writeAttachmentPart(&msg, mixedBoundary, att)
	}
	fmt.Fprintf(&msg, "--%s--\r\n", mixedBoundary)

	return []byte(msg.String()), nil
}

func writeHTMLPart(msg *strings.Builder, boundary, body string) {
	fmt.Fprintf(msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n\r\n")
}

func writeAttachmentPart(msg *strings.Builder, boundary string, att Attachment) {
	fmt.Fprintf(msg, "--%s\r\n", boundary)
	fmt.Fprintf(msg, "Content-Type: %s\r\n", att.MimeType)
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	if att.Inline {
		fmt.Fprintf(msg, "Content-ID: <%s>\r\n", strings.Trim(att.CID, "<>"))
		fmt.Fprintf(msg, "Content-Disposition: inline; filename=%q\r\n\r\n", att.Filename)
	} else {
		fmt.Fprintf(msg, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename)
	}
	writeBase64(msg, att.Content)
	msg.WriteString("\r\n")
}

// writeBase64 writes base64 content folded at 76 columns per RFC 2045.
func writeBase64(msg *strings.Builder, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		msg.WriteString(encoded[i:end])
		msg.WriteString("\r\n")
	}
}

func partitionAttachments(attachments []Attachment) (inline, regular []Attachment) {
	for _, att := range attachments {
		if att.Inline && att.CID != "" {
			inline = append(inline, att)
		} else {
			regular = append(regular, att)
		}
	}
	return inline, regular
}

// unionRecipients returns the deduplicated union of the to and cc lists.
// The raw message's envelope must reach every address shown in the headers.
func unionRecipients(to, cc []string) []string {
	seen := make(map[string]struct{}, len(to)+len(cc))
	var recipients []string
	for _, list := range [][]string{to, cc} {
		for _, addr := range list {
			addr = strings.ToLower(strings.TrimSpace(addr))
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

// newBoundary derives a boundary token with enough entropy to never collide
// with literal message content.
func newBoundary(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

func senderDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}
