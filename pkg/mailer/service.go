package mailer

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/Abraxas-365/caremail/pkg/logx"
	"github.com/google/uuid"
)

// AttachmentRef points at a stored file to attach to an outgoing email.
// Inline refs must carry a CID matching the cid: URI used in the template.
type AttachmentRef struct {
	Key      string
	Filename string
	MimeType string
	CID      string
	Inline   bool
}

// PreviewRequest describes one preview/send invocation. Either TemplateName
// selects a stored template of the test, or Body+IsRTL supply an ad hoc one.
// Installment+Price, when both present, must match a stored pricing option
// exactly; a lone Price acts as an external price hint for resolution.
type PreviewRequest struct {
	TestID       TestID
	TemplateName string
	Body         string
	IsRTL        *bool
	Subject      string
	Installment  *int
	Price        *float64
	ToEmail      string
	PatientName  string
	ICreditText  string
	ICreditLink  string
	IFormsText   string
	IFormsLink   string
	ReplyTo      string
	CCEmails     []string
}

// SendRequest is a PreviewRequest that actually dispatches, optionally with
// stored attachments and an idempotency key.
type SendRequest struct {
	PreviewRequest
	Attachments    []AttachmentRef
	IdempotencyKey string
}

// PreviewResult is the rendered email without any send taking place.
type PreviewResult struct {
	Preview string
	IsRTL   bool
	To      string
	CC      []string
	Warning string
}

// SendOutcome reports a dispatch. Warning carries non-fatal conditions
// (pricing fallback, bookkeeping failure) the caller should surface without
// treating the send as failed.
type SendOutcome struct {
	Message    string
	MessageID  string
	Recipients []string
	ReplyTo    string
	Subject    string
	IsRTL      bool
	Sent       int
	Queued     int
	Rejected   int
	Rendered   string
	Warning    string
}

// Service orchestrates the template-to-wire-email pipeline: resolve pricing,
// render tokens, apply directionality, assemble MIME, dispatch, bookkeep.
type Service struct {
	repo      Repository
	sender    Sender
	blobs     BlobReader
	guard     IdempotencyGuard
	fromName  string
	fromEmail string
}

// NewService composes the mailer service. guard and blobs may be nil: without
// a guard idempotency keys are ignored, without blobs attachment refs are
// rejected.
func NewService(repo Repository, sender Sender, blobs BlobReader, guard IdempotencyGuard, fromName, fromEmail string) *Service {
	return &Service{
		repo:      repo,
		sender:    sender,
		blobs:     blobs,
		guard:     guard,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// composed is the intermediate result of the pure pipeline stages.
type composed struct {
	html    string
	subject string
	isRTL   bool
	warning string
}

// Preview runs the pipeline up to (not including) message assembly.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	c, err := s.compose(ctx, req)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Preview: c.html,
		IsRTL:   c.isRTL,
		To:      req.ToEmail,
		CC:      req.CCEmails,
		Warning: c.warning,
	}, nil
}

// Send runs the full pipeline and dispatches the message. On transport
// failure the partial outcome is returned alongside the error so the caller
// can echo the rendered content back for operator debugging.
func (s *Service) Send(ctx context.Context, req SendRequest) (*SendOutcome, error) {
	if req.IdempotencyKey != "" && s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, req.IdempotencyKey)
		if err != nil {
			// The guard is advisory; a broken Redis must not block sending.
			logx.WithError(err).Warn("mailer: idempotency guard unavailable, proceeding")
		} else if !acquired {
			return nil, mailerErrors.New(ErrDuplicateSend).WithDetail("idempotency_key", req.IdempotencyKey)
		}
	}

	c, err := s.compose(ctx, req.PreviewRequest)
	if err != nil {
		return nil, err
	}

	attachments, err := s.loadAttachments(ctx, req.Attachments)
	if err != nil {
		return nil, err
	}

	msg, err := BuildMessage(BuildInput{
		Subject:     c.subject,
		FromName:    s.fromName,
		FromEmail:   s.fromEmail,
		ReplyTo:     req.ReplyTo,
		To:          []string{req.ToEmail},
		CC:          req.CCEmails,
		HTMLBody:    c.html,
		Attachments: attachments,
		IsRTL:       c.isRTL,
	})
	if err != nil {
		return nil, err
	}

	outcome := &SendOutcome{
		Recipients: unionRecipients([]string{req.ToEmail}, req.CCEmails),
		ReplyTo:    req.ReplyTo,
		Subject:    c.subject,
		IsRTL:      c.isRTL,
		Rendered:   c.html,
		Warning:    c.warning,
	}

	var result SendResult
	if msg.IsRaw() {
		result, err = s.sender.SendRaw(ctx, msg.Raw)
	} else {
		result, err = s.sender.SendStructured(ctx, msg.Structured)
	}
	if err != nil {
		return outcome, errx.Wrap(err, "email dispatch failed", errx.TypeExternal)
	}

	outcome.Message = "email sent"
	outcome.MessageID = result.MessageID
	outcome.Sent = result.AcceptedCount

	if logErr := s.repo.RecordSend(ctx, SendLog{
		ID:           uuid.NewString(),
		TestID:       req.TestID,
		TemplateName: req.TemplateName,
		PatientName:  req.PatientName,
		Recipients:   outcome.Recipients,
		Subject:      c.subject,
		MessageID:    result.MessageID,
		SentAt:       time.Now(),
	}); logErr != nil {
		// The email left the building; a bookkeeping failure is a warning,
		// never a send failure.
		logx.WithError(logErr).Error("mailer: send succeeded but log entry failed")
		outcome.Warning = joinWarnings(outcome.Warning, "email sent but the send log could not be updated")
	}

	return outcome, nil
}

func (s *Service) compose(ctx context.Context, req PreviewRequest) (*composed, error) {
	if strings.TrimSpace(req.ToEmail) == "" {
		return nil, mailerErrors.New(ErrInvalidRecipient).WithDetail("field", "toEmail")
	}

	test, err := s.repo.FindTest(ctx, req.TestID)
	if err != nil {
		return nil, err
	}

	tmpl, err := pickTemplate(test, req)
	if err != nil {
		return nil, err
	}

	selected, warning, err := pickPricing(test, req)
	if err != nil {
		return nil, err
	}

	rctx := RenderContext{
		NameOnTemplate: tmpl.Name,
		Installment:    selected.Installment,
		Price:          selected.Price,
		ICreditText:    firstNonEmpty(req.ICreditText, selected.ICreditText),
		ICreditLink:    firstNonEmpty(req.ICreditLink, selected.ICreditLink),
		IFormsText:     firstNonEmpty(req.IFormsText, selected.IFormsText),
		IFormsLink:     firstNonEmpty(req.IFormsLink, selected.IFormsLink),
		PatientName:    req.PatientName,
	}

	if err := validateLinkFields(tmpl.Body, rctx); err != nil {
		return nil, err
	}

	html := ApplyDirection(RenderTemplate(tmpl.Body, rctx), tmpl.IsRTL)

	subject := firstNonEmpty(req.Subject, tmpl.Subject, test.Name)

	return &composed{
		html:    html,
		subject: subject,
		isRTL:   tmpl.IsRTL,
		warning: warning,
	}, nil
}

func pickTemplate(test *Test, req PreviewRequest) (*Template, error) {
	if req.Body != "" {
		isRTL := false
		if req.IsRTL != nil {
			isRTL = *req.IsRTL
		}
		return &Template{
			Name:    req.TemplateName,
			Subject: req.Subject,
			Body:    req.Body,
			IsRTL:   isRTL,
		}, nil
	}

	tmpl := test.TemplateByName(req.TemplateName)
	if tmpl == nil {
		return nil, mailerErrors.New(ErrTemplateNotAllowed).
			WithDetail("test_id", test.ID.String()).
			WithDetail("name_on_template", req.TemplateName)
	}
	return tmpl, nil
}

func pickPricing(test *Test, req PreviewRequest) (PricingOption, string, error) {
	if req.Installment != nil && req.Price != nil {
		opt := MatchPricingOption(test.PricingOptions, *req.Installment, *req.Price)
		if opt == nil {
			return PricingOption{}, "", mailerErrors.New(ErrPricingMismatch).
				WithDetail("installment", *req.Installment).
				WithDetail("price", *req.Price)
		}
		return *opt, "", nil
	}

	hint := PriceHint{}
	if req.Price != nil {
		hint = PriceHint{Price: *req.Price, Valid: true}
	}
	res, err := ResolvePricingOption(test.PricingOptions, hint)
	if err != nil {
		return PricingOption{}, "", err
	}
	return res.Selected, res.Warning, nil
}

// validateLinkFields rejects a body that references a payment or consent
// link token without the text and URL to expand it.
func validateLinkFields(body string, rctx RenderContext) error {
	if strings.Contains(body, TokenICreditLink) && (rctx.ICreditText == "" || rctx.ICreditLink == "") {
		return mailerErrors.New(ErrMissingLinkFields).WithDetail("token", TokenICreditLink)
	}
	if strings.Contains(body, TokenIFormsLink) && (rctx.IFormsText == "" || rctx.IFormsLink == "") {
		return mailerErrors.New(ErrMissingLinkFields).WithDetail("token", TokenIFormsLink)
	}
	return nil
}

func (s *Service) loadAttachments(ctx context.Context, refs []AttachmentRef) ([]Attachment, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, mailerErrors.New(ErrInvalidAttachment).WithDetail("reason", "no attachment storage configured")
	}

	attachments := make([]Attachment, 0, len(refs))
	for _, ref := range refs {
		if ref.Key == "" {
			return nil, mailerErrors.New(ErrInvalidAttachment).WithDetail("reason", "missing storage key")
		}
		data, err := s.blobs.Read(ctx, ref.Key)
		if err != nil {
			return nil, err
		}
		filename := ref.Filename
		if filename == "" {
			filename = ref.Key[strings.LastIndex(ref.Key, "/")+1:]
		}
		mimeType := ref.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		attachments = append(attachments, Attachment{
			Filename: filename,
			Content:  data,
			MimeType: mimeType,
			CID:      ref.CID,
			Inline:   ref.Inline,
		})
	}
	return attachments, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinWarnings(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "; " + b
}
