// Package mailerhttp exposes the preview and send operations over HTTP.
package mailerhttp

import (
	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/Abraxas-365/caremail/pkg/mailer"
	"github.com/gofiber/fiber/v2"
)

// emailRequest is the JSON shape shared by preview and send. Either
// nameOnTemplate selects a stored template, or body+isRTL supply one inline.
type emailRequest struct {
	TestID       string   `json:"testId"`
	TemplateName string   `json:"nameOnTemplate"`
	Body         string   `json:"body,omitempty"`
	IsRTL        *bool    `json:"isRTL,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Installment  *int     `json:"installment,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	ToEmail      string   `json:"toEmail"`
	PatientName  string   `json:"patientName"`
	ICreditText  string   `json:"icreditText,omitempty"`
	ICreditLink  string   `json:"icreditLink,omitempty"`
	IFormsText   string   `json:"iformsText,omitempty"`
	IFormsLink   string   `json:"iformsLink,omitempty"`
	ReplyTo      string   `json:"replyTo,omitempty"`
	CCEmails     []string `json:"ccEmails,omitempty"`
}

type attachmentRef struct {
	Key      string `json:"key"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	CID      string `json:"cid,omitempty"`
	Inline   bool   `json:"inline,omitempty"`
}

type sendRequest struct {
	emailRequest
	Attachments    []attachmentRef `json:"attachments,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

func (r emailRequest) toPreviewRequest() mailer.PreviewRequest {
	return mailer.PreviewRequest{
		TestID:       mailer.NewTestID(r.TestID),
		TemplateName: r.TemplateName,
		Body:         r.Body,
		IsRTL:        r.IsRTL,
		Subject:      r.Subject,
		Installment:  r.Installment,
		Price:        r.Price,
		ToEmail:      r.ToEmail,
		PatientName:  r.PatientName,
		ICreditText:  r.ICreditText,
		ICreditLink:  r.ICreditLink,
		IFormsText:   r.IFormsText,
		IFormsLink:   r.IFormsLink,
		ReplyTo:      r.ReplyTo,
		CCEmails:     r.CCEmails,
	}
}

// Handlers wires the mailer service into Fiber routes.
type Handlers struct {
	service *mailer.Service
}

// NewHandlers creates the HTTP handlers for the mailer module.
func NewHandlers(service *mailer.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the email endpoints on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1/emails")
	api.Post("/preview", h.Preview)
	api.Post("/send", h.Send)
}

// Preview renders the email without sending it.
func (h *Handlers) Preview(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("malformed request body").WithDetail("parse_error", err.Error())
	}

	result, err := h.service.Preview(c.Context(), req.toPreviewRequest())
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"preview": result.Preview,
		"isRTL":   result.IsRTL,
		"to":      result.To,
		"cc":      result.CC,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	return c.JSON(resp)
}

// Send renders, assembles and dispatches the email.
func (h *Handlers) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("malformed request body").WithDetail("parse_error", err.Error())
	}

	domainReq := mailer.SendRequest{
		PreviewRequest: req.toPreviewRequest(),
		IdempotencyKey: req.IdempotencyKey,
	}
	for _, a := range req.Attachments {
		domainReq.Attachments = append(domainReq.Attachments, mailer.AttachmentRef{
			Key:      a.Key,
			Filename: a.Filename,
			MimeType: a.MimeType,
			CID:      a.CID,
			Inline:   a.Inline,
		})
	}

	outcome, err := h.service.Send(c.Context(), domainReq)
	if err != nil {
		if outcome == nil {
			// Pipeline failure before dispatch; shaped by the global handler.
			return err
		}
		// Transport failure: echo the rendered content back for debugging.
		status := fiber.StatusBadGateway
		var e *errx.Error
		if errx.As(err, &e) {
			status = e.HTTPStatus
		}
		return c.Status(status).JSON(fiber.Map{
			"error":           err.Error(),
			"recipients":      outcome.Recipients,
			"replyTo":         outcome.ReplyTo,
			"subject":         outcome.Subject,
			"renderedContent": outcome.Rendered,
		})
	}

	resp := fiber.Map{
		"message":    outcome.Message,
		"recipients": outcome.Recipients,
		"replyTo":    outcome.ReplyTo,
		"subject":    outcome.Subject,
		"isRTL":      outcome.IsRTL,
		"sent":       outcome.Sent,
		"queued":     outcome.Queued,
		"rejected":   outcome.Rejected,
		"details": fiber.Map{
			"messageId": outcome.MessageID,
		},
	}
	if outcome.Warning != "" {
		resp["warning"] = outcome.Warning
	}
	return c.JSON(resp)
}
