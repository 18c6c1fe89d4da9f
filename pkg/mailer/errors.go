package mailer

import "github.com/Abraxas-365/caremail/pkg/errx"

var mailerErrors = errx.NewRegistry("MAILER")

var (
	ErrTestNotFound       = mailerErrors.Register("TEST_NOT_FOUND", errx.TypeNotFound, 404, "Test not found")
	ErrTemplateNotAllowed = mailerErrors.Register("TEMPLATE_NOT_ALLOWED", errx.TypeValidation, 400, "Template name is not allowed for this test")
	ErrNoPricingOptions   = mailerErrors.Register("NO_PRICING_OPTIONS", errx.TypeValidation, 400, "Test has no pricing options")
	ErrPricingMismatch    = mailerErrors.Register("PRICING_MISMATCH", errx.TypeValidation, 400, "Installment and price do not match any pricing option")
	ErrMissingLinkFields  = mailerErrors.Register("MISSING_LINK_FIELDS", errx.TypeValidation, 400, "Payment or consent link fields are missing")
	ErrInvalidRecipient   = mailerErrors.Register("INVALID_RECIPIENT", errx.TypeValidation, 400, "Recipient address is missing or malformed")
	ErrInvalidAttachment  = mailerErrors.Register("INVALID_ATTACHMENT", errx.TypeValidation, 400, "Attachment is malformed")
	ErrDuplicateSend      = mailerErrors.Register("DUPLICATE_SEND", errx.TypeConflict, 409, "An email with this idempotency key was already sent")
	ErrSendFailed         = mailerErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "Failed to send email")
)

// NewTestNotFound builds the standard not-found error for a test.
func NewTestNotFound(id TestID) *errx.Error {
	return mailerErrors.New(ErrTestNotFound).WithDetail("test_id", id.String())
}
