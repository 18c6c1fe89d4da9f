package mailer

import "time"

type TestID string

func NewTestID(id string) TestID { return TestID(id) }
func (t TestID) String() string  { return string(t) }
func (t TestID) IsEmpty() bool   { return string(t) == "" }

// Test is a medical test patients get billed and emailed about. Each test
// owns its email templates and its selectable pricing options.
type Test struct {
	ID             TestID
	Name           string
	Templates      []Template
	PricingOptions []PricingOption
}

// TemplateByName returns the template with the given name, or nil when the
// name is not in the test's allowed set.
func (t *Test) TemplateByName(name string) *Template {
	for i := range t.Templates {
		if t.Templates[i].Name == name {
			return &t.Templates[i]
		}
	}
	return nil
}

// Template is an HTML email body with an optional subject. The body may
// contain placeholder tokens from the fixed vocabulary.
type Template struct {
	Name    string
	Subject string
	Body    string
	IsRTL   bool
}

// PricingOption is one selectable combination of installment count, total
// price and payment/consent link metadata belonging to a test. Options keep
// their stored order; resolution tie-breaks depend on it.
type PricingOption struct {
	Installment     int
	Price           float64
	ICreditText     string
	ICreditLink     string
	IFormsText      string
	IFormsLink      string
	IsGlobalDefault bool
	IsPriceDefault  bool
}

// PriceHint is a price imported from an external row-oriented source (the
// patient spreadsheet). Valid is false when the row carried no price.
type PriceHint struct {
	Price float64
	Valid bool
}

// Resolution is the outcome of pricing option resolution. Warning is
// advisory; a selection is always made.
type Resolution struct {
	Selected PricingOption
	Warning  string
}

// RenderContext is the ephemeral value bag substituted into a template body.
// Constructed per preview/send request, never persisted.
type RenderContext struct {
	NameOnTemplate string
	Installment    int
	Price          float64
	ICreditText    string
	ICreditLink    string
	IFormsText     string
	IFormsLink     string
	PatientName    string
}

// Attachment is a file included with an outgoing email. Inline attachments
// carry a CID and are referenced from the HTML body via cid: URIs.
type Attachment struct {
	Filename string
	Content  []byte
	MimeType string
	CID      string
	Inline   bool
}

// StructuredMessage is a plain HTML email the provider can assemble itself.
// Used when there are no attachments.
type StructuredMessage struct {
	FromName  string
	FromEmail string
	ReplyTo   string
	To        []string
	CC        []string
	Subject   string
	HTMLBody  string
}

// RawMessage is a hand-built RFC 822 message. Recipients is the envelope
// destination list: the deduplicated union of To and CC.
type RawMessage struct {
	From       string
	Recipients []string
	Data       []byte
}

// ComposedMessage is the wire artifact handed to the transport: exactly one
// of Structured or Raw is set.
type ComposedMessage struct {
	Structured *StructuredMessage
	Raw        *RawMessage
}

// IsRaw reports whether the message took the raw MIME path.
func (m ComposedMessage) IsRaw() bool {
	return m.Raw != nil
}

// SendResult is the provider response normalized to a uniform shape.
type SendResult struct {
	Success       bool
	MessageID     string
	AcceptedCount int
}

// SendLog is the bookkeeping record written after a successful send.
type SendLog struct {
	ID           string
	TestID       TestID
	TemplateName string
	PatientName  string
	Recipients   []string
	Subject      string
	MessageID    string
	SentAt       time.Time
}
