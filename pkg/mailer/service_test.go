package mailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/Abraxas-365/caremail/pkg/mailer"
	"github.com/Abraxas-365/caremail/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRepo struct {
	test      *mailer.Test
	findErr   error
	recorded  []mailer.SendLog
	recordErr error
}

func (r *fakeRepo) FindTest(_ context.Context, id mailer.TestID) (*mailer.Test, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.test == nil || r.test.ID != id {
		return nil, mailer.NewTestNotFound(id)
	}
	return r.test, nil
}

func (r *fakeRepo) RecordSend(_ context.Context, entry mailer.SendLog) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.recorded = append(r.recorded, entry)
	return nil
}

type fakeSender struct {
	structured []*mailer.StructuredMessage
	raw        []*mailer.RawMessage
	err        error
}

func (s *fakeSender) SendStructured(_ context.Context, msg *mailer.StructuredMessage) (mailer.SendResult, error) {
	if s.err != nil {
		return mailer.SendResult{}, s.err
	}
	s.structured = append(s.structured, msg)
	return mailer.SendResult{Success: true, MessageID: "msg-123", AcceptedCount: len(msg.To) + len(msg.CC)}, nil
}

func (s *fakeSender) SendRaw(_ context.Context, msg *mailer.RawMessage) (mailer.SendResult, error) {
	if s.err != nil {
		return mailer.SendResult{}, s.err
	}
	s.raw = append(s.raw, msg)
	return mailer.SendResult{Success: true, MessageID: "msg-raw-123", AcceptedCount: len(msg.Recipients)}, nil
}

type fakeBlobs struct {
	files map[string][]byte
}

func (b *fakeBlobs) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := b.files[key]
	if !ok {
		return nil, errx.NotFound("blob not found").WithDetail("key", key)
	}
	return data, nil
}

type fakeGuard struct {
	acquired bool
	err      error
	keys     []string
}

func (g *fakeGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.keys = append(g.keys, key)
	if g.err != nil {
		return false, g.err
	}
	return g.acquired, nil
}

// --- fixtures ---

func storedTest() *mailer.Test {
	return &mailer.Test{
		ID:   "test-1",
		Name: "Genetic Panel",
		Templates: []mailer.Template{
			{
				Name:    "standard",
				Subject: "Your Genetic Panel",
				Body:    "<div>Hello #nameofpatient, pay #price via #icreditlink</div>",
			},
			{
				Name:  "hebrew",
				Body:  "<div>שלום #nameofpatient</div>",
				IsRTL: true,
			},
		},
		PricingOptions: []mailer.PricingOption{
			{Installment: 1, Price: 900, ICreditText: "Pay", ICreditLink: "https://pay.example.com/1", IsGlobalDefault: true},
			{Installment: 3, Price: 1000, ICreditText: "Pay", ICreditLink: "https://pay.example.com/3"},
		},
	}
}

func newTestService(repo *fakeRepo, sender *fakeSender, blobs *fakeBlobs, guard *fakeGuard) *mailer.Service {
	var b mailer.BlobReader
	if blobs != nil {
		b = blobs
	}
	var g mailer.IdempotencyGuard
	if guard != nil {
		g = guard
	}
	return mailer.NewService(repo, sender, b, g, "Care Clinic", "noreply@clinic.example.com")
}

func previewReq() mailer.PreviewRequest {
	return mailer.PreviewRequest{
		TestID:       "test-1",
		TemplateName: "standard",
		ToEmail:      "patient@example.com",
		PatientName:  "Dana Levi",
	}
}

// --- preview ---

func TestPreview_RendersStoredTemplate(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	res, err := svc.Preview(context.Background(), previewReq())
	require.NoError(t, err)

	assert.Contains(t, res.Preview, "Hello Dana Levi")
	assert.Contains(t, res.Preview, "pay 900")
	assert.Contains(t, res.Preview, `href="https://pay.example.com/1"`)
	assert.False(t, res.IsRTL)
	assert.Equal(t, "patient@example.com", res.To)
	assert.Empty(t, res.Warning)
}

func TestPreview_RTLTemplateGetsDirectionStyling(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.TemplateName = "hebrew"
	res, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.IsRTL)
	assert.Contains(t, res.Preview, "direction: rtl")
}

func TestPreview_AdHocBodyOverridesStoredTemplate(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.Body = "<p>custom #nameofpatient</p>"
	req.IsRTL = ptrx.Bool(true)
	res, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, res.Preview, "custom Dana Levi")
	assert.True(t, res.IsRTL)
}

func TestPreview_UnknownTemplateRejected(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.TemplateName = "nonexistent"
	_, err := svc.Preview(context.Background(), req)
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_TEMPLATE_NOT_ALLOWED", e.Code)
}

func TestPreview_TestNotFound(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeSender{}, nil, nil)

	_, err := svc.Preview(context.Background(), previewReq())
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_TEST_NOT_FOUND", e.Code)
}

func TestPreview_MissingRecipient(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.ToEmail = "   "
	_, err := svc.Preview(context.Background(), req)
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_INVALID_RECIPIENT", e.Code)
}

func TestPreview_ExplicitPairMustMatch(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.Installment = ptrx.Int(3)
	req.Price = ptrx.Float64(900) // pair belongs to installment 1
	_, err := svc.Preview(context.Background(), req)
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_PRICING_MISMATCH", e.Code)
}

func TestPreview_PriceHintFallbackWarns(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.Price = ptrx.Float64(555)
	res, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, mailer.WarningNoOptionAtPrice, res.Warning)
	assert.Contains(t, res.Preview, "pay 900") // fell back to global default
}

func TestPreview_LinkTokenWithoutFieldsRejected(t *testing.T) {
	test := storedTest()
	test.PricingOptions[0].ICreditText = ""
	test.PricingOptions[0].ICreditLink = ""
	svc := newTestService(&fakeRepo{test: test}, &fakeSender{}, nil, nil)

	_, err := svc.Preview(context.Background(), previewReq())
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_MISSING_LINK_FIELDS", e.Code)
}

func TestPreview_RequestLinkFieldsOverrideStored(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	req := previewReq()
	req.ICreditText = "Pay now"
	req.ICreditLink = "https://override.example.com"
	res, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, res.Preview, `href="https://override.example.com"`)
	assert.Contains(t, res.Preview, ">Pay now</a>")
}

// --- send ---

func TestSend_StructuredPath(t *testing.T) {
	repo := &fakeRepo{test: storedTest()}
	sender := &fakeSender{}
	svc := newTestService(repo, sender, nil, nil)

	out, err := svc.Send(context.Background(), mailer.SendRequest{PreviewRequest: previewReq()})
	require.NoError(t, err)

	require.Len(t, sender.structured, 1)
	assert.Empty(t, sender.raw)
	assert.Equal(t, "email sent", out.Message)
	assert.Equal(t, "msg-123", out.MessageID)
	assert.Equal(t, 1, out.Sent)
	assert.Equal(t, []string{"patient@example.com"}, out.Recipients)
	assert.Equal(t, "Your Genetic Panel", out.Subject)

	require.Len(t, repo.recorded, 1)
	assert.Equal(t, mailer.TestID("test-1"), repo.recorded[0].TestID)
	assert.Equal(t, "msg-123", repo.recorded[0].MessageID)
}

func TestSend_RawPathWithAttachment(t *testing.T) {
	repo := &fakeRepo{test: storedTest()}
	sender := &fakeSender{}
	blobs := &fakeBlobs{files: map[string][]byte{"uploads/report.pdf": []byte("pdf-data")}}
	svc := newTestService(repo, sender, blobs, nil)

	out, err := svc.Send(context.Background(), mailer.SendRequest{
		PreviewRequest: previewReq(),
		Attachments: []mailer.AttachmentRef{
			{Key: "uploads/report.pdf", MimeType: "application/pdf"},
		},
	})
	require.NoError(t, err)

	require.Len(t, sender.raw, 1)
	assert.Empty(t, sender.structured)
	assert.Equal(t, "msg-raw-123", out.MessageID)
	// Filename falls back to the key's basename.
	assert.Contains(t, string(sender.raw[0].Data), `filename="report.pdf"`)
}

func TestSend_AttachmentWithoutStorageRejected(t *testing.T) {
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, nil)

	_, err := svc.Send(context.Background(), mailer.SendRequest{
		PreviewRequest: previewReq(),
		Attachments:    []mailer.AttachmentRef{{Key: "uploads/report.pdf"}},
	})
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_INVALID_ATTACHMENT", e.Code)
}

func TestSend_TransportFailureReturnsOutcome(t *testing.T) {
	sender := &fakeSender{err: errx.External("provider down")}
	svc := newTestService(&fakeRepo{test: storedTest()}, sender, nil, nil)

	out, err := svc.Send(context.Background(), mailer.SendRequest{PreviewRequest: previewReq()})
	require.Error(t, err)
	require.NotNil(t, out)

	assert.Contains(t, out.Rendered, "Hello Dana Levi")
	assert.Equal(t, []string{"patient@example.com"}, out.Recipients)
	assert.Empty(t, out.MessageID)
}

func TestSend_BookkeepingFailureIsWarning(t *testing.T) {
	repo := &fakeRepo{test: storedTest(), recordErr: errors.New("db down")}
	svc := newTestService(repo, &fakeSender{}, nil, nil)

	out, err := svc.Send(context.Background(), mailer.SendRequest{PreviewRequest: previewReq()})
	require.NoError(t, err)

	assert.Equal(t, "email sent", out.Message)
	assert.Contains(t, out.Warning, "send log could not be updated")
}

func TestSend_DuplicateIdempotencyKeyRejected(t *testing.T) {
	guard := &fakeGuard{acquired: false}
	sender := &fakeSender{}
	svc := newTestService(&fakeRepo{test: storedTest()}, sender, nil, guard)

	_, err := svc.Send(context.Background(), mailer.SendRequest{
		PreviewRequest: previewReq(),
		IdempotencyKey: "key-1",
	})
	require.Error(t, err)

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	assert.Equal(t, "MAILER_DUPLICATE_SEND", e.Code)
	assert.Empty(t, sender.structured)
	assert.Equal(t, []string{"key-1"}, guard.keys)
}

func TestSend_GuardOutageDoesNotBlock(t *testing.T) {
	guard := &fakeGuard{err: errors.New("redis down")}
	sender := &fakeSender{}
	svc := newTestService(&fakeRepo{test: storedTest()}, sender, nil, guard)

	out, err := svc.Send(context.Background(), mailer.SendRequest{
		PreviewRequest: previewReq(),
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "email sent", out.Message)
	require.Len(t, sender.structured, 1)
}

func TestSend_NoKeySkipsGuard(t *testing.T) {
	guard := &fakeGuard{acquired: true}
	svc := newTestService(&fakeRepo{test: storedTest()}, &fakeSender{}, nil, guard)

	_, err := svc.Send(context.Background(), mailer.SendRequest{PreviewRequest: previewReq()})
	require.NoError(t, err)
	assert.Empty(t, guard.keys)
}

func TestSend_CCJoinsEnvelope(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(&fakeRepo{test: storedTest()}, sender, nil, nil)

	req := previewReq()
	req.CCEmails = []string{"doctor@example.com", "patient@example.com"}
	out, err := svc.Send(context.Background(), mailer.SendRequest{PreviewRequest: req})
	require.NoError(t, err)

	assert.Equal(t, []string{"patient@example.com", "doctor@example.com"}, out.Recipients)
	require.Len(t, sender.structured, 1)
	assert.Equal(t, []string{"doctor@example.com", "patient@example.com"}, sender.structured[0].CC)
}
