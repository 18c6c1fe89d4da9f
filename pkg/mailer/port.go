package mailer

import "context"

// Sender delivers composed messages through an email provider. Implementations
// must translate provider failures into errx errors; callers never see a raw
// provider error.
type Sender interface {
	SendStructured(ctx context.Context, msg *StructuredMessage) (SendResult, error)
	SendRaw(ctx context.Context, msg *RawMessage) (SendResult, error)
}

// Repository loads tests with their templates and pricing options, and
// records the send log.
type Repository interface {
	FindTest(ctx context.Context, id TestID) (*Test, error)
	RecordSend(ctx context.Context, entry SendLog) error
}

// BlobReader loads stored attachment files by key.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// IdempotencyGuard claims send idempotency keys. Acquire returns false when
// the key was already claimed by an earlier send.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
}
