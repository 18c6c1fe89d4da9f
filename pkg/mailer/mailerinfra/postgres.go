// Package mailerinfra provides the persistence adapters for the mailer:
// a Postgres repository for tests, templates, pricing options and the send
// log, and a Redis-backed idempotency guard.
package mailerinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/Abraxas-365/caremail/pkg/mailer"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository implements mailer.Repository on Postgres.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new repository instance.
func NewPostgresRepository(db *sqlx.DB) mailer.Repository {
	return &PostgresRepository{db: db}
}

// FindTest loads a test with its templates and pricing options. Both lists
// keep their stored order; resolution tie-breaks depend on it.
func (r *PostgresRepository) FindTest(ctx context.Context, id mailer.TestID) (*mailer.Test, error) {
	var row testRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name FROM tests WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mailer.NewTestNotFound(id)
		}
		return nil, errx.Wrap(err, "failed to load test", errx.TypeInternal).
			WithDetail("test_id", id.String())
	}

	var templates []templateRow
	err = r.db.SelectContext(ctx, &templates, `
		SELECT name, subject, body, is_rtl
		FROM test_templates
		WHERE test_id = $1
		ORDER BY position, name`, id.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to load templates", errx.TypeInternal).
			WithDetail("test_id", id.String())
	}

	var options []pricingOptionRow
	err = r.db.SelectContext(ctx, &options, `
		SELECT installment, price, icredit_text, icredit_link,
		       iforms_text, iforms_link, is_global_default, is_price_default
		FROM pricing_options
		WHERE test_id = $1
		ORDER BY position, id`, id.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to load pricing options", errx.TypeInternal).
			WithDetail("test_id", id.String())
	}

	return toDomainTest(row, templates, options), nil
}

// RecordSend appends a send log entry after a successful dispatch.
func (r *PostgresRepository) RecordSend(ctx context.Context, entry mailer.SendLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO send_log (id, test_id, template_name, patient_name, recipients, subject, message_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		entry.TestID.String(),
		entry.TemplateName,
		entry.PatientName,
		pq.StringArray(entry.Recipients),
		entry.Subject,
		entry.MessageID,
		entry.SentAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return errx.Conflict("send log entry already exists").WithDetail("id", entry.ID)
		}
		return errx.Wrap(err, "failed to record send", errx.TypeInternal).
			WithDetail("test_id", entry.TestID.String())
	}
	return nil
}
