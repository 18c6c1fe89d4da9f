package mailerinfra

import (
	"context"

	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/jmoiron/sqlx"
)

// Migrate creates the mailer tables when they do not exist yet. Safe to run
// on every startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tests (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS test_templates (
			id       BIGSERIAL PRIMARY KEY,
			test_id  TEXT NOT NULL REFERENCES tests(id),
			name     TEXT NOT NULL,
			subject  TEXT NOT NULL DEFAULT '',
			body     TEXT NOT NULL,
			is_rtl   BOOLEAN NOT NULL DEFAULT FALSE,
			position INT NOT NULL DEFAULT 0,
			UNIQUE (test_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS pricing_options (
			id                BIGSERIAL PRIMARY KEY,
			test_id           TEXT NOT NULL REFERENCES tests(id),
			installment       INT NOT NULL,
			price             DOUBLE PRECISION NOT NULL,
			icredit_text      TEXT NOT NULL DEFAULT '',
			icredit_link      TEXT NOT NULL DEFAULT '',
			iforms_text       TEXT NOT NULL DEFAULT '',
			iforms_link       TEXT NOT NULL DEFAULT '',
			is_global_default BOOLEAN NOT NULL DEFAULT FALSE,
			is_price_default  BOOLEAN NOT NULL DEFAULT FALSE,
			position          INT NOT NULL DEFAULT 0
		);`,
		// At most one global default per test; the resolver tolerates
		// legacy rows that violate this by taking the first in stored order.
		`CREATE UNIQUE INDEX IF NOT EXISTS pricing_options_global_default_idx
			ON pricing_options (test_id) WHERE is_global_default;`,
		`CREATE TABLE IF NOT EXISTS send_log (
			id            TEXT PRIMARY KEY,
			test_id       TEXT NOT NULL,
			template_name TEXT NOT NULL DEFAULT '',
			patient_name  TEXT NOT NULL DEFAULT '',
			recipients    TEXT[] NOT NULL,
			subject       TEXT NOT NULL DEFAULT '',
			message_id    TEXT NOT NULL DEFAULT '',
			sent_at       TIMESTAMPTZ NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errx.Wrap(err, "mailer migration failed", errx.TypeInternal)
		}
	}
	return nil
}
