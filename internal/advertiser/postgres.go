package advertiser

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema creates the submissions table. Applied at startup when the
// Postgres store is selected; safe to re-run.
const Schema = `
CREATE TABLE IF NOT EXISTS advertiser_submissions (
    id                TEXT PRIMARY KEY,
    company_name      TEXT NOT NULL,
    pitch             TEXT NOT NULL,
    contact_email     TEXT NOT NULL,
    website           TEXT NOT NULL DEFAULT '',
    week_start        TEXT NOT NULL,
    week_end          TEXT NOT NULL,
    status            TEXT NOT NULL,
    payment_status    TEXT NOT NULL,
    payment_intent_id TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_advertiser_week_start ON advertiser_submissions (week_start);
`

// Postgres stores submissions in a Postgres table via sqlx.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects with the lib/pq driver and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection without touching the schema.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Create(ctx context.Context, sub Submission) error {
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO advertiser_submissions
			(id, company_name, pitch, contact_email, website, week_start, week_end,
			 status, payment_status, payment_intent_id, created_at, updated_at)
		VALUES
			(:id, :company_name, :pitch, :contact_email, :website, :week_start, :week_end,
			 :status, :payment_status, :payment_intent_id, :created_at, :updated_at)`, sub)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, sub Submission) error {
	res, err := p.db.NamedExecContext(ctx, `
		UPDATE advertiser_submissions SET
			status = :status,
			payment_status = :payment_status,
			payment_intent_id = :payment_intent_id,
			updated_at = :updated_at
		WHERE id = :id`, sub)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Submission, error) {
	var sub Submission
	err := p.db.GetContext(ctx, &sub,
		`SELECT * FROM advertiser_submissions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (p *Postgres) List(ctx context.Context) ([]Submission, error) {
	var subs []Submission
	err := p.db.SelectContext(ctx, &subs,
		`SELECT * FROM advertiser_submissions ORDER BY week_start`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}
