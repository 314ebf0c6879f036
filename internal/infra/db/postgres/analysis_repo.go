package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the analyses table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const q = `
CREATE TABLE IF NOT EXISTS image_analyses (
  id           VARCHAR(64)  NOT NULL PRIMARY KEY,
  capability   VARCHAR(64)  NOT NULL,
  image_key    VARCHAR(255) NOT NULL DEFAULT '',
  image_url    VARCHAR(512) NOT NULL DEFAULT '',
  width        INT          NOT NULL DEFAULT 0,
  height       INT          NOT NULL DEFAULT 0,
  result       TEXT,
  failed       BOOLEAN      NOT NULL DEFAULT FALSE,
  source       VARCHAR(64)  NOT NULL DEFAULT '',
  duration_ms  BIGINT       NOT NULL DEFAULT 0,
  created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON image_analyses (created_at);`
	_, err := db.ExecContext(ctx, q)
	return err
}

// Save insert/update Analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO image_analyses
(id, capability, image_key, image_url, width, height,
 result, failed, source, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
 result = EXCLUDED.result,
 failed = EXCLUDED.failed,
 duration_ms = EXCLUDED.duration_ms;`

	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Capability, a.ImageKey, a.ImageURL, a.Width, a.Height,
		a.Result, a.Failed, a.Source, a.DurationMS, created,
	)
	return err
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `
SELECT id, capability, image_key, image_url, width, height,
       result, failed, source, duration_ms, created_at
FROM image_analyses
WHERE id=$1
LIMIT 1;`
	var a domain.Analysis
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Capability, &a.ImageKey, &a.ImageURL, &a.Width, &a.Height,
		&a.Result, &a.Failed, &a.Source, &a.DurationMS, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// Latest analyses, newest first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, capability, image_key, image_url, width, height,
       result, failed, source, duration_ms, created_at
FROM image_analyses
ORDER BY created_at DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Paginate with offset + limit
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, capability, image_key, image_url, width, height,
       result, failed, source, duration_ms, created_at
FROM image_analyses
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image_analyses;`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func collect(rows *sql.Rows) ([]*domain.Analysis, error) {
	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		if err := rows.Scan(
			&a.ID, &a.Capability, &a.ImageKey, &a.ImageURL, &a.Width, &a.Height,
			&a.Result, &a.Failed, &a.Source, &a.DurationMS, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
