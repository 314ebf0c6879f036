package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/vision-relay/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Save insert/update Analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO image_analyses
(id, capability, image_key, image_url, width, height,
 result, failed, source, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 result=VALUES(result), failed=VALUES(failed), duration_ms=VALUES(duration_ms);
`
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(string(a.Capability)), a.ImageKey, a.ImageURL, a.Width, a.Height,
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
WHERE id=? LIMIT 1;
`
	return scanOne(r.db.QueryRowContext(ctx, q, id))
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
ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// Paginate with offset + limit (classic pagination)
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
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := scanAll(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image_analyses;`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func scanOne(row *sql.Row) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := row.Scan(
		&a.ID, &a.Capability, &a.ImageKey, &a.ImageURL, &a.Width, &a.Height,
		&a.Result, &a.Failed, &a.Source, &a.DurationMS, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAll(rows *sql.Rows) ([]*domain.Analysis, error) {
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
