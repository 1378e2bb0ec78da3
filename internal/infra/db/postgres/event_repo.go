package postgres

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
	"github.com/bryanwahyu/aegis-api/internal/infra/db/dbx"
)

type EventRepository struct {
	db dbx.DBTX
}

func NewEventRepository(db dbx.DBTX) *EventRepository { return &EventRepository{db: db} }

const selectEvents = `
SELECT id, "timestamp", project_name, file_path, secret_type,
       confidence, line_number, preview, created_at
FROM scan_events`

// Insert stores e and fills in the generated id
func (r *EventRepository) Insert(ctx context.Context, e *domain.ScanEvent) error {
	const q = `
INSERT INTO scan_events
  ("timestamp", project_name, file_path, secret_type, confidence, line_number, preview, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id;`
	err := r.db.QueryRowContext(ctx, q,
		e.Timestamp.UTC(), e.ProjectName, e.FilePath, e.SecretType,
		e.Confidence, e.LineNumber, nullString(e.Preview), e.CreatedAt.UTC(),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("inserting scan event: %w", err)
	}
	return nil
}

// List with optional project filter, newest timestamp first
func (r *EventRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.ScanEvent, error) {
	query := selectEvents
	args := []any{}
	next := 1

	if f.ProjectName != "" {
		query += fmt.Sprintf("\nWHERE project_name = $%d", next)
		args = append(args, f.ProjectName)
		next++
	}
	query += fmt.Sprintf("\nORDER BY \"timestamp\" DESC, id DESC\nLIMIT $%d OFFSET $%d;", next, next+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scan events: %w", err)
	}
	defer rows.Close()

	out := []*domain.ScanEvent{}
	for rows.Next() {
		var e domain.ScanEvent
		var preview sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.ProjectName, &e.FilePath, &e.SecretType,
			&e.Confidence, &e.LineNumber, &preview, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		if preview.Valid {
			e.Preview = &preview.String
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_events;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting scan events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) CountByProject(ctx context.Context) ([]domain.ProjectCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT project_name, COUNT(id)
FROM scan_events
GROUP BY project_name;`)
	if err != nil {
		return nil, fmt.Errorf("grouping by project: %w", err)
	}
	defer rows.Close()

	out := []domain.ProjectCount{}
	for rows.Next() {
		var c domain.ProjectCount
		if err := rows.Scan(&c.ProjectName, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *EventRepository) CountBySecretType(ctx context.Context) ([]domain.SecretTypeCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT secret_type, COUNT(id)
FROM scan_events
GROUP BY secret_type;`)
	if err != nil {
		return nil, fmt.Errorf("grouping by secret type: %w", err)
	}
	defer rows.Close()

	out := []domain.SecretTypeCount{}
	for rows.Next() {
		var c domain.SecretTypeCount
		if err := rows.Scan(&c.SecretType, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
