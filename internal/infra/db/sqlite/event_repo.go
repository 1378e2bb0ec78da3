// Package sqlite stores scan events in SQLite through modernc.org/sqlite.
// It backs local development databases and the integration tests.
package sqlite

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

func (r *EventRepository) Insert(ctx context.Context, e *domain.ScanEvent) error {
	const q = `
INSERT INTO scan_events
  ("timestamp", project_name, file_path, secret_type, confidence, line_number, preview, created_at)
VALUES (?,?,?,?,?,?,?,?);`
	var preview sql.NullString
	if e.Preview != nil {
		preview = sql.NullString{String: *e.Preview, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q,
		e.Timestamp.UTC(), e.ProjectName, e.FilePath, e.SecretType,
		e.Confidence, e.LineNumber, preview, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting scan event: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading inserted id: %w", err)
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.ScanEvent, error) {
	query := `
SELECT id, "timestamp", project_name, file_path, secret_type,
       confidence, line_number, preview, created_at
FROM scan_events`
	var args []any
	if f.ProjectName != "" {
		query += "\nWHERE project_name = ?"
		args = append(args, f.ProjectName)
	}
	query += "\nORDER BY \"timestamp\" DESC, id DESC\nLIMIT ? OFFSET ?;"
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_events;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting scan events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) CountByProject(ctx context.Context) ([]domain.ProjectCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_name, COUNT(id) FROM scan_events GROUP BY project_name;`)
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
	rows, err := r.db.QueryContext(ctx,
		`SELECT secret_type, COUNT(id) FROM scan_events GROUP BY secret_type;`)
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
