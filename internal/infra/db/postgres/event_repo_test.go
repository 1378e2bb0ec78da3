package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
)

var eventColumns = []string{
	"id", "timestamp", "project_name", "file_path", "secret_type",
	"confidence", "line_number", "preview", "created_at",
}

func newRepoWithMock(t *testing.T) (*EventRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewEventRepository(db), mock, db
}

func TestInsert_ReturnsGeneratedID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	preview := "AKIA..."

	mock.ExpectQuery(`INSERT INTO scan_events .* VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8\)\s+RETURNING id;`).
		WithArgs(ts, "demo", "a.env", "aws_key", 0.95, 12, "AKIA...", created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	e := &domain.ScanEvent{
		Timestamp: ts, ProjectName: "demo", FilePath: "a.env", SecretType: "aws_key",
		Confidence: 0.95, LineNumber: 12, Preview: &preview, CreatedAt: created,
	}
	require.NoError(t, repo.Insert(context.Background(), e))
	assert.Equal(t, int64(7), e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NilPreviewIsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO scan_events`).
		WithArgs(sqlmock.AnyArg(), "p", "f", "s", 0.1, 1, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	e := &domain.ScanEvent{ProjectName: "p", FilePath: "f", SecretType: "s", Confidence: 0.1, LineNumber: 1}
	require.NoError(t, repo.Insert(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO scan_events`).WillReturnError(errors.New("db is down"))

	err := repo.Insert(context.Background(), &domain.ScanEvent{})
	require.Error(t, err)
	assert.Regexp(t, `inserting scan event: .*db is down`, err.Error())
}

func TestList_WithProjectFilter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	q := regexp.QuoteMeta(`WHERE project_name = $1`) + `\s+` +
		regexp.QuoteMeta(`ORDER BY "timestamp" DESC, id DESC`) + `\s+` +
		regexp.QuoteMeta(`LIMIT $2 OFFSET $3;`)
	mock.ExpectQuery(q).
		WithArgs("demo", 10, 5).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow(int64(2), ts, "demo", "a.env", "aws_key", 0.9, 3, "x", created).
			AddRow(int64(1), ts.Add(-time.Hour), "demo", "b.env", "jwt", 0.5, 4, nil, created))

	out, err := repo.List(context.Background(), domain.ListFilter{ProjectName: "demo", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	require.NotNil(t, out[0].Preview)
	assert.Equal(t, "x", *out[0].Preview)
	assert.Nil(t, out[1].Preview)
	assert.Equal(t, 4, out[1].LineNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_NoFilterEmpty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM scan_events\s+ORDER BY "timestamp" DESC, id DESC\s+LIMIT \$1 OFFSET \$2;`).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	out, err := repo.List(context.Background(), domain.ListFilter{Limit: 100})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scan_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT project_name, COUNT\(id\)\s+FROM scan_events\s+GROUP BY project_name`).
		WillReturnRows(sqlmock.NewRows([]string{"project_name", "count"}).AddRow("A", int64(2)).AddRow("B", int64(1)))
	mock.ExpectQuery(`SELECT secret_type, COUNT\(id\)\s+FROM scan_events\s+GROUP BY secret_type`).
		WillReturnRows(sqlmock.NewRows([]string{"secret_type", "count"}).AddRow("aws_key", int64(3)))

	ctx := context.Background()
	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	byProject, err := repo.CountByProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectCount{{ProjectName: "A", Count: 2}, {ProjectName: "B", Count: 1}}, byProject)

	byType, err := repo.CountBySecretType(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SecretTypeCount{{SecretType: "aws_key", Count: 3}}, byType)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByProject_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY project_name`).WillReturnError(errors.New("boom"))

	_, err := repo.CountByProject(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grouping by project")
}
