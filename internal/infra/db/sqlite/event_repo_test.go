package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
	"github.com/bryanwahyu/aegis-api/internal/infra/db"
	"github.com/bryanwahyu/aegis-api/internal/infra/db/sqlite"
)

func setupRepo(t *testing.T) *sqlite.EventRepository {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range db.Schema(db.SQLite) {
		_, err := conn.Exec(stmt)
		require.NoError(t, err)
	}
	return sqlite.NewEventRepository(conn)
}

func insert(t *testing.T, repo *sqlite.EventRepository, project, secretType string, ts time.Time) *domain.ScanEvent {
	t.Helper()
	e := &domain.ScanEvent{
		Timestamp:   ts,
		ProjectName: project,
		FilePath:    "config/.env",
		SecretType:  secretType,
		Confidence:  0.8,
		LineNumber:  3,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), e))
	return e
}

func TestInsertAndList_RoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	preview := "AKIA..."
	in := &domain.ScanEvent{
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ProjectName: "demo",
		FilePath:    "a.env",
		SecretType:  "aws_key",
		Confidence:  0.95,
		LineNumber:  12,
		Preview:     &preview,
		CreatedAt:   time.Date(2024, 6, 1, 8, 30, 0, 123000, time.UTC),
	}
	require.NoError(t, repo.Insert(ctx, in))
	assert.Equal(t, int64(1), in.ID)

	out, err := repo.List(ctx, domain.ListFilter{ProjectName: "demo", Limit: 100})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, in.ID, got.ID)
	assert.True(t, in.Timestamp.Equal(got.Timestamp), "timestamp %v", got.Timestamp)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
	assert.Equal(t, "a.env", got.FilePath)
	assert.Equal(t, "aws_key", got.SecretType)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.Equal(t, 12, got.LineNumber)
	require.NotNil(t, got.Preview)
	assert.Equal(t, "AKIA...", *got.Preview)
}

func TestInsert_IDsAreNeverReused(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := insert(t, repo, "p", "s", base)
	b := insert(t, repo, "p", "s", base)
	assert.Equal(t, a.ID+1, b.ID)
}

func TestList_OrderedByTimestampDesc(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{5, 1, 9, 3, 7} {
		insert(t, repo, "p", "s", base.Add(time.Duration(h)*time.Hour))
	}

	out, err := repo.List(context.Background(), domain.ListFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i-1].Timestamp.After(out[i].Timestamp), "row %d out of order", i)
	}
}

func TestList_FilterIsExactAndCaseSensitive(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	insert(t, repo, "Demo", "s", base)
	insert(t, repo, "demo", "s", base)
	insert(t, repo, "demo-2", "s", base)

	out, err := repo.List(context.Background(), domain.ListFilter{ProjectName: "demo", Limit: 100})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "demo", out[0].ProjectName)
}

func TestList_Pagination(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	const n = 7
	for i := 0; i < n; i++ {
		insert(t, repo, "p", "s", base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct{ limit, offset int }{
		{3, 0}, {3, 3}, {3, 6}, {3, 7}, {10, 2}, {0, 0}, {2, 100},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("limit=%d,offset=%d", tc.limit, tc.offset), func(t *testing.T) {
			out, err := repo.List(context.Background(), domain.ListFilter{Limit: tc.limit, Offset: tc.offset})
			require.NoError(t, err)
			want := max(0, min(tc.limit, n-tc.offset))
			assert.Len(t, out, want)
		})
	}

	first, err := repo.List(context.Background(), domain.ListFilter{Limit: 3, Offset: 0})
	require.NoError(t, err)
	second, err := repo.List(context.Background(), domain.ListFilter{Limit: 3, Offset: 3})
	require.NoError(t, err)
	seen := map[int64]bool{}
	for _, e := range first {
		seen[e.ID] = true
	}
	for _, e := range second {
		assert.False(t, seen[e.ID], "id %d on both pages", e.ID)
	}
}

func TestCounts_OnlyPresentGroups(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	insert(t, repo, "A", "aws_key", base)
	insert(t, repo, "A", "github_token", base)
	insert(t, repo, "B", "aws_key", base)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	byProject, err := repo.CountByProject(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ProjectCount{
		{ProjectName: "A", Count: 2},
		{ProjectName: "B", Count: 1},
	}, byProject)

	byType, err := repo.CountBySecretType(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.SecretTypeCount{
		{SecretType: "aws_key", Count: 2},
		{SecretType: "github_token", Count: 1},
	}, byType)
}

func TestCounts_EmptyTable(t *testing.T) {
	repo := setupRepo(t)

	byProject, err := repo.CountByProject(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, byProject)
	assert.Empty(t, byProject)
}
