package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/payorsync/internal/config"
	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "payorsync", DatabaseName("postgres://user:pw@localhost:5432/payorsync?sslmode=disable"))
	assert.Equal(t, "", DatabaseName("postgres://localhost"))
	assert.Equal(t, "", DatabaseName("://bad"))
}

// testStore connects to PAYORSYNC_TEST_DATABASE_URL or skips.
func testStore(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("PAYORSYNC_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PAYORSYNC_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Open(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2, MinConns: 0})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	pg, err := NewPostgres(ctx, pool)
	require.NoError(t, err)
	return pg
}

func TestPostgres_RecordListPurge(t *testing.T) {
	pg := testStore(t)
	ctx := context.Background()

	// Far-future timestamps keep these rows ahead of anything else in the table.
	base := time.Date(2999, time.January, 1, 0, 0, 0, 0, time.UTC)
	older := core.RunSummary{
		ID:             uuid.NewString(),
		OldFile:        "old.xlsx",
		NewFile:        "new.xlsx",
		ComparisonDate: "2999-01-01",
		SheetsCompared: []string{"GroupSurchargeDetail"},
		Summaries: map[string]core.SheetSummary{
			"GroupSurchargeDetail": {Total: 2, Found: 2, Changed: 1, Unchanged: 1},
		},
		ChangeCount: 1,
		CreatedAt:   base,
	}
	newer := older
	newer.ID = uuid.NewString()
	newer.CreatedAt = base.Add(time.Minute)

	require.NoError(t, pg.Record(ctx, older))
	require.NoError(t, pg.Record(ctx, newer))
	t.Cleanup(func() {
		_, _ = pg.pool.Exec(context.Background(), `DELETE FROM comparison_runs WHERE id = ANY($1)`,
			[]string{older.ID, newer.ID})
	})

	got, err := pg.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	assert.Equal(t, older.Summaries, got[1].Summaries)
	assert.Equal(t, older.SheetsCompared, got[1].SheetsCompared)
	assert.Equal(t, "2999-01-01", got[1].ComparisonDate)
	assert.True(t, older.CreatedAt.Equal(got[1].CreatedAt))

	purged, err := pg.Purge(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))

	got, err = pg.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newer.ID, got[0].ID)
}

func TestPostgres_RecordRejectsBadDate(t *testing.T) {
	pg := &Postgres{}
	err := pg.Record(context.Background(), core.RunSummary{ComparisonDate: "June 1"})
	assert.Error(t, err)
}
