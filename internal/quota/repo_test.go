package quota

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:quota_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	// Single connection keeps concurrent writers queued instead of failing
	// with SQLITE_BUSY.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := `
CREATE TABLE IF NOT EXISTS daily_usage (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  usage_date TEXT NOT NULL,
  query_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, usage_date)
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestIncrementUsageCreatesThenBumps(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.IncrementUsage(ctx, userID, "2026-03-01"))
	require.NoError(t, repo.IncrementUsage(ctx, userID, "2026-03-01"))
	require.NoError(t, repo.IncrementUsage(ctx, userID, "2026-03-02"))

	usage, err := repo.FindUsage(ctx, userID, "2026-03-01")
	require.NoError(t, err)
	require.NotNil(t, usage)
	require.Equal(t, 2, usage.QueryCount)

	next, err := repo.FindUsage(ctx, userID, "2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, 1, next.QueryCount)
}

func TestIncrementUsageIsolatesUsers(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, repo.IncrementUsage(ctx, first, "2026-03-01"))

	usage, err := repo.FindUsage(ctx, second, "2026-03-01")
	require.NoError(t, err)
	require.Nil(t, usage)
}

func TestFindUsageMissingRowIsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	usage, err := repo.FindUsage(context.Background(), uuid.New(), "2026-03-01")
	require.NoError(t, err)
	require.Nil(t, usage)
}

func TestIncrementUsageConcurrentWritersLoseNothing(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementUsage(ctx, userID, "2026-03-01")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	usage, err := repo.FindUsage(ctx, userID, "2026-03-01")
	require.NoError(t, err)
	require.NotNil(t, usage)
	require.Equal(t, writers, usage.QueryCount)
}
