package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	"github.com/pravnaai/pravnaai-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:subs_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	plans := `
CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  stripe_price_id TEXT UNIQUE,
  queries_per_day INTEGER NOT NULL,
  price_cents INTEGER NOT NULL DEFAULT 0,
  features TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	subs := `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  plan_id TEXT NOT NULL,
  stripe_customer_id TEXT,
  stripe_subscription_id TEXT UNIQUE,
  status TEXT NOT NULL DEFAULT 'active',
  current_period_start DATETIME,
  current_period_end DATETIME,
  cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(plans).Error)
	require.NoError(t, db.Exec(subs).Error)
	return db
}

func seedPlan(t *testing.T, db *gorm.DB, name string, limit int) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		ID:            uuid.New(),
		Name:          name,
		DisplayName:   name,
		QueriesPerDay: limit,
		IsActive:      true,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func TestUpsertCreatesThenUpdatesSameRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	basic := seedPlan(t, db, "basic", 20)
	pro := seedPlan(t, db, "professional", 100)
	userID := uuid.New()
	stripeID := "sub_123"

	first := &models.Subscription{
		UserID:               userID,
		PlanID:               basic.ID,
		StripeSubscriptionID: &stripeID,
		Status:               enums.SubscriptionStatusActive,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	// Replay with a new plan lands on the same row.
	end := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	second := &models.Subscription{
		UserID:               userID,
		PlanID:               pro.ID,
		StripeSubscriptionID: &stripeID,
		Status:               enums.SubscriptionStatusActive,
		CurrentPeriodEnd:     &end,
		CancelAtPeriodEnd:    true,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	stored, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, first.ID, stored.ID)
	require.Equal(t, pro.ID, stored.PlanID)
	require.True(t, stored.CancelAtPeriodEnd)
	require.NotNil(t, stored.CurrentPeriodEnd)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestFindByUserIDPreloadsPlan(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	basic := seedPlan(t, db, "basic", 20)
	userID := uuid.New()
	require.NoError(t, repo.Upsert(ctx, &models.Subscription{
		UserID: userID,
		PlanID: basic.ID,
		Status: enums.SubscriptionStatusActive,
	}))

	stored, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Plan)
	require.Equal(t, "basic", stored.Plan.Name)
	require.Equal(t, 20, stored.Plan.QueriesPerDay)
}

func TestFindByStripeSubscriptionID(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	basic := seedPlan(t, db, "basic", 20)
	stripeID := "sub_123"
	require.NoError(t, repo.Upsert(ctx, &models.Subscription{
		UserID:               uuid.New(),
		PlanID:               basic.ID,
		StripeSubscriptionID: &stripeID,
		Status:               enums.SubscriptionStatusActive,
	}))

	stored, err := repo.FindByStripeSubscriptionID(ctx, "sub_123")
	require.NoError(t, err)
	require.NotNil(t, stored)

	missing, err := repo.FindByStripeSubscriptionID(ctx, "sub_other")
	require.NoError(t, err)
	require.Nil(t, missing)

	blank, err := repo.FindByStripeSubscriptionID(ctx, "")
	require.NoError(t, err)
	require.Nil(t, blank)
}
