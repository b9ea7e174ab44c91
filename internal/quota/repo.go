package quota

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
)

// Repository handles daily usage persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUsage(ctx context.Context, userID uuid.UUID, usageDate string) (*models.DailyUsage, error)
	IncrementUsage(ctx context.Context, userID uuid.UUID, usageDate string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a usage repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUsage(ctx context.Context, userID uuid.UUID, usageDate string) (*models.DailyUsage, error) {
	var usage models.DailyUsage
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, usageDate).
		First(&usage).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// IncrementUsage bumps the day's counter with a single upsert so concurrent
// requests never lose increments to a read-modify-write race.
func (r *repository) IncrementUsage(ctx context.Context, userID uuid.UUID, usageDate string) error {
	usage := models.DailyUsage{
		ID:         uuid.New(),
		UserID:     userID,
		UsageDate:  usageDate,
		QueryCount: 1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"query_count": gorm.Expr("query_count + 1"),
				"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(&usage).Error
}
