package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyUsage counts consumed queries per user per calendar day. UsageDate is a
// date truncated in the configured quota reset timezone; (user_id, usage_date)
// is unique and the count only grows within a day.
type DailyUsage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_daily_usage_user_date"`
	UsageDate  string    `gorm:"column:usage_date;type:date;not null;uniqueIndex:idx_daily_usage_user_date"`
	QueryCount int       `gorm:"column:query_count;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DailyUsage) TableName() string {
	return "daily_usage"
}
