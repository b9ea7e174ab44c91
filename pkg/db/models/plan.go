package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Plan captures the local metadata for a subscription tier. Rows are seeded by
// migration and never written by runtime traffic.
type Plan struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;not null;uniqueIndex"`
	DisplayName   string         `gorm:"column:display_name;not null"`
	StripePriceID *string        `gorm:"column:stripe_price_id;uniqueIndex"`
	QueriesPerDay int            `gorm:"column:queries_per_day;not null;default:0"`
	PriceCents    int64          `gorm:"column:price_cents;not null;default:0"`
	Features      pq.StringArray `gorm:"column:features;type:text[];default:'{}'"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	SortOrder     int            `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
