package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenUsage records the estimated token spend of one completed reply.
type TokenUsage struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	ConversationID   *uuid.UUID `gorm:"column:conversation_id;type:uuid"`
	PromptTokens     int        `gorm:"column:prompt_tokens;not null"`
	CompletionTokens int        `gorm:"column:completion_tokens;not null"`
	TotalTokens      int        `gorm:"column:total_tokens;not null"`
	Model            string     `gorm:"column:model;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (TokenUsage) TableName() string {
	return "token_usage"
}
