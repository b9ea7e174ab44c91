package models

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a user-scheduled deadline, optionally tied to a conversation.
type Reminder struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	ConversationID *uuid.UUID `gorm:"column:conversation_id;type:uuid"`
	Title          string     `gorm:"column:title;not null"`
	Description    *string    `gorm:"column:description"`
	DueDate        time.Time  `gorm:"column:due_date;not null"`
	IsCompleted    bool       `gorm:"column:is_completed;not null;default:false"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
