package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is the metadata row for an uploaded legal document. The file body
// lives in object storage under FilePath.
type Document struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	ConversationID *uuid.UUID `gorm:"column:conversation_id;type:uuid"`
	FileName       string     `gorm:"column:file_name;not null"`
	FilePath       string     `gorm:"column:file_path;not null;uniqueIndex"`
	FileType       string     `gorm:"column:file_type;not null"`
	FileSize       int64      `gorm:"column:file_size;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
