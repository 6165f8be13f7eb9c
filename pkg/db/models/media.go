package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// Media captures metadata for uploaded objects. A row is written as pending
// before the object is stored and flips to attached once the owning record
// references it.
type Media struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	OwnerID    *uuid.UUID        `gorm:"column:owner_id;type:uuid"`
	Kind       enums.MediaKind   `gorm:"column:kind;type:media_kind;not null"`
	Status     enums.MediaStatus `gorm:"column:status;type:media_status;not null;default:'pending'"`
	ObjectKey  string            `gorm:"column:object_key;not null;uniqueIndex"`
	FileName   string            `gorm:"column:file_name;not null"`
	MimeType   string            `gorm:"column:mime_type;not null"`
	SizeBytes  int64             `gorm:"column:size_bytes;not null"`
	URL        *string           `gorm:"column:url"`
	AttachedAt *time.Time        `gorm:"column:attached_at"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
