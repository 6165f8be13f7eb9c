package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// Profile mirrors the identity provider's user with dashboard details.
type Profile struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email     string            `gorm:"column:email;not null;uniqueIndex"`
	FullName  *string           `gorm:"column:full_name"`
	Phone     *string           `gorm:"column:phone"`
	Company   *string           `gorm:"column:company"`
	Role      enums.ProfileRole `gorm:"column:role;not null;default:'customer'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
