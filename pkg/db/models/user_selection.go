package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSelection records which price option a user picked for a quotation.
// (quotation_id, user_id) is unique.
type UserSelection struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID      uuid.UUID `gorm:"column:quotation_id;type:uuid;not null;uniqueIndex:ux_user_selections_quotation_user"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_user_selections_quotation_user"`
	SelectedOptionID string    `gorm:"column:selected_option_id;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
