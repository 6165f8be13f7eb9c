package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// Shipment tracks the logistics leg of an approved quotation. Receiver
// fields are copied from the submitted shipping_receivers row.
type Shipment struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID     uuid.UUID            `gorm:"column:quotation_id;type:uuid;not null"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.ShipmentStatus `gorm:"column:status;not null;default:'waiting'"`
	Location        *string              `gorm:"column:location"`
	MediaURLs       pq.StringArray       `gorm:"column:media_urls;type:text[];not null;default:'{}'"`
	ReceiverName    *string              `gorm:"column:receiver_name"`
	ReceiverPhone   *string              `gorm:"column:receiver_phone"`
	ReceiverAddress *string              `gorm:"column:receiver_address"`
	ReceiverEmail   *string              `gorm:"column:receiver_email"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Shipment) TableName() string {
	return "shipping"
}
