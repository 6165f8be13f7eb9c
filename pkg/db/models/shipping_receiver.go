package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingReceiver is a receiver contact submitted for a shipment. A user has
// at most one default receiver.
type ShippingReceiver struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	ShipmentID *uuid.UUID `gorm:"column:shipment_id;type:uuid"`
	Name       string     `gorm:"column:name;not null"`
	Phone      string     `gorm:"column:phone;not null"`
	Address    string     `gorm:"column:address;not null"`
	Email      *string    `gorm:"column:email"`
	IsDefault  bool       `gorm:"column:is_default;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
