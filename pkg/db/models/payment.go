package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/freightdesk-backend/pkg/db/types"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// Payment is a checkout payment covering one or more quotations.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	QuotationIDs    dbtypes.UUIDArray   `gorm:"column:quotation_ids;type:uuid[];not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Method          string              `gorm:"column:method;not null"`
	Status          enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	ReferenceNumber string              `gorm:"column:reference_number;not null;uniqueIndex"`
	ProofURL        *string             `gorm:"column:proof_url"`
	FailureReason   *string             `gorm:"column:failure_reason"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
