package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// QuotationCreatedEvent tells the sourcing team a new request needs pricing.
type QuotationCreatedEvent struct {
	QuotationID uuid.UUID `json:"quotation_id"`
	Code        string    `json:"code"`
	UserID      uuid.UUID `json:"user_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
}

// PaymentCreatedEvent is emitted in the checkout transaction.
type PaymentCreatedEvent struct {
	PaymentID       uuid.UUID       `json:"payment_id"`
	UserID          uuid.UUID       `json:"user_id"`
	QuotationIDs    []uuid.UUID     `json:"quotation_ids"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number"`
}

// PaymentFailedEvent records an aborted checkout attempt.
type PaymentFailedEvent struct {
	PaymentID       uuid.UUID   `json:"payment_id"`
	UserID          uuid.UUID   `json:"user_id"`
	QuotationIDs    []uuid.UUID `json:"quotation_ids"`
	ReferenceNumber string      `json:"reference_number"`
	Reason          string      `json:"reason"`
}

// PaymentProofUploadedEvent asks an admin to review a proof of payment.
type PaymentProofUploadedEvent struct {
	PaymentID uuid.UUID           `json:"payment_id"`
	UserID    uuid.UUID           `json:"user_id"`
	MediaID   uuid.UUID           `json:"media_id"`
	ProofURL  string              `json:"proof_url"`
	Status    enums.PaymentStatus `json:"status"`
}

// ShipmentReceiverSubmittedEvent hands receiver details to logistics.
type ShipmentReceiverSubmittedEvent struct {
	ShipmentID  uuid.UUID `json:"shipment_id"`
	QuotationID uuid.UUID `json:"quotation_id"`
	ReceiverID  uuid.UUID `json:"receiver_id"`
	UserID      uuid.UUID `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}
