package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/angelmondragon/freightdesk-backend/pkg/money"
)

// View is the payment as returned to the dashboard.
type View struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	QuotationIDs    []uuid.UUID         `json:"quotation_ids"`
	Amount          string              `json:"amount"`
	AmountDisplay   string              `json:"amount_display"`
	Method          string              `json:"method"`
	Status          enums.PaymentStatus `json:"status"`
	ReferenceNumber string              `json:"reference_number"`
	ProofURL        *string             `json:"proof_url"`
	FailureReason   *string             `json:"failure_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func NewView(p models.Payment) View {
	ids := []uuid.UUID(p.QuotationIDs)
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return View{
		ID:              p.ID,
		UserID:          p.UserID,
		QuotationIDs:    ids,
		Amount:          p.Amount.StringFixed(2),
		AmountDisplay:   money.FormatFixed(p.Amount),
		Method:          p.Method,
		Status:          p.Status,
		ReferenceNumber: p.ReferenceNumber,
		ProofURL:        p.ProofURL,
		FailureReason:   p.FailureReason,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func NewViews(rows []models.Payment) []View {
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewView(row))
	}
	return out
}
