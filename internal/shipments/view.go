package shipments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// QuotationSummary is the slice of the quotation a shipment card shows.
type QuotationSummary struct {
	ID          uuid.UUID           `json:"id"`
	Code        string              `json:"quotation_id"`
	ProductName string              `json:"product_name"`
	Quantity    int                 `json:"quantity"`
	Image       media.ResolvedImage `json:"image"`
}

// Receiver is the contact a shipment is delivered to.
type Receiver struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Email   *string `json:"email,omitempty"`
}

type View struct {
	ID          uuid.UUID             `json:"id"`
	QuotationID uuid.UUID             `json:"quotation_id"`
	Status      enums.ShipmentStatus  `json:"status"`
	Location    *string               `json:"location"`
	Media       []media.ResolvedImage `json:"media"`
	Receiver    *Receiver             `json:"receiver"`
	Quotation   *QuotationSummary     `json:"quotation"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ReceiverView is a saved receiver row.
type ReceiverView struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Email     *string    `json:"email,omitempty"`
	IsDefault bool       `json:"is_default"`
	Shipment  *uuid.UUID `json:"shipment_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newReceiverView(r models.ShippingReceiver) ReceiverView {
	return ReceiverView{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.Phone,
		Address:   r.Address,
		Email:     r.Email,
		IsDefault: r.IsDefault,
		Shipment:  r.ShipmentID,
		CreatedAt: r.CreatedAt,
	}
}

func buildView(s models.Shipment, q *models.Quotation, images media.ImageResolver) View {
	view := View{
		ID:          s.ID,
		QuotationID: s.QuotationID,
		Status:      s.Status,
		Location:    s.Location,
		Media:       images.ResolveAll(s.MediaURLs),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.ReceiverName != nil {
		view.Receiver = &Receiver{
			Name:    *s.ReceiverName,
			Phone:   deref(s.ReceiverPhone),
			Address: deref(s.ReceiverAddress),
			Email:   s.ReceiverEmail,
		}
	}
	if q != nil {
		primary := ""
		if len(q.ImageURLs) > 0 {
			primary = q.ImageURLs[0]
		}
		view.Quotation = &QuotationSummary{
			ID:          q.ID,
			Code:        q.Code,
			ProductName: q.ProductName,
			Quantity:    q.Quantity,
			Image:       images.ResolveFirst(primary, deref(q.ImageURL)),
		}
	}
	return view
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
