package quotations

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/internal/pricing"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// View is a quotation row plus the derived pricing and image fields the
// dashboard renders.
type View struct {
	ID                 uuid.UUID             `json:"id"`
	Code               string                `json:"quotation_id"`
	UserID             uuid.UUID             `json:"user_id"`
	ProductName        string                `json:"product_name"`
	AlibabaURL         string                `json:"alibaba_url"`
	Quantity           int                   `json:"quantity"`
	ImageURLs          []string              `json:"image_urls"`
	ImageURL           string                `json:"image_url,omitempty"`
	DestinationCountry string                `json:"destination_country"`
	DestinationCity    string                `json:"destination_city"`
	ShippingMethod     string                `json:"shipping_method"`
	ServiceType        string                `json:"service_type"`
	Status             enums.QuotationStatus `json:"status"`
	SelectedOption     *int                  `json:"selected_option"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`

	Options           []pricing.Option      `json:"options"`
	AveragePrice      string                `json:"average_price"`
	SelectedPrice     string                `json:"selected_price"`
	DisplayPrice      string                `json:"display_price"`
	CheckoutAvailable bool                  `json:"checkout_available"`
	Image             media.ResolvedImage   `json:"image"`
	Images            []media.ResolvedImage `json:"images"`
}

// Presenter builds views with the configured image settings.
type Presenter struct {
	Images media.ImageResolver
}

func (p Presenter) View(q models.Quotation) View {
	opts := pricing.Resolve(q, p.Images.Placeholder)
	for i := range opts {
		opts[i].ModelImage = p.Images.Resolve(opts[i].ModelImage).URL
	}
	legacy := ""
	if q.ImageURL != nil {
		legacy = *q.ImageURL
	}
	urls := []string(q.ImageURLs)
	if urls == nil {
		urls = []string{}
	}
	candidates := append(append([]string{}, urls...), legacy)
	return View{
		ID:                 q.ID,
		Code:               q.Code,
		UserID:             q.UserID,
		ProductName:        q.ProductName,
		AlibabaURL:         q.ProductURL,
		Quantity:           q.Quantity,
		ImageURLs:          urls,
		ImageURL:           legacy,
		DestinationCountry: q.DestinationCountry,
		DestinationCity:    q.DestinationCity,
		ShippingMethod:     q.ShippingMethod,
		ServiceType:        q.ServiceType,
		Status:             q.Status,
		SelectedOption:     q.SelectedOption,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
		Options:            opts,
		AveragePrice:       pricing.AveragePrice(opts),
		SelectedPrice:      pricing.SelectedPrice(q, opts),
		DisplayPrice:       pricing.DisplayPrice(q, opts),
		CheckoutAvailable:  pricing.CheckoutAvailable(opts),
		Image:              p.Images.ResolveFirst(candidates...),
		Images:             p.Images.ResolveAll(urls),
	}
}

func (p Presenter) Views(rows []models.Quotation) []View {
	out := make([]View, 0, len(rows))
	for _, q := range rows {
		out = append(out, p.View(q))
	}
	return out
}
