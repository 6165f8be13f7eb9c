package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// Quotation is a sourcing and shipping request. Up to three supplier price
// options are stored as parallel flattened columns filled in by an admin.
type Quotation struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string                `gorm:"column:quotation_id;not null;uniqueIndex"`
	UserID             uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	ProductName        string                `gorm:"column:product_name;not null"`
	ProductURL         string                `gorm:"column:product_url;not null"`
	Quantity           int                   `gorm:"column:quantity;not null"`
	ImageURLs          pq.StringArray        `gorm:"column:image_urls;type:text[];not null;default:'{}'"`
	ImageURL           *string               `gorm:"column:image_url"`
	DestinationCountry string                `gorm:"column:destination_country;not null"`
	DestinationCity    string                `gorm:"column:destination_city;not null"`
	ShippingMethod     string                `gorm:"column:shipping_method;not null"`
	ServiceType        string                `gorm:"column:service_type;not null"`
	Status             enums.QuotationStatus `gorm:"column:status;type:quotation_status;not null;default:'Pending'"`

	TitleOption1        *string             `gorm:"column:title_option1"`
	TotalPriceOption1   decimal.NullDecimal `gorm:"column:total_price_option1;type:numeric(14,2)"`
	DeliveryTimeOption1 *string             `gorm:"column:delivery_time_option1"`
	DescriptionOption1  *string             `gorm:"column:description_option1"`
	ImageOption1        *string             `gorm:"column:image_option1"`

	TitleOption2        *string             `gorm:"column:title_option2"`
	TotalPriceOption2   decimal.NullDecimal `gorm:"column:total_price_option2;type:numeric(14,2)"`
	DeliveryTimeOption2 *string             `gorm:"column:delivery_time_option2"`
	DescriptionOption2  *string             `gorm:"column:description_option2"`
	ImageOption2        *string             `gorm:"column:image_option2"`

	TitleOption3        *string             `gorm:"column:title_option3"`
	TotalPriceOption3   decimal.NullDecimal `gorm:"column:total_price_option3;type:numeric(14,2)"`
	DeliveryTimeOption3 *string             `gorm:"column:delivery_time_option3"`
	DescriptionOption3  *string             `gorm:"column:description_option3"`
	ImageOption3        *string             `gorm:"column:image_option3"`

	SelectedOption *int      `gorm:"column:selected_option"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OptionColumns is one slot of the flattened price option columns.
type OptionColumns struct {
	Title        *string
	TotalPrice   decimal.NullDecimal
	DeliveryTime *string
	Description  *string
	Image        *string
}

// OptionSlots returns the three option slots in column order.
func (q Quotation) OptionSlots() [3]OptionColumns {
	return [3]OptionColumns{
		{q.TitleOption1, q.TotalPriceOption1, q.DeliveryTimeOption1, q.DescriptionOption1, q.ImageOption1},
		{q.TitleOption2, q.TotalPriceOption2, q.DeliveryTimeOption2, q.DescriptionOption2, q.ImageOption2},
		{q.TitleOption3, q.TotalPriceOption3, q.DeliveryTimeOption3, q.DescriptionOption3, q.ImageOption3},
	}
}
