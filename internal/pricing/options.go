// Package pricing rebuilds the supplier price options a quotation stores as
// flattened option columns and derives the prices shown at checkout.
package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/money"
)

// SlotCount is the number of option column groups on a quotation.
const SlotCount = 3

// Option is one supplier offer on a quotation. ID is the 1-based slot.
type Option struct {
	ID           string `json:"id"`
	Price        string `json:"price"`
	Supplier     string `json:"supplier"`
	DeliveryTime string `json:"deliveryTime"`
	Description  string `json:"description"`
	ModelImage   string `json:"modelImage"`
}

// Slot returns the option's slot number.
func (o Option) Slot() int {
	n, _ := strconv.Atoi(o.ID)
	return n
}

// Resolve returns the present options in slot order. A slot is present when
// its title column is non-blank.
func Resolve(q models.Quotation, placeholder string) []Option {
	slots := q.OptionSlots()
	options := make([]Option, 0, SlotCount)
	for i, slot := range slots {
		title := deref(slot.Title)
		if strings.TrimSpace(title) == "" {
			continue
		}
		price := money.NotAvailable
		if slot.TotalPrice.Valid {
			price = money.FormatUSD(slot.TotalPrice.Decimal)
		}
		image := deref(slot.Image)
		if strings.TrimSpace(image) == "" {
			image = placeholder
		}
		options = append(options, Option{
			ID:           strconv.Itoa(i + 1),
			Price:        price,
			Supplier:     title,
			DeliveryTime: deref(slot.DeliveryTime),
			Description:  deref(slot.Description),
			ModelImage:   image,
		})
	}
	return options
}

// Find returns the option stored in slot n.
func Find(options []Option, n int) (Option, bool) {
	want := strconv.Itoa(n)
	for _, opt := range options {
		if opt.ID == want {
			return opt, true
		}
	}
	return Option{}, false
}

// AveragePrice is the mean of the options whose price parses, rendered with
// two decimals. Options without a usable price are skipped.
func AveragePrice(options []Option) string {
	sum := decimal.Zero
	count := 0
	for _, opt := range options {
		amount, err := money.ParsePrice(opt.Price)
		if err != nil {
			continue
		}
		sum = sum.Add(amount)
		count++
	}
	if count == 0 {
		return money.NotAvailable
	}
	return money.FormatFixed(sum.Div(decimal.NewFromInt(int64(count))))
}

// SelectedPrice returns the price of the quotation's selected slot, or N/A
// when nothing usable is selected.
func SelectedPrice(q models.Quotation, options []Option) string {
	if q.SelectedOption == nil {
		return money.NotAvailable
	}
	opt, ok := Find(options, *q.SelectedOption)
	if !ok {
		return money.NotAvailable
	}
	return opt.Price
}

// DisplayPrice prefers the selected price and falls back to the average.
func DisplayPrice(q models.Quotation, options []Option) string {
	if q.SelectedOption != nil {
		if price := SelectedPrice(q, options); price != money.NotAvailable {
			return price
		}
	}
	return AveragePrice(options)
}

// CheckoutAvailable reports whether the quotation has anything to pay for.
func CheckoutAvailable(options []Option) bool {
	return len(options) > 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
