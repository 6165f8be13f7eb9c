package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightdesk-backend/internal/pricing"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/internal/selections"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/money"
)

// line is a checkout item after its quotation and price were resolved.
type line struct {
	quotation *models.Quotation
	slot      int
	amount    decimal.Decimal
}

// resolveLines loads every referenced quotation, settles the option for each
// and parses its price. Nothing is written.
func resolveLines(ctx context.Context, repo *quotations.Repository, userID uuid.UUID, items []Item) ([]line, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one quotation is required").
			WithDetails(map[string]any{"field": "items"})
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	lines := make([]line, 0, len(items))
	for _, item := range items {
		q, err := quotations.ResolveRef(ctx, repo, userID, item.QuotationRef)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation listed more than once").
				WithDetails(map[string]any{"quotation_id": q.Code})
		}
		seen[q.ID] = struct{}{}

		// Approved quotations stay payable; duplicate detection decides
		// whether a live payment already covers them.
		switch q.Status {
		case enums.QuotationStatusPending, enums.QuotationStatusApproved:
		default:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quotation is not awaiting payment").
				WithDetails(map[string]any{"quotation_id": q.Code, "status": q.Status})
		}

		slot, err := chooseSlot(q, item.OptionID)
		if err != nil {
			return nil, err
		}
		opt, ok := pricing.Find(pricing.Resolve(*q, ""), slot)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected option is not available").
				WithDetails(map[string]any{"quotation_id": q.Code, "option_id": slot})
		}
		amount, err := money.ParsePrice(opt.Price)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected option has no price").
				WithDetails(map[string]any{"quotation_id": q.Code, "option_id": slot})
		}
		lines = append(lines, line{quotation: q, slot: slot, amount: amount})
	}
	return lines, nil
}

// chooseSlot prefers the explicit option and falls back to the stored selection.
func chooseSlot(q *models.Quotation, optionID string) (int, error) {
	if strings.TrimSpace(optionID) != "" {
		return selections.ParseOptionID(optionID)
	}
	if q.SelectedOption != nil {
		return *q.SelectedOption, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "choose a price option before checkout").
		WithDetails(map[string]any{"quotation_id": q.Code, "field": "option_id"})
}

func totalOf(lines []line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.amount)
	}
	return total.Round(2)
}

func quotationIDs(lines []line) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.quotation.ID)
	}
	return ids
}
