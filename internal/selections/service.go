// Package selections records which supplier option a user picked. The
// quotation's selected_option column and the user_selections row are always
// written together.
package selections

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/internal/pricing"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service validates and persists option selections.
type Service struct {
	db         txRunner
	repo       *Repository
	quotations *quotations.Repository
	now        func() time.Time
}

func NewService(db txRunner, repo *Repository, quotationsRepo *quotations.Repository) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("selections repository required")
	}
	if quotationsRepo == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	return &Service{db: db, repo: repo, quotations: quotationsRepo, now: time.Now}, nil
}

// ParseOptionID turns "1".."3" into a slot number.
func ParseOptionID(raw string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || slot < 1 || slot > pricing.SlotCount {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "option_id must be 1, 2 or 3").
			WithDetails(map[string]any{"field": "option_id"})
	}
	return slot, nil
}

// Select records the caller's choice in its own transaction.
func (s *Service) Select(ctx context.Context, userID uuid.UUID, ref, optionID string) (*models.Quotation, error) {
	slot, err := ParseOptionID(optionID)
	if err != nil {
		return nil, err
	}
	var out *models.Quotation
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		q, err := quotations.ResolveRef(ctx, s.quotations.WithTx(tx), userID, ref)
		if err != nil {
			return err
		}
		if err := s.SelectTx(ctx, tx, q, userID, slot); err != nil {
			return err
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SelectTx validates the slot against q and writes both records inside tx.
// Only Pending quotations accept a new selection here. q is updated in place.
func (s *Service) SelectTx(ctx context.Context, tx *gorm.DB, q *models.Quotation, userID uuid.UUID, slot int) error {
	if q.Status != enums.QuotationStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation is no longer open for selection").
			WithDetails(map[string]any{"status": q.Status})
	}
	return s.write(ctx, tx, q, userID, slot)
}

// SelectForPaymentTx is SelectTx for checkout. An Approved quotation is
// accepted as well, since its earlier payment may have failed or been
// rejected and the user is paying again.
func (s *Service) SelectForPaymentTx(ctx context.Context, tx *gorm.DB, q *models.Quotation, userID uuid.UUID, slot int) error {
	switch q.Status {
	case enums.QuotationStatusPending, enums.QuotationStatusApproved:
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation is no longer open for selection").
			WithDetails(map[string]any{"status": q.Status})
	}
	return s.write(ctx, tx, q, userID, slot)
}

func (s *Service) write(ctx context.Context, tx *gorm.DB, q *models.Quotation, userID uuid.UUID, slot int) error {
	opts := pricing.Resolve(*q, "")
	if _, ok := pricing.Find(opts, slot); !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "selected option is not available").
			WithDetails(map[string]any{"field": "option_id", "option_id": slot})
	}

	now := s.now().UTC()
	affected, err := s.quotations.WithTx(tx).SetSelectedOption(ctx, q.ID, q.Status, slot, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record selected option")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation changed while selecting")
	}
	if err := s.repo.WithTx(tx).Upsert(ctx, q.ID, userID, strconv.Itoa(slot), now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record user selection")
	}
	q.SelectedOption = &slot
	q.UpdatedAt = now
	return nil
}
