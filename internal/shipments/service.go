// Package shipments serves shipment tracking and receiver submission.
package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/freightdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReceiverInput is the receiver form for a waiting shipment.
type ReceiverInput struct {
	Name          string  `json:"name" validate:"required"`
	Phone         string  `json:"phone" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	Email         *string `json:"email" validate:"omitempty,email"`
	SaveAsDefault bool    `json:"save_as_default"`
}

type ListParams struct {
	UserID uuid.UUID
	Status string
	Limit  int
	Cursor string
}

type ListResult struct {
	Items  []View `json:"items"`
	Cursor string `json:"cursor"`
}

type ServiceParams struct {
	DB         txRunner
	Repo       *Repository
	Quotations *quotations.Repository
	Outbox     outbox.Emitter
	Images     media.ImageResolver
	Logger     *logger.Logger
}

type Service struct {
	db         txRunner
	repo       *Repository
	quotations *quotations.Repository
	outbox     outbox.Emitter
	images     media.ImageResolver
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if params.Quotations == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Service{
		db:         params.DB,
		repo:       params.Repo,
		quotations: params.Quotations,
		outbox:     params.Outbox,
		images:     params.Images,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

func (s *Service) load(ctx context.Context, userID, shipmentID uuid.UUID) (*models.Shipment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	row, err := s.repo.FindByID(ctx, shipmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	return row, nil
}

// Get returns the caller's shipment with its quotation summary.
func (s *Service) Get(ctx context.Context, userID, shipmentID uuid.UUID) (*View, error) {
	row, err := s.load(ctx, userID, shipmentID)
	if err != nil {
		return nil, err
	}
	q, err := s.quotations.FindByID(ctx, row.QuotationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment quotation")
	}
	view := buildView(*row, q, s.images)
	return &view, nil
}

// ListForUser pages through the caller's shipments and joins each to its
// quotation.
func (s *Service) ListForUser(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	query := listParams{UserID: params.UserID, Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseShipmentStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.ListForUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	page, next := pagination.Page(rows, params.Limit, func(row models.Shipment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})

	ids := make([]uuid.UUID, 0, len(page))
	for _, row := range page {
		ids = append(ids, row.QuotationID)
	}
	quotes, err := s.quotations.ListByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment quotations")
	}
	byID := make(map[uuid.UUID]*models.Quotation, len(quotes))
	for i := range quotes {
		byID[quotes[i].ID] = &quotes[i]
	}

	items := make([]View, 0, len(page))
	for _, row := range page {
		items = append(items, buildView(row, byID[row.QuotationID], s.images))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

// DefaultReceiver returns the caller's saved default receiver for pre-filling.
func (s *Service) DefaultReceiver(ctx context.Context, userID uuid.UUID) (*ReceiverView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rec, err := s.repo.FindDefaultReceiver(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no default receiver saved")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default receiver")
	}
	view := newReceiverView(*rec)
	return &view, nil
}

// SubmitReceiver records the receiver and moves the shipment from waiting to
// processing in one transaction. Input is validated before anything is written.
func (s *Service) SubmitReceiver(ctx context.Context, userID, shipmentID uuid.UUID, input ReceiverInput) (*View, error) {
	rec, err := validateReceiver(input)
	if err != nil {
		return nil, err
	}
	row, err := s.load(ctx, userID, shipmentID)
	if err != nil {
		return nil, err
	}
	if row.Status != enums.ShipmentStatusWaiting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is not waiting for receiver details").
			WithDetails(map[string]any{"status": row.Status})
	}

	now := s.now().UTC()
	rec.UserID = userID
	rec.ShipmentID = &row.ID
	rec.IsDefault = input.SaveAsDefault
	rec.CreatedAt = now

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if rec.IsDefault {
			if err := repo.ClearDefaultReceivers(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default receiver")
			}
		}
		if err := repo.CreateReceiver(ctx, rec); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert receiver")
		}
		affected, err := repo.ApplyReceiver(ctx, row.ID, *rec, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment changed while submitting receiver")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentReceiverSubmitted,
			AggregateType: enums.AggregateShipment,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.ShipmentReceiverSubmittedEvent{
				ShipmentID:  row.ID,
				QuotationID: row.QuotationID,
				ReceiverID:  rec.ID,
				UserID:      userID,
				SubmittedAt: now,
			},
		})
	})
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithShipmentID(ctx, row.ID.String())
			s.logg.Error(logCtx, "receiver submission failed", err)
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit receiver")
	}

	return s.Get(ctx, userID, row.ID)
}

func validateReceiver(input ReceiverInput) (*models.ShippingReceiver, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"name", input.Name},
		{"phone", input.Phone},
		{"address", input.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, f.name+" is required").
				WithDetails(map[string]any{"field": f.name})
		}
	}
	var email *string
	if input.Email != nil {
		if trimmed := strings.TrimSpace(*input.Email); trimmed != "" {
			email = &trimmed
		}
	}
	return &models.ShippingReceiver{
		Name:    strings.TrimSpace(input.Name),
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
		Email:   email,
	}, nil
}
