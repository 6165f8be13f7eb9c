package quotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/pkg/db"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/freightdesk-backend/pkg/pagination"
)

const maxCodeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput is the quotation request form. Quantity accepts a JSON number
// or a numeric string.
type CreateInput struct {
	Code               string      `json:"quotation_id"`
	ProductName        string      `json:"product_name"`
	AlibabaURL         string      `json:"alibaba_url"`
	Quantity           json.Number `json:"quantity"`
	DestinationCountry string      `json:"destination_country"`
	DestinationCity    string      `json:"destination_city"`
	ShippingMethod     string      `json:"shipping_method"`
	ServiceType        string      `json:"service_type"`
	ImageURLs          []string    `json:"image_urls"`
	Status             string      `json:"status"`
}

// ListParams configures pagination for a user's quotations.
type ListParams struct {
	UserID uuid.UUID
	Status string
	Limit  int
	Cursor string
}

// ListResult wraps returned quotations and the cursor for the next page.
type ListResult struct {
	Items  []View `json:"items"`
	Cursor string `json:"cursor"`
}

// ServiceParams wires the quotation service.
type ServiceParams struct {
	DB        txRunner
	Repo      *Repository
	Outbox    outbox.Emitter
	Presenter Presenter
	Logger    *logger.Logger
}

// Service owns quotation creation and reads.
type Service struct {
	db        txRunner
	repo      *Repository
	outbox    outbox.Emitter
	presenter Presenter
	logg      *logger.Logger
	now       func() time.Time
	newCode   func(time.Time) string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Service{
		db:        params.DB,
		repo:      params.Repo,
		outbox:    params.Outbox,
		presenter: params.Presenter,
		logg:      params.Logger,
		now:       time.Now,
		newCode:   generateCode,
	}, nil
}

// Presenter exposes the view builder so other domains render quotations the same way.
func (s *Service) Presenter() Presenter {
	if s == nil {
		return Presenter{}
	}
	return s.presenter
}

// Create validates the form and inserts a Pending quotation. A generated
// code that collides is regenerated.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	quantity, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	status := enums.QuotationStatusPending
	if raw := strings.TrimSpace(input.Status); raw != "" && raw != string(enums.QuotationStatusPending) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new quotations must be Pending").
			WithDetails(map[string]any{"field": "status"})
	}

	urls := cleanURLs(input.ImageURLs)
	var primary *string
	if len(urls) > 0 {
		primary = &urls[0]
	}

	supplied := strings.TrimSpace(input.Code)
	attempts := maxCodeAttempts
	if supplied != "" {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		now := s.now().UTC()
		code := supplied
		if code == "" {
			code = s.newCode(now)
		}
		row := &models.Quotation{
			ID:                 uuid.New(),
			Code:               code,
			UserID:             userID,
			ProductName:        strings.TrimSpace(input.ProductName),
			ProductURL:         strings.TrimSpace(input.AlibabaURL),
			Quantity:           quantity,
			ImageURLs:          pq.StringArray(urls),
			ImageURL:           primary,
			DestinationCountry: strings.TrimSpace(input.DestinationCountry),
			DestinationCity:    strings.TrimSpace(input.DestinationCity),
			ShippingMethod:     strings.TrimSpace(input.ShippingMethod),
			ServiceType:        strings.TrimSpace(input.ServiceType),
			Status:             status,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQuotationCreated,
				AggregateType: enums.AggregateQuotation,
				AggregateID:   row.ID,
				Actor:         &outbox.ActorRef{UserID: userID},
				Data: payloads.QuotationCreatedEvent{
					QuotationID: row.ID,
					Code:        row.Code,
					UserID:      userID,
					ProductName: row.ProductName,
					Quantity:    row.Quantity,
				},
			})
		})
		if err == nil {
			view := s.presenter.View(*row)
			return &view, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quotation")
		}
		if supplied != "" {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quotation code already exists").
				WithDetails(map[string]any{"quotation_id": supplied})
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"quotation_code": code, "attempt": attempt})
			s.logg.Warn(logCtx, "quotation code collision; regenerating")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a quotation code")
}

// UpdateImages replaces the quotation's images. The first URL also fills the
// legacy single-image column.
func (s *Service) UpdateImages(ctx context.Context, userID uuid.UUID, ref string, urls []string) (*View, error) {
	q, err := s.Resolve(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	clean := cleanURLs(urls)
	primary := ""
	if len(clean) > 0 {
		primary = clean[0]
	}
	if _, err := s.repo.UpdateImages(ctx, q.ID, clean, primary, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quotation images")
	}
	updated, err := s.repo.FindByID(ctx, q.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quotation")
	}
	view := s.presenter.View(*updated)
	return &view, nil
}

// Resolve loads the caller's quotation by UUID or human-facing code.
// Quotations owned by someone else are reported as missing.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID, ref string) (*models.Quotation, error) {
	return ResolveRef(ctx, s.repo, userID, ref)
}

// Get returns the caller's quotation view.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, ref string) (*View, error) {
	q, err := s.Resolve(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	view := s.presenter.View(*q)
	return &view, nil
}

// ListForUser pages through the caller's quotations, newest first.
func (s *Service) ListForUser(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	query := listParams{UserID: params.UserID, Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseQuotationStatus(params.Status)
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotations")
	}
	page, next := pagination.Page(rows, params.Limit, func(q models.Quotation) pagination.Cursor {
		return pagination.Cursor{CreatedAt: q.CreatedAt, ID: q.ID}
	})
	return &ListResult{Items: s.presenter.Views(page), Cursor: next}, nil
}

type finder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	FindByCode(ctx context.Context, code string) (*models.Quotation, error)
}

// ResolveRef is Resolve over any finder, so checkout can resolve inside its
// own transaction.
func ResolveRef(ctx context.Context, repo finder, userID uuid.UUID, ref string) (*models.Quotation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation reference is required")
	}
	var (
		q   *models.Quotation
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		q, err = repo.FindByID(ctx, id)
	} else {
		q, err = repo.FindByCode(ctx, ref)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found").WithDetails(map[string]any{"quotation": ref})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
	}
	if userID != uuid.Nil && q.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found").WithDetails(map[string]any{"quotation": ref})
	}
	return q, nil
}

var requiredCreateFields = []struct {
	name  string
	value func(CreateInput) string
}{
	{"product_name", func(in CreateInput) string { return in.ProductName }},
	{"alibaba_url", func(in CreateInput) string { return in.AlibabaURL }},
	{"quantity", func(in CreateInput) string { return in.Quantity.String() }},
	{"destination_country", func(in CreateInput) string { return in.DestinationCountry }},
	{"destination_city", func(in CreateInput) string { return in.DestinationCity }},
	{"shipping_method", func(in CreateInput) string { return in.ShippingMethod }},
	{"service_type", func(in CreateInput) string { return in.ServiceType }},
}

// validateCreate names the first missing field in form order.
func validateCreate(input CreateInput) (int, error) {
	for _, field := range requiredCreateFields {
		if strings.TrimSpace(field.value(input)) == "" {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, field.name+" is required").
				WithDetails(map[string]any{"field": field.name})
		}
	}
	qty, err := input.Quantity.Int64()
	if err != nil || qty <= 0 || qty > 1_000_000_000 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer").
			WithDetails(map[string]any{"field": "quantity"})
	}
	return int(qty), nil
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
