// Package checkout turns priced quotations into a payment. The payment row,
// the option selection, the quotation approvals and the payment_created event
// commit in one transaction; a failed attempt is recorded afterwards as a
// failed payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/internal/payments"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/freightdesk-backend/pkg/db/types"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox/payloads"
)

const workflowName = "checkout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type selector interface {
	SelectForPaymentTx(ctx context.Context, tx *gorm.DB, q *models.Quotation, userID uuid.UUID, slot int) error
}

type compensationCounter interface {
	IncCompensationFailure(workflow string)
}

// Item is one quotation being paid for. OptionID may be empty when the
// quotation already has a stored selection.
type Item struct {
	QuotationRef string `json:"quotation_ref" validate:"required"`
	OptionID     string `json:"option_id"`
}

// ConfirmInput is the checkout form.
type ConfirmInput struct {
	Items            []Item `json:"items" validate:"required,min=1,dive"`
	Method           string `json:"method" validate:"required"`
	ConfirmDuplicate bool   `json:"confirm_duplicate"`
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	DB                  txRunner
	Payments            *payments.Repository
	Quotations          *quotations.Repository
	Selections          selector
	Outbox              outbox.Emitter
	Metrics             compensationCounter
	Logger              *logger.Logger
	RequireDuplicateAck bool
}

type Service struct {
	db         txRunner
	payments   *payments.Repository
	quotations *quotations.Repository
	selections selector
	outbox     outbox.Emitter
	metrics    compensationCounter
	logg       *logger.Logger
	requireAck bool
	now        func() time.Time
	newRef     func() string
	approve    func(ctx context.Context, tx *gorm.DB, id uuid.UUID, from enums.QuotationStatus, now time.Time) (int64, error)
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Quotations == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	if params.Selections == nil {
		return nil, fmt.Errorf("selections service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	s := &Service{
		db:         params.DB,
		payments:   params.Payments,
		quotations: params.Quotations,
		selections: params.Selections,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		requireAck: params.RequireDuplicateAck,
		now:        time.Now,
		newRef:     newReference,
	}
	s.approve = func(ctx context.Context, tx *gorm.DB, id uuid.UUID, from enums.QuotationStatus, now time.Time) (int64, error) {
		return s.quotations.WithTx(tx).Approve(ctx, id, from, now)
	}
	return s, nil
}

// newReference returns PAY-<ULID>. ULIDs sort by creation time.
func newReference() string {
	return "PAY-" + ulid.Make().String()
}

// Confirm validates the items, checks for an earlier payment on the same
// quotations and commits the payment.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, input ConfirmInput) (*payments.View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required").
			WithDetails(map[string]any{"field": "method"})
	}

	lines, err := resolveLines(ctx, s.quotations, userID, input.Items)
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicates(ctx, lines, input.ConfirmDuplicate); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ids := quotationIDs(lines)
	payment := &models.Payment{
		ID:              uuid.New(),
		UserID:          userID,
		QuotationIDs:    dbtypes.UUIDArray(ids),
		Amount:          totalOf(lines),
		Method:          method,
		Status:          enums.PaymentStatusPending,
		ReferenceNumber: s.newRef(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"payment_id":       payment.ID.String(),
			"reference_number": payment.ReferenceNumber,
		})
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert payment")
		}
		for _, l := range lines {
			if err := s.selections.SelectForPaymentTx(ctx, tx, l.quotation, userID, l.slot); err != nil {
				return err
			}
			affected, err := s.approve(ctx, tx, l.quotation.ID, l.quotation.Status, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve quotation")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation was approved by another request").
					WithDetails(map[string]any{"quotation_id": l.quotation.Code})
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCreated,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.PaymentCreatedEvent{
				PaymentID:       payment.ID,
				UserID:          userID,
				QuotationIDs:    ids,
				Amount:          payment.Amount,
				Method:          method,
				ReferenceNumber: payment.ReferenceNumber,
			},
		})
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(logCtx, "checkout transaction failed", err)
		}
		s.recordFailure(logCtx, payment, err)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	if s.logg != nil {
		s.logg.Info(logCtx, "payment created")
	}
	view := payments.NewView(*payment)
	return &view, nil
}

// checkDuplicates refuses a second live payment for a quotation unless the
// caller acknowledged it. Failed and rejected payments do not count, so an
// Approved quotation whose payments all failed can be paid again.
func (s *Service) checkDuplicates(ctx context.Context, lines []line, confirmed bool) error {
	for _, l := range lines {
		existing, err := s.payments.FindBlockingForQuotation(ctx, l.quotation.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payments")
		}
		if confirmed || !s.requireAck {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"quotation_id":        l.quotation.ID.String(),
					"existing_payment_id": existing.ID.String(),
				})
				s.logg.Warn(logCtx, "creating additional payment for quotation")
			}
			continue
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "a payment already exists for this quotation").
			WithDetails(map[string]any{
				"quotation_id":     l.quotation.Code,
				"payment_id":       existing.ID,
				"reference_number": existing.ReferenceNumber,
				"created_at":       existing.CreatedAt,
				"status":           existing.Status,
			})
	}
	return nil
}

// recordFailure keeps a failed payment row and a payment_failed event for the
// rolled back attempt. The quotations are left as they were.
func (s *Service) recordFailure(ctx context.Context, payment *models.Payment, cause error) {
	reason := cause.Error()
	if typed := pkgerrors.As(cause); typed != nil {
		reason = string(typed.Code()) + ": " + typed.Message()
	}
	failed := *payment
	failed.Status = enums.PaymentStatusFailed
	failed.FailureReason = &reason
	failed.UpdatedAt = s.now().UTC()

	// The request may already be cancelled; the record is still written.
	bg := context.WithoutCancel(ctx)
	err := s.db.WithTx(bg, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Create(bg, &failed); err != nil {
			return err
		}
		return s.outbox.Emit(bg, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   failed.ID,
			Actor:         &outbox.ActorRef{UserID: failed.UserID},
			Data: payloads.PaymentFailedEvent{
				PaymentID:       failed.ID,
				UserID:          failed.UserID,
				QuotationIDs:    []uuid.UUID(failed.QuotationIDs),
				ReferenceNumber: failed.ReferenceNumber,
				Reason:          reason,
			},
		})
	})
	if err == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.IncCompensationFailure(workflowName)
	}
	if s.logg != nil {
		s.logg.Error(ctx, "failed to record failed payment attempt", err)
	}
}
