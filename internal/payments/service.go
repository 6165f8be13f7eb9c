// Package payments serves payment reads and proof-of-payment uploads.
package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
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

type uploader interface {
	Upload(ctx context.Context, in media.UploadInput) (*models.Media, error)
}

type mediaAttacher interface {
	MarkAttachedTx(tx *gorm.DB, id, ownerID uuid.UUID, at time.Time) error
}

type orphanCounter interface {
	IncOrphanedUpload()
}

// ProofFile is one uploaded proof-of-payment file.
type ProofFile struct {
	FileName     string
	DeclaredType string
	Size         int64
	Body         io.Reader
}

// ListParams configures pagination for a user's payments.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// ListResult wraps returned payments and the cursor for the next page.
type ListResult struct {
	Items  []View `json:"items"`
	Cursor string `json:"cursor"`
}

// ServiceParams wires the payments service.
type ServiceParams struct {
	DB         txRunner
	Repo       *Repository
	Quotations *quotations.Repository
	Media      uploader
	MediaRepo  mediaAttacher
	Outbox     outbox.Emitter
	Metrics    orphanCounter
	Logger     *logger.Logger
}

type Service struct {
	db         txRunner
	repo       *Repository
	quotations *quotations.Repository
	media      uploader
	mediaRepo  mediaAttacher
	outbox     outbox.Emitter
	metrics    orphanCounter
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Quotations == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	if params.Media == nil || params.MediaRepo == nil {
		return nil, fmt.Errorf("media service and repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Service{
		db:         params.DB,
		repo:       params.Repo,
		quotations: params.Quotations,
		media:      params.Media,
		mediaRepo:  params.MediaRepo,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

// Get returns the caller's payment.
func (s *Service) Get(ctx context.Context, userID, paymentID uuid.UUID) (*View, error) {
	p, err := s.load(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	view := NewView(*p)
	return &view, nil
}

func (s *Service) load(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	p, err := s.repo.FindByID(ctx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if p.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return p, nil
}

// ListForUser pages through the caller's payments, newest first.
func (s *Service) ListForUser(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	query := listParams{UserID: params.UserID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, err := s.repo.ListForUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	page, next := pagination.Page(rows, params.Limit, func(p models.Payment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &ListResult{Items: NewViews(page), Cursor: next}, nil
}

// ListForQuotation returns every payment attempt for one of the caller's
// quotations, referenced by code or UUID.
func (s *Service) ListForQuotation(ctx context.Context, userID uuid.UUID, ref string) ([]View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	q, err := quotations.ResolveRef(ctx, s.quotations, userID, ref)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForQuotation(ctx, userID, q.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotation payments")
	}
	return NewViews(rows), nil
}

// UploadProof stores a proof of payment and moves the payment to processing.
// The object is stored before the transaction; if the transaction then fails
// the stored object is left for the orphan cleanup job and the caller gets a
// PARTIAL_COMMIT error.
func (s *Service) UploadProof(ctx context.Context, userID, paymentID uuid.UUID, file ProofFile) (*View, error) {
	p, err := s.load(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.AcceptsProof() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment no longer accepts a proof").
			WithDetails(map[string]any{"status": p.Status})
	}

	row, err := s.media.Upload(ctx, media.UploadInput{
		UserID:       userID,
		Kind:         enums.MediaKindPaymentProof,
		KeyPrefix:    "proofs/" + p.ID.String(),
		FileName:     file.FileName,
		DeclaredType: file.DeclaredType,
		Size:         file.Size,
		Body:         file.Body,
	})
	if err != nil {
		return nil, err
	}
	proofURL := ""
	if row.URL != nil {
		proofURL = *row.URL
	}

	now := s.now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).AttachProof(ctx, p.ID, proofURL, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errProofRejected
		}
		if err := s.mediaRepo.MarkAttachedTx(tx.WithContext(ctx), row.ID, p.ID, now); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentProofUploaded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   p.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.PaymentProofUploadedEvent{
				PaymentID: p.ID,
				UserID:    userID,
				MediaID:   row.ID,
				ProofURL:  proofURL,
				Status:    enums.PaymentStatusProcessing,
			},
		})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncOrphanedUpload()
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"payment_id": p.ID.String(),
				"media_id":   row.ID.String(),
				"object_key": row.ObjectKey,
			})
			s.logg.Error(logCtx, "proof stored but payment update failed", err)
		}
		details := map[string]any{
			"committed": "proof_upload",
			"media_id":  row.ID,
			"proof_url": proofURL,
		}
		if errors.Is(err, errProofRejected) {
			details["reason"] = "payment status changed during upload"
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialCommit, err, "proof uploaded but payment was not updated").
			WithDetails(details)
	}

	p.ProofURL = &proofURL
	p.Status = enums.PaymentStatusProcessing
	p.UpdatedAt = now
	view := NewView(*p)
	return &view, nil
}

var errProofRejected = errors.New("payment no longer accepts a proof")
