package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/angelmondragon/freightdesk-backend/pkg/pagination"
)

// Repository persists payments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// containsQuotation scopes a query to payments whose quotation_ids include id.
// sqlite stores the array as its text literal.
func (r *Repository) containsQuotation(query *gorm.DB, id uuid.UUID) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Where("? = ANY(quotation_ids)", id)
	}
	return query.Where("quotation_ids LIKE ?", "%"+id.String()+"%")
}

// FindBlockingForQuotation returns the newest payment for the quotation that
// has not failed or been rejected. Legacy upper-case statuses are folded.
func (r *Repository) FindBlockingForQuotation(ctx context.Context, quotationID uuid.UUID) (*models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("LOWER(status) NOT IN ?", []string{
			string(enums.PaymentStatusFailed),
			string(enums.PaymentStatusRejected),
		})
	query = r.containsQuotation(query, quotationID)
	var p models.Payment
	if err := query.Order("created_at DESC").First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForQuotation returns every payment attempt covering the quotation.
func (r *Repository) ListForQuotation(ctx context.Context, userID, quotationID uuid.UUID) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)
	query = r.containsQuotation(query, quotationID)
	var rows []models.Payment
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type listParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

// ListForUser returns newest first, fetching one extra row to detect a next page.
func (r *Repository) ListForUser(ctx context.Context, params listParams) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where(pagination.AfterClause, params.Cursor.AfterArgs()...)
	}
	var rows []models.Payment
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AttachProof stores the proof URL and moves the payment to processing while
// it still accepts a proof. Zero rows affected means the guard rejected it.
func (r *Repository) AttachProof(ctx context.Context, id uuid.UUID, proofURL string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND LOWER(status) IN ?", id, []string{
			string(enums.PaymentStatusPending),
			string(enums.PaymentStatusProcessing),
		}).
		Updates(map[string]any{
			"proof_url":  proofURL,
			"status":     enums.PaymentStatusProcessing,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
