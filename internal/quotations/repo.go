package quotations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/angelmondragon/freightdesk-backend/pkg/pagination"
)

// Repository exposes persistence helpers for quotations.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a quotations repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, q *models.Quotation) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var q models.Quotation
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Quotation, error) {
	var q models.Quotation
	if err := r.db.WithContext(ctx).First(&q, "quotation_id = ?", code).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByIDs returns the quotations with the given ids, in no particular order.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Quotation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Quotation
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type listParams struct {
	UserID uuid.UUID
	Status enums.QuotationStatus
	Limit  int
	Cursor *pagination.Cursor
}

// ListForUser returns newest first, fetching one extra row to detect a next page.
func (r *Repository) ListForUser(ctx context.Context, params listParams) ([]models.Quotation, error) {
	query := r.db.WithContext(ctx).Model(&models.Quotation{}).Where("user_id = ?", params.UserID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where(pagination.AfterClause, params.Cursor.AfterArgs()...)
	}
	var rows []models.Quotation
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateImages replaces the image list and the legacy single image column.
func (r *Repository) UpdateImages(ctx context.Context, id uuid.UUID, urls []string, primary string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"image_urls": pq.StringArray(urls),
			"image_url":  primary,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// SetSelectedOption records the chosen slot while the quotation is still in
// the from status. Zero rows affected means the guard rejected the write.
func (r *Repository) SetSelectedOption(ctx context.Context, id uuid.UUID, from enums.QuotationStatus, slot int, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"selected_option": slot,
			"updated_at":      now,
		})
	return res.RowsAffected, res.Error
}

// Approve marks the quotation Approved if it is still in the from status the
// caller read. Re-approving an Approved quotation is allowed so a new payment
// can follow a failed or rejected one. Zero rows affected means a concurrent
// transition got there first.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, from enums.QuotationStatus, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     enums.QuotationStatusApproved,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
