package media

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
)

// Repository exposes media metadata persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a media record.
func (r *Repository) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if media.ID == uuid.Nil {
		media.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// Delete removes a media record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{}).Error
}

// MarkAttachedTx flips a pending row to attached and records its owner.
// Returns gorm.ErrRecordNotFound when the row is missing or already attached.
func (r *Repository) MarkAttachedTx(tx *gorm.DB, id, ownerID uuid.UUID, at time.Time) error {
	res := tx.Model(&models.Media{}).
		Where("id = ? AND status = ?", id, enums.MediaStatusPending).
		Updates(map[string]any{
			"status":      enums.MediaStatusAttached,
			"owner_id":    ownerID,
			"attached_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingBefore returns pending rows created before cutoff, oldest first.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Media, error) {
	var rows []models.Media
	q := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.MediaStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkAttached is MarkAttachedTx outside a caller transaction.
func (r *Repository) MarkAttached(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error {
	return r.MarkAttachedTx(r.db.WithContext(ctx), id, ownerID, at)
}
