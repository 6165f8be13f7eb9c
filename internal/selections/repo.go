package selections

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
)

// Repository persists user_selections rows.
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

// Upsert inserts the selection or overwrites the option of the existing
// (quotation_id, user_id) row in a single statement.
func (r *Repository) Upsert(ctx context.Context, quotationID, userID uuid.UUID, optionID string, now time.Time) error {
	row := models.UserSelection{
		ID:               uuid.New(),
		QuotationID:      quotationID,
		UserID:           userID,
		SelectedOptionID: optionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quotation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_id", "updated_at"}),
	}).Create(&row).Error
}

// Find returns the user's selection for a quotation.
func (r *Repository) Find(ctx context.Context, quotationID, userID uuid.UUID) (*models.UserSelection, error) {
	var row models.UserSelection
	err := r.db.WithContext(ctx).
		Where("quotation_id = ? AND user_id = ?", quotationID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Count reports how many rows exist for the pair.
func (r *Repository) Count(ctx context.Context, quotationID, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserSelection{}).
		Where("quotation_id = ? AND user_id = ?", quotationID, userID).
		Count(&n).Error
	return n, err
}
