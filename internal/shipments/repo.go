package shipments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/angelmondragon/freightdesk-backend/pkg/pagination"
)

// Repository persists shipments and their receivers.
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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var s models.Shipment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

type listParams struct {
	UserID uuid.UUID
	Status enums.ShipmentStatus
	Limit  int
	Cursor *pagination.Cursor
}

// ListForUser returns newest first, fetching one extra row to detect a next page.
func (r *Repository) ListForUser(ctx context.Context, params listParams) ([]models.Shipment, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{}).Where("user_id = ?", params.UserID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where(pagination.AfterClause, params.Cursor.AfterArgs()...)
	}
	var rows []models.Shipment
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ClearDefaultReceivers unsets the user's current default receiver.
func (r *Repository) ClearDefaultReceivers(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.ShippingReceiver{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *Repository) CreateReceiver(ctx context.Context, receiver *models.ShippingReceiver) error {
	if receiver.ID == uuid.Nil {
		receiver.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(receiver).Error
}

// FindDefaultReceiver returns the user's saved default receiver.
func (r *Repository) FindDefaultReceiver(ctx context.Context, userID uuid.UUID) (*models.ShippingReceiver, error) {
	var rec models.ShippingReceiver
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ApplyReceiver copies the receiver onto a waiting shipment and moves it to
// processing. Zero rows affected means the shipment already left waiting.
func (r *Repository) ApplyReceiver(ctx context.Context, id uuid.UUID, rec models.ShippingReceiver, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("id = ? AND status = ?", id, enums.ShipmentStatusWaiting).
		Updates(map[string]any{
			"status":           enums.ShipmentStatusProcessing,
			"receiver_name":    rec.Name,
			"receiver_phone":   rec.Phone,
			"receiver_address": rec.Address,
			"receiver_email":   rec.Email,
			"updated_at":       now,
		})
	return res.RowsAffected, res.Error
}
