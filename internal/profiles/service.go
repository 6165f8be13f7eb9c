// Package profiles reads the dashboard profile of the signed-in user.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// View is the profile payload.
type View struct {
	ID        uuid.UUID         `json:"id"`
	Email     string            `json:"email"`
	FullName  *string           `json:"full_name"`
	Phone     *string           `json:"phone"`
	Company   *string           `json:"company"`
	Role      enums.ProfileRole `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
}

type profileFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type Service struct {
	repo profileFinder
}

func NewService(repo profileFinder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	return &Service{repo: repo}, nil
}

// Get returns the caller's profile. A token for a user without a profile row
// is treated as unauthenticated.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	p, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile not found for session")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return &View{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Phone:     p.Phone,
		Company:   p.Company,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}, nil
}
