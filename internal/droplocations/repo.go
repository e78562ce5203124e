package droplocations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
)

// Repository persists the per-user address book.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return Repository{db: db}
}

func (r Repository) Create(ctx context.Context, location *models.DropLocation) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r Repository) Save(ctx context.Context, location *models.DropLocation) error {
	return r.db.WithContext(ctx).Save(location).Error
}

func (r Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.DropLocation{}, "id = ?", id).Error
}

// FindForUser scopes the lookup to the owner so a foreign id reads as
// not found.
func (r Repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.DropLocation, error) {
	var location models.DropLocation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DropLocation, error) {
	var locations []models.DropLocation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}
