package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
)

// Repository defines persistence operations for cart line items. Open lines
// (order_id IS NULL, fulfilled false) are the editable cart; attached lines
// belong to a pending order until confirmation flips them fulfilled.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOpenLines(ctx context.Context, userID uuid.UUID) ([]models.LineItem, error)
	FindOpenLineByVariation(ctx context.Context, userID, variationID uuid.UUID) (*models.LineItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LineItem, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LineItem, error)
	Create(ctx context.Context, item *models.LineItem) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
	AttachToOrder(ctx context.Context, userID, orderID uuid.UUID) error
	DetachFromOrder(ctx context.Context, orderID uuid.UUID) error
	MarkFulfilled(ctx context.Context, orderID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOpenLines(ctx context.Context, userID uuid.UUID) ([]models.LineItem, error) {
	var items []models.LineItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND order_id IS NULL AND fulfilled = ?", userID, false).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindOpenLineByVariation(ctx context.Context, userID, variationID uuid.UUID) (*models.LineItem, error) {
	var item models.LineItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND variation_id = ? AND order_id IS NULL AND fulfilled = ?", userID, variationID, false).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LineItem, error) {
	var item models.LineItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LineItem, error) {
	var items []models.LineItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) Create(ctx context.Context, item *models.LineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.LineItem{}).Error
}

func (r *repository) AttachToOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("user_id = ? AND order_id IS NULL AND fulfilled = ?", userID, false).
		Update("order_id", orderID).Error
}

func (r *repository) DetachFromOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("order_id = ? AND fulfilled = ?", orderID, false).
		Update("order_id", nil).Error
}

func (r *repository) MarkFulfilled(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("order_id = ?", orderID).
		Update("fulfilled", true).Error
}
