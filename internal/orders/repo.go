package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/types"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Save(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	FindByCodeForEmail(ctx context.Context, code, email string) (*models.Order, error)
	FindStalePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	ListByStatuses(ctx context.Context, userID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
	ConfirmPending(ctx context.Context, id uuid.UUID, method enums.PaymentMethod, isPaid bool, confirmedAt time.Time, window types.DeliveryWindow) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND confirmed = ?", userID, enums.OrderStatusPending, false).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCodeForEmail(ctx context.Context, code, email string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.code = ? AND users.email = ?", code, email).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindStalePendingBefore lists unconfirmed Pending orders created before
// cutoff. These are abandoned checkouts whose lines should return to the cart.
func (r *repository) FindStalePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND confirmed = ? AND created_at < ?", enums.OrderStatusPending, false, cutoff).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) ListByStatuses(ctx context.Context, userID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("price", price).Error
}

// UpdateStatusIf flips the status only when the current status is one of
// from. The WHERE clause closes the race between two concurrent transitions.
func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ConfirmPending commits the Pending → Processing transition. The
// status/confirmed guard makes a second confirmation attempt a no-op at the
// row level so callers can fail fast instead of re-running side effects.
func (r *repository) ConfirmPending(ctx context.Context, id uuid.UUID, method enums.PaymentMethod, isPaid bool, confirmedAt time.Time, window types.DeliveryWindow) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND confirmed = ?", id, enums.OrderStatusPending, false).
		Updates(map[string]any{
			"status":             enums.OrderStatusProcessing,
			"confirmed":          true,
			"is_paid":            isPaid,
			"payment_method":     method,
			"confirmed_at":       confirmedAt,
			"delivery_starts_at": window.StartsAt,
			"delivery_ends_at":   window.EndsAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
