package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
)

// Repository persists return requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return Repository{db: db}
}

func (r Repository) WithTx(tx *gorm.DB) Repository {
	return Repository{db: tx}
}

func (r Repository) Create(ctx context.Context, request *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindOpenByOrder returns the active request for an order, if any. Cancelled
// and resolved requests do not block a new one.
func (r Repository) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID, []enums.ReturnStatus{
			enums.ReturnStatusResolved,
			enums.ReturnStatusCancelled,
		}).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ReturnRequest, error) {
	var requests []models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r Repository) ListByStatus(ctx context.Context, status enums.ReturnStatus) ([]models.ReturnRequest, error) {
	var requests []models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatusIf moves the request to the new status only when it currently
// holds the expected one.
func (r Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.ReturnStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
