package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variations").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindVariationByID(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error) {
	var variation models.ProductVariation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&variation).Error
	if err != nil {
		return nil, err
	}
	return &variation, nil
}

func (r *repository) FindVariationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variations []models.ProductVariation
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&variations).Error
	if err != nil {
		return nil, err
	}
	return variations, nil
}

func (r *repository) FindSubCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SubCategory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var subCategories []models.SubCategory
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&subCategories).Error
	if err != nil {
		return nil, err
	}
	return subCategories, nil
}

func (r *repository) FindCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) ListActiveCombos(ctx context.Context) ([]models.ComboDiscount, error) {
	var combos []models.ComboDiscount
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&combos).Error
	if err != nil {
		return nil, err
	}
	return combos, nil
}

func (r *repository) ListActiveProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).
		Preload("Variations").
		Where("is_active = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock atomically subtracts qty from the variation when enough
// stock remains. The boolean result reports whether a row was updated.
func (r *repository) DecrementStock(ctx context.Context, variationID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_variations
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, variationID, qty)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	return res.RowsAffected > 0, nil
}
