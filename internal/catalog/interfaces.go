package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
)

// Repository defines persistence operations for catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindVariationByID(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error)
	FindVariationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariation, error)
	FindSubCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SubCategory, error)
	FindCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	ListActiveCombos(ctx context.Context) ([]models.ComboDiscount, error)
	ListActiveProducts(ctx context.Context, limit int) ([]models.Product, error)
	DecrementStock(ctx context.Context, variationID uuid.UUID, qty int) (bool, error)
}
