package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/internal/pricing"
	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/types"
)

// catalogLoader resolves products and variations while adding to the cart.
type catalogLoader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariationByID(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error)
}

// Service exposes cart line item operations and the priced cart summary.
type Service interface {
	AddItem(ctx context.Context, userID, productID, variationID uuid.UUID, quantity int) (*models.LineItem, error)
	UpdateQuantity(ctx context.Context, userID, lineItemID uuid.UUID, quantity int) (*models.LineItem, error)
	RemoveItem(ctx context.Context, userID, lineItemID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.LineItem, error)
	Summary(ctx context.Context, userID uuid.UUID) (*types.CartQuote, error)
}

type service struct {
	repo    Repository
	catalog catalogLoader
	pricer  pricing.Service
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, catalog catalogLoader, pricer pricing.Service) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog loader is required")
	}
	if pricer == nil {
		return nil, errors.New("pricing service is required")
	}
	return &service{repo: repo, catalog: catalog, pricer: pricer}, nil
}

// AddItem puts a variation in the user's cart. An existing open line for the
// same variation has its quantity incremented instead of creating a second
// row.
func (s *service) AddItem(ctx context.Context, userID, productID, variationID uuid.UUID, quantity int) (*models.LineItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.catalog.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, fmt.Errorf("loading product: %w", err)
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	variation, err := s.catalog.FindVariationByID(ctx, variationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variation not found")
		}
		return nil, fmt.Errorf("loading variation: %w", err)
	}
	if variation.ProductID != product.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variation does not belong to product")
	}

	existing, err := s.repo.FindOpenLineByVariation(ctx, userID, variationID)
	if err == nil {
		newQty := existing.Quantity + quantity
		if err := s.repo.UpdateQuantity(ctx, existing.ID, newQty); err != nil {
			return nil, fmt.Errorf("updating line quantity: %w", err)
		}
		existing.Quantity = newQty
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading cart line: %w", err)
	}

	item := &models.LineItem{
		ID:          uuid.New(),
		UserID:      userID,
		ProductID:   productID,
		VariationID: variationID,
		Quantity:    quantity,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("creating cart line: %w", err)
	}
	return item, nil
}

// UpdateQuantity sets the line's quantity. Zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID, lineItemID uuid.UUID, quantity int) (*models.LineItem, error) {
	item, err := s.ownedOpenLine(ctx, userID, lineItemID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			return nil, fmt.Errorf("removing cart line: %w", err)
		}
		return nil, nil
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, fmt.Errorf("updating line quantity: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, lineItemID uuid.UUID) error {
	item, err := s.ownedOpenLine(ctx, userID, lineItemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return fmt.Errorf("removing cart line: %w", err)
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, userID uuid.UUID) ([]models.LineItem, error) {
	return s.repo.FindOpenLines(ctx, userID)
}

// Summary prices the open cart lines.
func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*types.CartQuote, error) {
	items, err := s.repo.FindOpenLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart lines: %w", err)
	}
	return s.pricer.QuoteLines(ctx, items)
}

func (s *service) ownedOpenLine(ctx context.Context, userID, lineItemID uuid.UUID) (*models.LineItem, error) {
	item, err := s.repo.FindByID(ctx, lineItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, fmt.Errorf("loading cart line: %w", err)
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if !item.InCart() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart item is already part of an order")
	}
	return item, nil
}
