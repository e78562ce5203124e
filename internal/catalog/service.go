package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/internal/pricing"
	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/logger"
)

// Service exposes catalog reads for pricing, checkout, and browse surfaces.
type Service interface {
	LoadLineContexts(ctx context.Context, items []models.LineItem) ([]pricing.LineContext, error)
	ListActiveCombos(ctx context.Context) ([]models.ComboDiscount, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	TopProducts(ctx context.Context) ([]TopProduct, error)
}

// TopProduct is the cached browse projection for the storefront landing page.
type TopProduct struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	BasePrice       decimal.Decimal `json:"base_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	FreeDelivery    bool            `json:"free_delivery"`
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	TopProductsKey() string
}

const topProductsLimit = 10

type service struct {
	repo          Repository
	cache         cache
	cacheTTL      time.Duration
	maxChainDepth int
	logg          *logger.Logger
}

// NewService builds the catalog service. The cache is optional; without it
// TopProducts always reads from the database.
func NewService(repo Repository, cache cache, cacheTTL time.Duration, maxChainDepth int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if maxChainDepth <= 0 {
		maxChainDepth = 32
	}
	return &service{
		repo:          repo,
		cache:         cache,
		cacheTTL:      cacheTTL,
		maxChainDepth: maxChainDepth,
		logg:          logg,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, fmt.Errorf("loading product: %w", err)
	}
	return product, nil
}

func (s *service) ListActiveCombos(ctx context.Context) ([]models.ComboDiscount, error) {
	return s.repo.ListActiveCombos(ctx)
}

// LoadLineContexts resolves products, variations, the subcategory chain, and
// categories for the given items, one context per item in input order.
func (s *service) LoadLineContexts(ctx context.Context, items []models.LineItem) ([]pricing.LineContext, error) {
	if len(items) == 0 {
		return nil, nil
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	variationIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		variationIDs = append(variationIDs, item.VariationID)
	}

	products, err := s.repo.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	productsByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	variations, err := s.repo.FindVariationsByIDs(ctx, variationIDs)
	if err != nil {
		return nil, fmt.Errorf("loading variations: %w", err)
	}
	variationsByID := make(map[uuid.UUID]models.ProductVariation, len(variations))
	for _, v := range variations {
		variationsByID[v.ID] = v
	}

	subCategoriesByID, err := s.loadSubCategoryClosure(ctx, products)
	if err != nil {
		return nil, err
	}

	categoryIDs := make([]uuid.UUID, 0, len(products))
	seenCategories := make(map[uuid.UUID]struct{})
	for _, p := range products {
		if p.CategoryID == nil {
			continue
		}
		if _, ok := seenCategories[*p.CategoryID]; ok {
			continue
		}
		seenCategories[*p.CategoryID] = struct{}{}
		categoryIDs = append(categoryIDs, *p.CategoryID)
	}
	categories, err := s.repo.FindCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	categoriesByID := make(map[uuid.UUID]models.Category, len(categories))
	for _, c := range categories {
		categoriesByID[c.ID] = c
	}

	contexts := make([]pricing.LineContext, 0, len(items))
	for _, item := range items {
		product, ok := productsByID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		variation, ok := variationsByID[item.VariationID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variation no longer available").
				WithDetails(map[string]any{"variation_id": item.VariationID})
		}

		lineCtx := pricing.LineContext{Product: product, Variation: variation}
		nextID := product.SubCategoryID
		for depth := 0; nextID != nil && depth < s.maxChainDepth; depth++ {
			node, ok := subCategoriesByID[*nextID]
			if !ok {
				break
			}
			lineCtx.Chain = append(lineCtx.Chain, node)
			nextID = node.ParentID
		}
		if product.CategoryID != nil {
			if category, ok := categoriesByID[*product.CategoryID]; ok {
				lineCtx.Category = &category
			}
		}
		contexts = append(contexts, lineCtx)
	}
	return contexts, nil
}

// loadSubCategoryClosure batch-fetches the subcategories reachable from the
// products' subcategory links, bounded by the chain depth guard.
func (s *service) loadSubCategoryClosure(ctx context.Context, products []models.Product) (map[uuid.UUID]models.SubCategory, error) {
	loaded := make(map[uuid.UUID]models.SubCategory)
	frontier := make([]uuid.UUID, 0, len(products))
	seen := make(map[uuid.UUID]struct{})
	for _, p := range products {
		if p.SubCategoryID == nil {
			continue
		}
		if _, ok := seen[*p.SubCategoryID]; ok {
			continue
		}
		seen[*p.SubCategoryID] = struct{}{}
		frontier = append(frontier, *p.SubCategoryID)
	}

	for depth := 0; len(frontier) > 0 && depth < s.maxChainDepth; depth++ {
		batch, err := s.repo.FindSubCategoriesByIDs(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("loading subcategories: %w", err)
		}
		frontier = frontier[:0]
		for _, node := range batch {
			loaded[node.ID] = node
			if node.ParentID == nil {
				continue
			}
			if _, ok := seen[*node.ParentID]; ok {
				continue
			}
			seen[*node.ParentID] = struct{}{}
			frontier = append(frontier, *node.ParentID)
		}
	}
	return loaded, nil
}

// TopProducts serves the ranked product list from cache when fresh, falling
// back to the newest active products and repopulating the cache best-effort.
func (s *service) TopProducts(ctx context.Context) ([]TopProduct, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cache.TopProductsKey()); err == nil && cached != "" {
			var out []TopProduct
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
			if s.logg != nil {
				s.logg.Warn(ctx, "discarding malformed top products cache entry")
			}
		}
	}

	products, err := s.repo.ListActiveProducts(ctx, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	out := make([]TopProduct, 0, len(products))
	for _, p := range products {
		out = append(out, TopProduct{
			ID:              p.ID,
			Name:            p.Name,
			BasePrice:       p.BasePrice,
			DiscountPercent: p.DiscountPercent,
			FreeDelivery:    p.FreeDelivery,
		})
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, s.cache.TopProductsKey(), string(encoded), s.cacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "top products cache refresh failed")
			}
		}
	}
	return out, nil
}
