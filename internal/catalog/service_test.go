package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
)

type stubRepo struct {
	products      map[uuid.UUID]models.Product
	variations    map[uuid.UUID]models.ProductVariation
	subCategories map[uuid.UUID]models.SubCategory
	categories    map[uuid.UUID]models.Category
	activeList    []models.Product
	listCalls     int
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) FindVariationByID(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error) {
	if v, ok := s.variations[id]; ok {
		return &v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindVariationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariation, error) {
	var out []models.ProductVariation
	for _, id := range ids {
		if v, ok := s.variations[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubRepo) FindSubCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SubCategory, error) {
	var out []models.SubCategory
	for _, id := range ids {
		if sc, ok := s.subCategories[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *stubRepo) FindCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubRepo) ListActiveCombos(ctx context.Context) ([]models.ComboDiscount, error) {
	return nil, nil
}

func (s *stubRepo) ListActiveProducts(ctx context.Context, limit int) ([]models.Product, error) {
	s.listCalls++
	return s.activeList, nil
}

func (s *stubRepo) DecrementStock(ctx context.Context, variationID uuid.UUID, qty int) (bool, error) {
	return false, errors.New("not implemented")
}

type stubCache struct {
	values map[string]string
	sets   int
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", errors.New("cache miss")
}

func (s *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value.(string)
	s.sets++
	return nil
}

func (s *stubCache) TopProductsKey() string { return "mm:cache:top_products" }

func TestLoadLineContextsResolvesChainAndCategory(t *testing.T) {
	catID := uuid.New()
	rootSub := models.SubCategory{ID: uuid.New(), Name: "root"}
	leafSub := models.SubCategory{ID: uuid.New(), Name: "leaf", ParentID: &rootSub.ID}

	product := models.Product{
		ID:            uuid.New(),
		Name:          "widget",
		BasePrice:     decimal.NewFromInt(100),
		SubCategoryID: &leafSub.ID,
		CategoryID:    &catID,
	}
	variation := models.ProductVariation{ID: uuid.New(), ProductID: product.ID, Stock: 4}

	repo := &stubRepo{
		products:      map[uuid.UUID]models.Product{product.ID: product},
		variations:    map[uuid.UUID]models.ProductVariation{variation.ID: variation},
		subCategories: map[uuid.UUID]models.SubCategory{leafSub.ID: leafSub, rootSub.ID: rootSub},
		categories:    map[uuid.UUID]models.Category{catID: {ID: catID, Name: "tools"}},
	}
	svc, err := NewService(repo, nil, 0, 32, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	contexts, err := svc.LoadLineContexts(context.Background(), []models.LineItem{{
		ID:          uuid.New(),
		ProductID:   product.ID,
		VariationID: variation.ID,
		Quantity:    1,
	}})
	if err != nil {
		t.Fatalf("load contexts: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("contexts = %d, want 1", len(contexts))
	}
	got := contexts[0]
	if got.Product.ID != product.ID || got.Variation.ID != variation.ID {
		t.Fatal("product or variation mismatch")
	}
	if len(got.Chain) != 2 || got.Chain[0].ID != leafSub.ID || got.Chain[1].ID != rootSub.ID {
		t.Fatalf("chain mismatch: %+v", got.Chain)
	}
	if got.Category == nil || got.Category.ID != catID {
		t.Fatal("category missing")
	}
}

func TestLoadLineContextsMissingProduct(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo, nil, 0, 32, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.LoadLineContexts(context.Background(), []models.LineItem{{
		ID:          uuid.New(),
		ProductID:   uuid.New(),
		VariationID: uuid.New(),
		Quantity:    1,
	}})
	if err == nil {
		t.Fatal("expected error for missing product")
	}
}

func TestTopProductsCacheHit(t *testing.T) {
	cached := []TopProduct{{ID: uuid.New(), Name: "hot item", BasePrice: decimal.NewFromInt(10)}}
	encoded, _ := json.Marshal(cached)
	cacheStub := &stubCache{values: map[string]string{"mm:cache:top_products": string(encoded)}}
	repo := &stubRepo{}

	svc, err := NewService(repo, cacheStub, time.Minute, 32, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	out, err := svc.TopProducts(context.Background())
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(out) != 1 || out[0].Name != "hot item" {
		t.Fatalf("unexpected result %+v", out)
	}
	if repo.listCalls != 0 {
		t.Fatal("cache hit must not query the database")
	}
}

func TestTopProductsCacheMissRepopulates(t *testing.T) {
	cacheStub := &stubCache{}
	repo := &stubRepo{activeList: []models.Product{{
		ID:        uuid.New(),
		Name:      "fresh item",
		BasePrice: decimal.NewFromInt(25),
	}}}

	svc, err := NewService(repo, cacheStub, time.Minute, 32, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	out, err := svc.TopProducts(context.Background())
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(out) != 1 || out[0].Name != "fresh item" {
		t.Fatalf("unexpected result %+v", out)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one database read, got %d", repo.listCalls)
	}
	if cacheStub.sets != 1 {
		t.Fatal("expected cache repopulation")
	}
}
