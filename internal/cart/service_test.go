package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/types"
)

type stubCatalog struct {
	products   map[uuid.UUID]*models.Product
	variations map[uuid.UUID]*models.ProductVariation
}

func (s *stubCatalog) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindVariationByID(_ context.Context, id uuid.UUID) (*models.ProductVariation, error) {
	if v, ok := s.variations[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubPricer struct {
	quoted []models.LineItem
	err    error
}

func (s *stubPricer) QuoteLines(_ context.Context, items []models.LineItem) (*types.CartQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.quoted = items
	return &types.CartQuote{
		Lines:      make([]types.LineQuote, len(items)),
		TotalPrice: decimal.NewFromInt(int64(len(items)) * 100),
		FinalPrice: decimal.NewFromInt(int64(len(items)) * 100),
	}, nil
}

func (s *stubPricer) QuoteForCheckout(ctx context.Context, items []models.LineItem) (*types.CartQuote, error) {
	return s.QuoteLines(ctx, items)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.LineItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) (Service, *stubCatalog, *stubPricer, Repository) {
	t.Helper()
	db := newTestDB(t)
	repo := NewRepository(db)
	catalog := &stubCatalog{
		products:   map[uuid.UUID]*models.Product{},
		variations: map[uuid.UUID]*models.ProductVariation{},
	}
	pricer := &stubPricer{}
	svc, err := NewService(repo, catalog, pricer)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, catalog, pricer, repo
}

func seedProduct(catalog *stubCatalog, active bool) (*models.Product, *models.ProductVariation) {
	product := &models.Product{ID: uuid.New(), Name: "seed", IsActive: active}
	variation := &models.ProductVariation{ID: uuid.New(), ProductID: product.ID, Stock: 10}
	catalog.products[product.ID] = product
	catalog.variations[variation.ID] = variation
	return product, variation
}

func TestAddItemCreatesThenIncrements(t *testing.T) {
	t.Parallel()

	svc, catalog, _, _ := newFixture(t)
	product, variation := seedProduct(catalog, true)
	userID := uuid.New()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, userID, product.ID, variation.ID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}

	again, err := svc.AddItem(ctx, userID, product.ID, variation.ID, 3)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if again.ID != item.ID {
		t.Fatalf("expected same line, got %s and %s", item.ID, again.ID)
	}
	if again.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", again.Quantity)
	}

	lines, err := svc.ListItems(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 open line, got %d", len(lines))
	}
}

func TestAddItemRejectsMismatchedVariation(t *testing.T) {
	t.Parallel()

	svc, catalog, _, _ := newFixture(t)
	product, _ := seedProduct(catalog, true)
	_, otherVariation := seedProduct(catalog, true)

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, otherVariation.ID, 1)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	svc, catalog, _, _ := newFixture(t)
	product, variation := seedProduct(catalog, false)

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, variation.ID, 1)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateQuantityZeroDeletes(t *testing.T) {
	t.Parallel()

	svc, catalog, _, _ := newFixture(t)
	product, variation := seedProduct(catalog, true)
	userID := uuid.New()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, userID, product.ID, variation.ID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.UpdateQuantity(ctx, userID, item.ID, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated != nil {
		t.Fatalf("expected line removed, got %+v", updated)
	}

	lines, err := svc.ListItems(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestRemoveItemEnforcesOwnership(t *testing.T) {
	t.Parallel()

	svc, catalog, _, _ := newFixture(t)
	product, variation := seedProduct(catalog, true)
	owner := uuid.New()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, owner, product.ID, variation.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = svc.RemoveItem(ctx, uuid.New(), item.ID)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if err := svc.RemoveItem(ctx, owner, item.ID); err != nil {
		t.Fatalf("remove by owner: %v", err)
	}
}

func TestUpdateAttachedLineIsStateConflict(t *testing.T) {
	t.Parallel()

	svc, catalog, _, repo := newFixture(t)
	product, variation := seedProduct(catalog, true)
	userID := uuid.New()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, userID, product.ID, variation.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	orderID := uuid.New()
	if err := repo.AttachToOrder(ctx, userID, orderID); err != nil {
		t.Fatalf("attach: %v", err)
	}

	_, err = svc.UpdateQuantity(ctx, userID, item.ID, 3)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// Detaching returns the line to the editable cart.
	if err := repo.DetachFromOrder(ctx, orderID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, userID, item.ID, 3); err != nil {
		t.Fatalf("update after detach: %v", err)
	}
}

func TestSummaryPricesOpenLines(t *testing.T) {
	t.Parallel()

	svc, catalog, pricer, _ := newFixture(t)
	product, variation := seedProduct(catalog, true)
	_, variation2 := seedProduct(catalog, true)
	catalog.products[variation2.ProductID].IsActive = true
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, variation.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddItem(ctx, userID, variation2.ProductID, variation2.ID, 2); err != nil {
		t.Fatalf("add second: %v", err)
	}

	quote, err := svc.Summary(ctx, userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(pricer.quoted) != 2 {
		t.Fatalf("expected 2 lines priced, got %d", len(pricer.quoted))
	}
	if !quote.TotalPrice.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected total %s", quote.TotalPrice)
	}
}

func TestSummaryPropagatesPricingError(t *testing.T) {
	t.Parallel()

	svc, _, pricer, _ := newFixture(t)
	pricer.err = errors.New("catalog offline")

	_, err := svc.Summary(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}
}
