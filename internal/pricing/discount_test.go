package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
)

func activeWindow(now time.Time) (*time.Time, *time.Time) {
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	return &start, &end
}

func expiredWindow(now time.Time) (*time.Time, *time.Time) {
	start := now.Add(-48 * time.Hour)
	end := now.Add(-24 * time.Hour)
	return &start, &end
}

func decEq(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestComputeLineDiscountNoDiscounts(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{BasePrice: decimal.NewFromInt(1000)},
	}, now)

	decEq(t, result.FinalPrice, "1000", "final price")
	decEq(t, result.DiscountAmount, "0", "discount amount")
}

func TestComputeLineDiscountOwnPlusSubcategory(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{
			BasePrice:       decimal.NewFromInt(1000),
			DiscountPercent: decimal.NewFromInt(10),
		},
		Chain: []models.SubCategory{{
			DiscountPercent:  decimal.NewFromInt(20),
			DiscountStartsAt: start,
			DiscountEndsAt:   end,
		}},
	}, now)

	// 100 own + 20% of that from the subcategory stage.
	decEq(t, result.DiscountAmount, "120", "discount amount")
	decEq(t, result.FinalPrice, "880", "final price")
}

func TestComputeLineDiscountChainOnly(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{BasePrice: decimal.NewFromInt(500)},
		Chain: []models.SubCategory{{
			DiscountPercent:  decimal.NewFromInt(10),
			DiscountStartsAt: start,
			DiscountEndsAt:   end,
		}},
	}, now)

	// No own discount, so the chain percent applies to the base price.
	decEq(t, result.DiscountAmount, "50", "discount amount")
	decEq(t, result.FinalPrice, "450", "final price")
}

func TestComputeLineDiscountChainCompounds(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{BasePrice: decimal.NewFromInt(1000)},
		Chain: []models.SubCategory{
			{DiscountPercent: decimal.NewFromInt(10), DiscountStartsAt: start, DiscountEndsAt: end},
			{DiscountPercent: decimal.NewFromInt(50), DiscountStartsAt: start, DiscountEndsAt: end},
		},
	}, now)

	// chain percent = 10 + 50*(10/100) = 15.
	decEq(t, result.DiscountAmount, "150", "discount amount")
	decEq(t, result.FinalPrice, "850", "final price")
}

func TestComputeLineDiscountChainCompoundsThreeDeep(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{BasePrice: decimal.NewFromInt(1000)},
		Chain: []models.SubCategory{
			{DiscountPercent: decimal.NewFromInt(10), DiscountStartsAt: start, DiscountEndsAt: end},
			{DiscountPercent: decimal.NewFromInt(20), DiscountStartsAt: start, DiscountEndsAt: end},
			{DiscountPercent: decimal.NewFromInt(10), DiscountStartsAt: start, DiscountEndsAt: end},
		},
	}, now)

	// Each ancestor scales by the running percent:
	// 10 + 20*(10/100) + 10*(12/100) = 13.2.
	decEq(t, result.DiscountAmount, "132", "discount amount")
	decEq(t, result.FinalPrice, "868", "final price")
}

func TestComputeLineDiscountChainStopsAtInactiveNode(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)
	expStart, expEnd := expiredWindow(now)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{BasePrice: decimal.NewFromInt(1000)},
		Chain: []models.SubCategory{
			{DiscountPercent: decimal.NewFromInt(10), DiscountStartsAt: start, DiscountEndsAt: end},
			{DiscountPercent: decimal.NewFromInt(50), DiscountStartsAt: expStart, DiscountEndsAt: expEnd},
			{DiscountPercent: decimal.NewFromInt(90), DiscountStartsAt: start, DiscountEndsAt: end},
		},
	}, now)

	// The walk halts at the expired ancestor; the node past it never applies.
	decEq(t, result.DiscountAmount, "100", "discount amount")
	decEq(t, result.FinalPrice, "900", "final price")
}

func TestComputeLineDiscountCategoryScalesRunningAmount(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)
	catID := uuid.New()

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{
			BasePrice:       decimal.NewFromInt(1000),
			DiscountPercent: decimal.NewFromInt(10),
			CategoryID:      &catID,
		},
		Category: &models.Category{
			ID:               catID,
			DiscountPercent:  decimal.NewFromInt(50),
			DiscountStartsAt: start,
			DiscountEndsAt:   end,
		},
	}, now)

	// d0 = 100, d2 = 50% of the running 100.
	decEq(t, result.DiscountAmount, "150", "discount amount")
	decEq(t, result.FinalPrice, "850", "final price")
}

func TestComputeLineDiscountCategoryAloneContributesNothing(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start, end := activeWindow(now)
	catID := uuid.New()

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{
			BasePrice:  decimal.NewFromInt(1000),
			CategoryID: &catID,
		},
		Category: &models.Category{
			ID:               catID,
			DiscountPercent:  decimal.NewFromInt(50),
			DiscountStartsAt: start,
			DiscountEndsAt:   end,
		},
	}, now)

	// With a zero running amount the category stage scales zero.
	decEq(t, result.DiscountAmount, "0", "discount amount")
	decEq(t, result.FinalPrice, "1000", "final price")
}

func TestComputeLineDiscountFloorsAtZero(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{
			BasePrice:       decimal.NewFromInt(100),
			DiscountPercent: decimal.NewFromInt(120),
		},
	}, now)

	if !result.FinalPrice.IsZero() {
		t.Fatalf("final price = %s, want 0", result.FinalPrice)
	}
	decEq(t, result.DiscountAmount, "120", "discount amount")
}

func TestComputeLineDiscountWindowRequiresBothBounds(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(32)
	start := now.Add(-time.Hour)

	result := calc.ComputeLineDiscount(LineContext{
		Product: models.Product{BasePrice: decimal.NewFromInt(200)},
		Chain: []models.SubCategory{{
			DiscountPercent:  decimal.NewFromInt(30),
			DiscountStartsAt: &start,
		}},
	}, now)

	decEq(t, result.DiscountAmount, "0", "discount amount")
	decEq(t, result.FinalPrice, "200", "final price")
}
