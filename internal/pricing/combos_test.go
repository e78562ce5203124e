package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
	dbtypes "github.com/mountemart/backend/pkg/db/types"
)

func pricedLine(productID uuid.UUID, qty int, finalPrice int64) PricedLine {
	return PricedLine{
		Item: models.LineItem{
			ID:        uuid.New(),
			ProductID: productID,
			Quantity:  qty,
		},
		Discount: LineDiscount{
			FinalPrice:     decimal.NewFromInt(finalPrice),
			DiscountAmount: decimal.Zero,
		},
	}
}

func TestApplyCombosSubsetMatch(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	productC := uuid.New()

	lines := []PricedLine{
		pricedLine(productA, 2, 100),
		pricedLine(productB, 1, 200),
		pricedLine(productC, 1, 50),
	}
	combos := []models.ComboDiscount{{
		ID:              uuid.New(),
		Name:            "pair deal",
		DiscountPercent: decimal.NewFromInt(15),
		ProductIDs:      dbtypes.UUIDArray{productA, productB},
		IsActive:        true,
	}}

	total, applied, claimed := ApplyCombos(lines, combos)

	// A: delta 15 x 2, B: delta 30 x 1.
	if !total.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("combo total = %s, want 60", total)
	}
	if len(applied) != 2 {
		t.Fatalf("applied = %d records, want 2", len(applied))
	}
	if _, ok := claimed[lines[2].Item.ID]; ok {
		t.Fatal("line C must not be combo-priced")
	}
	if app, ok := claimed[lines[0].Item.ID]; !ok {
		t.Fatal("line A should be claimed")
	} else if !app.ComboPrice.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("combo price for A = %s, want 85", app.ComboPrice)
	}
}

func TestApplyCombosRequiresFullSet(t *testing.T) {
	productA := uuid.New()
	missing := uuid.New()

	lines := []PricedLine{pricedLine(productA, 1, 100)}
	combos := []models.ComboDiscount{{
		ID:              uuid.New(),
		DiscountPercent: decimal.NewFromInt(10),
		ProductIDs:      dbtypes.UUIDArray{productA, missing},
		IsActive:        true,
	}}

	total, applied, claimed := ApplyCombos(lines, combos)
	if !total.IsZero() || len(applied) != 0 || len(claimed) != 0 {
		t.Fatalf("combo with absent product must not apply: total=%s applied=%d", total, len(applied))
	}
}

func TestApplyCombosFirstMatchWins(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	lines := []PricedLine{
		pricedLine(productA, 1, 100),
		pricedLine(productB, 1, 100),
	}
	first := models.ComboDiscount{
		ID:              uuid.New(),
		DiscountPercent: decimal.NewFromInt(10),
		ProductIDs:      dbtypes.UUIDArray{productA, productB},
		IsActive:        true,
	}
	second := models.ComboDiscount{
		ID:              uuid.New(),
		DiscountPercent: decimal.NewFromInt(50),
		ProductIDs:      dbtypes.UUIDArray{productA},
		IsActive:        true,
	}

	total, _, claimed := ApplyCombos(lines, []models.ComboDiscount{first, second})

	// Both lines carry the first combo's 10 percent; the second never re-prices A.
	if !total.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("combo total = %s, want 20", total)
	}
	if claimed[lines[0].Item.ID].ComboID != first.ID {
		t.Fatal("line A should be claimed by the first combo")
	}
}

func TestApplyCombosSkipsInactive(t *testing.T) {
	productA := uuid.New()
	lines := []PricedLine{pricedLine(productA, 1, 100)}
	combos := []models.ComboDiscount{{
		ID:              uuid.New(),
		DiscountPercent: decimal.NewFromInt(10),
		ProductIDs:      dbtypes.UUIDArray{productA},
		IsActive:        false,
	}}

	total, applied, _ := ApplyCombos(lines, combos)
	if !total.IsZero() || len(applied) != 0 {
		t.Fatal("inactive combo must not apply")
	}
}
