package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/types"
)

// PricedLine pairs a cart line with its staged-discount unit pricing.
type PricedLine struct {
	Item     models.LineItem
	Context  LineContext
	Discount LineDiscount
}

// ApplyCombos walks the combos in the given order and applies each satisfied
// one to the lines it covers. A line is claimed by the first combo that
// matches it and never re-priced by a later combo. The returned total is the
// quantity-weighted sum of per-unit deltas.
func ApplyCombos(lines []PricedLine, combos []models.ComboDiscount) (decimal.Decimal, []types.AppliedCombo, map[uuid.UUID]ComboApplication) {
	inCart := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		inCart[line.Item.ProductID] = struct{}{}
	}

	total := decimal.Zero
	applied := make([]types.AppliedCombo, 0)
	claimed := make(map[uuid.UUID]ComboApplication)

	for _, combo := range combos {
		if !combo.IsActive || len(combo.ProductIDs) == 0 {
			continue
		}
		if !subsetOfCart(combo.ProductIDs, inCart) {
			continue
		}
		comboProducts := make(map[uuid.UUID]struct{}, len(combo.ProductIDs))
		for _, id := range combo.ProductIDs {
			comboProducts[id] = struct{}{}
		}
		for _, line := range lines {
			if _, ok := comboProducts[line.Item.ProductID]; !ok {
				continue
			}
			if _, taken := claimed[line.Item.ID]; taken {
				continue
			}
			factor := decimal.NewFromInt(1).Sub(combo.DiscountPercent.Div(oneHundred))
			comboPrice := factor.Mul(line.Discount.FinalPrice)
			delta := line.Discount.FinalPrice.Sub(comboPrice).Mul(decimal.NewFromInt(int64(line.Item.Quantity)))
			total = total.Add(delta)
			claimed[line.Item.ID] = ComboApplication{ComboID: combo.ID, ComboPrice: comboPrice}
			applied = append(applied, types.AppliedCombo{
				ComboID:    combo.ID,
				ComboName:  combo.Name,
				ProductID:  line.Item.ProductID,
				Quantity:   line.Item.Quantity,
				ComboPrice: comboPrice,
			})
		}
	}
	return total, applied, claimed
}

// ComboApplication records the combo that claimed a line.
type ComboApplication struct {
	ComboID    uuid.UUID
	ComboPrice decimal.Decimal
}

func subsetOfCart(required []uuid.UUID, inCart map[uuid.UUID]struct{}) bool {
	for _, id := range required {
		if _, ok := inCart[id]; !ok {
			return false
		}
	}
	return true
}
