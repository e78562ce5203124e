package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
)

var oneHundred = decimal.NewFromInt(100)

// LineContext carries everything the calculator needs to price one line.
// Chain holds the line's subcategory first, then parents upward; Category is
// the product's immediate category, when any.
type LineContext struct {
	Product   models.Product
	Variation models.ProductVariation
	Chain     []models.SubCategory
	Category  *models.Category
}

// LineDiscount is the staged-discount result for a single unit.
type LineDiscount struct {
	FinalPrice     decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Calculator applies the staged product/subcategory/category discount rules.
// The three stages compound against the running discount amount, and the
// subcategory and category stages each branch on whether the running amount
// is still zero. The branch shapes are load-bearing business rules and must
// not be algebraically simplified.
type Calculator struct {
	maxChainDepth int
}

// NewCalculator builds a Calculator with the given chain depth guard.
func NewCalculator(maxChainDepth int) *Calculator {
	if maxChainDepth <= 0 {
		maxChainDepth = 32
	}
	return &Calculator{maxChainDepth: maxChainDepth}
}

// ComputeLineDiscount prices one unit of the product at now.
func (c *Calculator) ComputeLineDiscount(line LineContext, now time.Time) LineDiscount {
	base := line.Product.BasePrice

	// Stage 1: the product's own percentage against the base price.
	d0 := line.Product.DiscountPercent.Mul(base).Div(oneHundred)

	// Stage 2: walk the subcategory chain while each node's window is
	// active. The first active node contributes its percent directly; each
	// later one contributes its percent scaled by the accumulated percent.
	chainPercent := decimal.Zero
	for i, node := range line.Chain {
		if i >= c.maxChainDepth {
			break
		}
		if !node.DiscountActiveAt(now) {
			break
		}
		if chainPercent.IsZero() {
			chainPercent = node.DiscountPercent
			continue
		}
		chainPercent = chainPercent.Add(node.DiscountPercent.Mul(chainPercent.Div(oneHundred)))
	}

	d1 := decimal.Zero
	if !chainPercent.IsZero() {
		if !d0.IsZero() {
			d1 = chainPercent.Div(oneHundred).Mul(d0)
		} else {
			d1 = chainPercent.Div(oneHundred).Mul(base)
		}
	}

	// Stage 3: the immediate category, single level. When the running
	// amount is zero this stage scales the zero product discount, so it
	// contributes nothing.
	d2 := decimal.Zero
	if line.Category != nil && line.Category.DiscountActiveAt(now) && !line.Category.DiscountPercent.IsZero() {
		running := d0.Add(d1)
		if !running.IsZero() {
			d2 = line.Category.DiscountPercent.Div(oneHundred).Mul(running)
		}
	}

	total := d0.Add(d1).Add(d2)
	final := base.Sub(total)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return LineDiscount{FinalPrice: final, DiscountAmount: total}
}
