package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/enums"
)

// LineQuote is the priced view of a single cart line. ComboID and ComboPrice
// are set only when a satisfied combo overrode the staged discount price.
type LineQuote struct {
	LineItemID     uuid.UUID        `json:"line_item_id"`
	ProductID      uuid.UUID        `json:"product_id"`
	VariationID    uuid.UUID        `json:"variation_id"`
	ProductName    string           `json:"product_name"`
	Quantity       int              `json:"quantity"`
	BasePrice      decimal.Decimal  `json:"base_price"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	FinalPrice     decimal.Decimal  `json:"final_price"`
	ComboID        *uuid.UUID       `json:"combo_id,omitempty"`
	ComboPrice     *decimal.Decimal `json:"combo_price,omitempty"`
}

// EffectivePrice is the unit price the line actually sells at.
func (l LineQuote) EffectivePrice() decimal.Decimal {
	if l.ComboPrice != nil {
		return *l.ComboPrice
	}
	return l.FinalPrice
}

// AppliedCombo records one combo application against one cart line.
type AppliedCombo struct {
	ComboID    uuid.UUID       `json:"combo_id"`
	ComboName  string          `json:"combo_name"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	ComboPrice decimal.Decimal `json:"combo_price"`
}

// CartQuote aggregates line quotes into the cart summary totals.
type CartQuote struct {
	Lines              []LineQuote     `json:"lines"`
	AppliedCombos      []AppliedCombo  `json:"applied_combos"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	ComboDiscountTotal decimal.Decimal `json:"combo_discount_total"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

// ShippingQuote is the computed delivery charge for an order destination.
type ShippingQuote struct {
	Tier   enums.ShippingTier `json:"tier"`
	Charge decimal.Decimal    `json:"charge"`
}

// DeliveryWindow is the estimated delivery interval stamped on an order at
// confirmation.
type DeliveryWindow struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}
