package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/types"
)

// CatalogLoader resolves the catalog context needed to price cart lines.
// LoadLineContexts returns one context per input item, in input order.
type CatalogLoader interface {
	LoadLineContexts(ctx context.Context, items []models.LineItem) ([]LineContext, error)
	ListActiveCombos(ctx context.Context) ([]models.ComboDiscount, error)
}

// Service prices carts.
type Service interface {
	QuoteLines(ctx context.Context, items []models.LineItem) (*types.CartQuote, error)
	QuoteForCheckout(ctx context.Context, items []models.LineItem) (*types.CartQuote, error)
}

type service struct {
	loader     CatalogLoader
	calculator *Calculator
	now        func() time.Time
}

// NewService builds the pricing service.
func NewService(loader CatalogLoader, calculator *Calculator) (Service, error) {
	if loader == nil {
		return nil, errors.New("catalog loader is required")
	}
	if calculator == nil {
		return nil, errors.New("calculator is required")
	}
	return &service{loader: loader, calculator: calculator, now: time.Now}, nil
}

// QuoteLines prices the given cart lines without touching stock.
func (s *service) QuoteLines(ctx context.Context, items []models.LineItem) (*types.CartQuote, error) {
	now := s.now()

	quote := &types.CartQuote{
		Lines:              make([]types.LineQuote, 0, len(items)),
		AppliedCombos:      make([]types.AppliedCombo, 0),
		TotalPrice:         decimal.Zero,
		TotalDiscount:      decimal.Zero,
		ComboDiscountTotal: decimal.Zero,
		FinalPrice:         decimal.Zero,
	}
	if len(items) == 0 {
		return quote, nil
	}

	contexts, err := s.loader.LoadLineContexts(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("loading line contexts: %w", err)
	}
	if len(contexts) != len(items) {
		return nil, fmt.Errorf("expected %d line contexts, got %d", len(items), len(contexts))
	}

	priced := make([]PricedLine, 0, len(items))
	for i, item := range items {
		priced = append(priced, PricedLine{
			Item:     item,
			Context:  contexts[i],
			Discount: s.calculator.ComputeLineDiscount(contexts[i], now),
		})
	}

	combos, err := s.loader.ListActiveCombos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing combos: %w", err)
	}
	comboTotal, applied, claimed := ApplyCombos(priced, combos)

	for _, line := range priced {
		qty := decimal.NewFromInt(int64(line.Item.Quantity))
		quote.TotalPrice = quote.TotalPrice.Add(line.Discount.FinalPrice.Mul(qty))

		lq := types.LineQuote{
			LineItemID:     line.Item.ID,
			ProductID:      line.Item.ProductID,
			VariationID:    line.Item.VariationID,
			ProductName:    line.Context.Product.Name,
			Quantity:       line.Item.Quantity,
			BasePrice:      line.Context.Product.BasePrice,
			DiscountAmount: line.Discount.DiscountAmount,
			FinalPrice:     line.Discount.FinalPrice,
		}
		if app, ok := claimed[line.Item.ID]; ok {
			comboID := app.ComboID
			comboPrice := app.ComboPrice
			lq.ComboID = &comboID
			lq.ComboPrice = &comboPrice
		} else {
			quote.TotalDiscount = quote.TotalDiscount.Add(line.Discount.DiscountAmount.Mul(qty))
		}
		quote.Lines = append(quote.Lines, lq)
	}

	quote.AppliedCombos = applied
	quote.ComboDiscountTotal = comboTotal
	quote.TotalDiscount = quote.TotalDiscount.Add(comboTotal)
	quote.FinalPrice = quote.TotalPrice.Sub(comboTotal)
	return quote, nil
}

// QuoteForCheckout prices the lines and rejects any line whose quantity
// exceeds the variation stock right now. Confirmation re-checks with a
// conditional decrement, so this is the early, user-facing check.
func (s *service) QuoteForCheckout(ctx context.Context, items []models.LineItem) (*types.CartQuote, error) {
	contexts, err := s.loader.LoadLineContexts(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("loading line contexts: %w", err)
	}
	if len(contexts) != len(items) {
		return nil, fmt.Errorf("expected %d line contexts, got %d", len(items), len(contexts))
	}

	type stockShortfall struct {
		ProductID   uuid.UUID `json:"product_id"`
		VariationID uuid.UUID `json:"variation_id"`
		ProductName string    `json:"product_name"`
		Requested   int       `json:"requested"`
		Available   int       `json:"available"`
	}
	var shortfalls []stockShortfall
	for i, item := range items {
		if item.Quantity > contexts[i].Variation.Stock {
			shortfalls = append(shortfalls, stockShortfall{
				ProductID:   item.ProductID,
				VariationID: item.VariationID,
				ProductName: contexts[i].Product.Name,
				Requested:   item.Quantity,
				Available:   contexts[i].Variation.Stock,
			})
		}
	}
	if len(shortfalls) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %d item(s)", len(shortfalls))).
			WithDetails(map[string]any{"items": shortfalls})
	}

	return s.QuoteLines(ctx, items)
}
