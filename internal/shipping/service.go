package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/geo"
	"github.com/mountemart/backend/pkg/types"
)

var one = decimal.NewFromInt(1)

// Line is one order line as the charge computation sees it.
type Line struct {
	ProductID    uuid.UUID
	ProductName  string
	Quantity     int
	WeightKG     decimal.Decimal
	FreeDelivery bool
}

// Destination is the drop location the order ships to.
type Destination struct {
	District string
	City     string
}

// Service computes delivery charges and manages the zone/rate tables.
type Service interface {
	Quote(ctx context.Context, lines []Line, dest Destination, tier enums.ShippingTier) (types.ShippingQuote, error)

	AddFreeDeliveryZone(ctx context.Context, district, city string) error
	SetStandardRate(ctx context.Context, district, city string, baseCharge, perKGCharge decimal.Decimal) error
	AddExpressZone(ctx context.Context, district string) error
	SetExpressCharge(ctx context.Context, city string, charge decimal.Decimal) error
	AddForbiddenDelivery(ctx context.Context, productID uuid.UUID, district string) error

	ListFreeDeliveryZones(ctx context.Context) ([]models.FreeDeliveryZone, error)
	ListStandardRates(ctx context.Context) ([]models.StandardShippingRate, error)
	ListExpressZones(ctx context.Context) ([]models.ExpressZone, error)
	ListExpressCharges(ctx context.Context) ([]models.ExpressCharge, error)
	ListForbiddenDeliveries(ctx context.Context) ([]models.ForbiddenDelivery, error)
}

type service struct {
	repo     Repository
	registry *geo.Registry
}

// NewService builds the shipping service.
func NewService(repo Repository, registry *geo.Registry) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if registry == nil {
		return nil, errors.New("geo registry is required")
	}
	return &service{repo: repo, registry: registry}, nil
}

// Quote computes the delivery charge for the given lines and destination.
// Products banned in the destination district fail the whole quote; no
// partial charge is returned.
func (s *service) Quote(ctx context.Context, lines []Line, dest Destination, tier enums.ShippingTier) (types.ShippingQuote, error) {
	if !tier.IsValid() {
		return types.ShippingQuote{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping tier").
			WithDetails(map[string]any{"tier": string(tier)})
	}
	district := normalizePlace(dest.District)
	city := normalizePlace(dest.City)
	if district == "" || city == "" {
		return types.ShippingQuote{}, pkgerrors.New(pkgerrors.CodeValidation, "destination district and city are required")
	}

	if err := s.checkForbidden(ctx, lines, district); err != nil {
		return types.ShippingQuote{}, err
	}

	freeZone, err := s.repo.FreeDeliveryZoneExists(ctx, district, city)
	if err != nil {
		return types.ShippingQuote{}, fmt.Errorf("checking free delivery zone: %w", err)
	}

	charge := decimal.Zero
	var rate *models.StandardShippingRate
	for _, line := range lines {
		if line.FreeDelivery && freeZone {
			continue
		}
		if rate == nil {
			rate, err = s.repo.FindStandardRate(ctx, district, city)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.ShippingQuote{}, pkgerrors.New(pkgerrors.CodeNotFound, "no shipping rate configured for destination").
						WithDetails(map[string]any{"district": district, "city": city})
				}
				return types.ShippingQuote{}, fmt.Errorf("loading standard rate: %w", err)
			}
		}
		// The -1 offset on the billable weight is a long-standing
		// business rule; do not normalize it away.
		billable := decimal.NewFromInt(int64(line.Quantity)).Mul(line.WeightKG).Sub(one).Abs()
		charge = charge.Add(billable.Mul(rate.PerKGCharge).Add(rate.BaseCharge))
	}

	if tier == enums.ShippingTierExpress {
		express, err := s.expressCharge(ctx, district, city)
		if err != nil {
			return types.ShippingQuote{}, err
		}
		charge = charge.Add(express)
	}

	return types.ShippingQuote{Tier: tier, Charge: charge}, nil
}

// checkForbidden accumulates every line whose product is banned in the
// destination district. Bans apply district-wide regardless of city.
func (s *service) checkForbidden(ctx context.Context, lines []Line, district string) error {
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	bans, err := s.repo.FindForbiddenDeliveries(ctx, district, productIDs)
	if err != nil {
		return fmt.Errorf("checking forbidden deliveries: %w", err)
	}
	if len(bans) == 0 {
		return nil
	}
	banned := make(map[uuid.UUID]bool, len(bans))
	for _, ban := range bans {
		banned[ban.ProductID] = true
	}
	products := make([]map[string]any, 0, len(bans))
	for _, line := range lines {
		if !banned[line.ProductID] {
			continue
		}
		products = append(products, map[string]any{
			"product_id": line.ProductID,
			"name":       line.ProductName,
		})
	}
	return pkgerrors.New(pkgerrors.CodeForbiddenDelivery, "some products cannot be delivered to this district").
		WithDetails(map[string]any{
			"district": district,
			"products": products,
		})
}

func (s *service) expressCharge(ctx context.Context, district, city string) (decimal.Decimal, error) {
	inZone, err := s.repo.ExpressZoneExists(ctx, district)
	if err != nil {
		return decimal.Zero, fmt.Errorf("checking express zone: %w", err)
	}
	if !inZone {
		return decimal.Zero, expressUnavailable(district, city)
	}
	charge, err := s.repo.FindExpressCharge(ctx, city)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, expressUnavailable(district, city)
		}
		return decimal.Zero, fmt.Errorf("loading express charge: %w", err)
	}
	return charge.Charge, nil
}

func expressUnavailable(district, city string) error {
	return pkgerrors.New(pkgerrors.CodeExpressUnavailable, "express delivery is not available for this location").
		WithDetails(map[string]any{"district": district, "city": city})
}

func (s *service) AddFreeDeliveryZone(ctx context.Context, district, city string) error {
	district, city, err := s.validatePlace(district, city)
	if err != nil {
		return err
	}
	zone := &models.FreeDeliveryZone{ID: uuid.New(), District: district, City: city}
	if err := s.repo.UpsertFreeDeliveryZone(ctx, zone); err != nil {
		return fmt.Errorf("saving free delivery zone: %w", err)
	}
	return nil
}

func (s *service) SetStandardRate(ctx context.Context, district, city string, baseCharge, perKGCharge decimal.Decimal) error {
	district, city, err := s.validatePlace(district, city)
	if err != nil {
		return err
	}
	if baseCharge.IsNegative() || perKGCharge.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "charges must not be negative")
	}
	rate := &models.StandardShippingRate{
		ID:          uuid.New(),
		District:    district,
		City:        city,
		BaseCharge:  baseCharge,
		PerKGCharge: perKGCharge,
	}
	if err := s.repo.UpsertStandardRate(ctx, rate); err != nil {
		return fmt.Errorf("saving standard rate: %w", err)
	}
	return nil
}

func (s *service) AddExpressZone(ctx context.Context, district string) error {
	district = normalizePlace(district)
	if !s.registry.ValidDistrict(district) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown district").
			WithDetails(map[string]any{"district": district})
	}
	zone := &models.ExpressZone{ID: uuid.New(), District: district}
	if err := s.repo.UpsertExpressZone(ctx, zone); err != nil {
		return fmt.Errorf("saving express zone: %w", err)
	}
	return nil
}

func (s *service) SetExpressCharge(ctx context.Context, city string, charge decimal.Decimal) error {
	city = normalizePlace(city)
	if city == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if charge.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "charge must not be negative")
	}
	row := &models.ExpressCharge{ID: uuid.New(), City: city, Charge: charge}
	if err := s.repo.UpsertExpressCharge(ctx, row); err != nil {
		return fmt.Errorf("saving express charge: %w", err)
	}
	return nil
}

func (s *service) AddForbiddenDelivery(ctx context.Context, productID uuid.UUID, district string) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	district = normalizePlace(district)
	if !s.registry.ValidDistrict(district) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown district").
			WithDetails(map[string]any{"district": district})
	}
	ban := &models.ForbiddenDelivery{ID: uuid.New(), ProductID: productID, District: district}
	if err := s.repo.UpsertForbiddenDelivery(ctx, ban); err != nil {
		return fmt.Errorf("saving forbidden delivery: %w", err)
	}
	return nil
}

func (s *service) ListFreeDeliveryZones(ctx context.Context) ([]models.FreeDeliveryZone, error) {
	return s.repo.ListFreeDeliveryZones(ctx)
}

func (s *service) ListStandardRates(ctx context.Context) ([]models.StandardShippingRate, error) {
	return s.repo.ListStandardRates(ctx)
}

func (s *service) ListExpressZones(ctx context.Context) ([]models.ExpressZone, error) {
	return s.repo.ListExpressZones(ctx)
}

func (s *service) ListExpressCharges(ctx context.Context) ([]models.ExpressCharge, error) {
	return s.repo.ListExpressCharges(ctx)
}

func (s *service) ListForbiddenDeliveries(ctx context.Context) ([]models.ForbiddenDelivery, error) {
	return s.repo.ListForbiddenDeliveries(ctx)
}

func (s *service) validatePlace(district, city string) (string, string, error) {
	district = normalizePlace(district)
	city = normalizePlace(city)
	if !s.registry.ValidDistrict(district) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "unknown district").
			WithDetails(map[string]any{"district": district})
	}
	if !s.registry.ValidCity(district, city) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "city does not belong to district").
			WithDetails(map[string]any{"district": district, "city": city})
	}
	return district, city, nil
}

func normalizePlace(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
