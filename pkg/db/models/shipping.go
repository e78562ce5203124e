package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FreeDeliveryZone marks a city+district pair where free_delivery products
// ship at no charge.
type FreeDeliveryZone struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	District  string    `gorm:"column:district;not null;uniqueIndex:idx_free_delivery_zones_district_city"`
	City      string    `gorm:"column:city;not null;uniqueIndex:idx_free_delivery_zones_district_city"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// StandardShippingRate is the per-location standard tier rate row.
type StandardShippingRate struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	District    string          `gorm:"column:district;not null;uniqueIndex:idx_standard_shipping_rates_district_city"`
	City        string          `gorm:"column:city;not null;uniqueIndex:idx_standard_shipping_rates_district_city"`
	BaseCharge  decimal.Decimal `gorm:"column:base_charge;type:numeric(12,2);not null"`
	PerKGCharge decimal.Decimal `gorm:"column:per_kg_charge;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpressZone lists districts where the express tier operates at all.
type ExpressZone struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	District  string    `gorm:"column:district;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ExpressCharge is the flat express fee for a city inside an express zone.
// A district in ExpressZone with no city row here is still unavailable.
type ExpressCharge struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	City      string          `gorm:"column:city;not null;uniqueIndex"`
	Charge    decimal.Decimal `gorm:"column:charge;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ForbiddenDelivery bans one product from delivery anywhere in a district.
type ForbiddenDelivery struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_forbidden_deliveries_product_district"`
	District  string    `gorm:"column:district;not null;uniqueIndex:idx_forbidden_deliveries_product_district"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
