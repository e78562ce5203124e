package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents the canonical catalog listing.
type Product struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string             `gorm:"column:name;not null"`
	Description      *string            `gorm:"column:description"`
	BasePrice        decimal.Decimal    `gorm:"column:base_price;type:numeric(12,2);not null"`
	DiscountPercent  decimal.Decimal    `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	SubCategoryID    *uuid.UUID         `gorm:"column:sub_category_id;type:uuid"`
	CategoryID       *uuid.UUID         `gorm:"column:category_id;type:uuid"`
	WeightKG         decimal.Decimal    `gorm:"column:weight_kg;type:numeric(8,3);not null;default:0"`
	FreeDelivery     bool               `gorm:"column:free_delivery;not null;default:false"`
	AgeRestricted    bool               `gorm:"column:age_restricted;not null;default:false"`
	CashbackEligible bool               `gorm:"column:cashback_eligible;not null;default:true"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	Variations       []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariation is the sellable unit; stock is tracked here and decremented
// with a conditional update at payment confirmation.
type ProductVariation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex"`
	Size      *string   `gorm:"column:size"`
	Color     *string   `gorm:"column:color"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
