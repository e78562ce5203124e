package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the top taxonomy level. Its discount window applies after the
// subcategory chain during line pricing.
type Category struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null;uniqueIndex"`
	DiscountPercent  decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	DiscountStartsAt *time.Time      `gorm:"column:discount_starts_at"`
	DiscountEndsAt   *time.Time      `gorm:"column:discount_ends_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// DiscountActiveAt reports whether the category discount window covers now.
func (c Category) DiscountActiveAt(now time.Time) bool {
	return discountWindowActive(c.DiscountStartsAt, c.DiscountEndsAt, now)
}

// SubCategory is a nested taxonomy node. ParentID links form a chain that is
// kept acyclic at write time.
type SubCategory struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID       *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	ParentID         *uuid.UUID      `gorm:"column:parent_id;type:uuid"`
	Name             string          `gorm:"column:name;not null"`
	DiscountPercent  decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	DiscountStartsAt *time.Time      `gorm:"column:discount_starts_at"`
	DiscountEndsAt   *time.Time      `gorm:"column:discount_ends_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// DiscountActiveAt reports whether the subcategory discount window covers now.
func (s SubCategory) DiscountActiveAt(now time.Time) bool {
	return discountWindowActive(s.DiscountStartsAt, s.DiscountEndsAt, now)
}

func discountWindowActive(startsAt, endsAt *time.Time, now time.Time) bool {
	if startsAt == nil || endsAt == nil {
		return false
	}
	return !now.Before(*startsAt) && !now.After(*endsAt)
}
