package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a flat-amount discount code with an expiry.
type Coupon struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string          `gorm:"column:code;not null;uniqueIndex"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	ExpiresAt      time.Time       `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpiredAt reports whether the coupon is past expiry at now.
func (c Coupon) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CouponRedemption records a consumed coupon. The (user_id, coupon_id)
// unique index is the at-most-once guard for concurrent redemption.
type CouponRedemption struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_coupon_redemptions_user_coupon"`
	CouponID  uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;uniqueIndex:idx_coupon_redemptions_user_coupon"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
