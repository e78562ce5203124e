package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/enums"
)

// Order is the checkout aggregate. One Pending order exists per user at a
// time; price fields are mutable until Confirmed flips.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string              `gorm:"column:code;not null;uniqueIndex"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	Price            decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	DeliveryCharge   decimal.Decimal     `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	CouponID         *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CashbackApplied  bool                `gorm:"column:cashback_applied;not null;default:false"`
	RewardCoinsUsed  int                 `gorm:"column:reward_coins_used;not null;default:0"`
	DropLocationID   *uuid.UUID          `gorm:"column:drop_location_id;type:uuid"`
	ShippingTier     enums.ShippingTier  `gorm:"column:shipping_tier;type:shipping_tier;not null;default:'Standard'"`
	Confirmed        bool                `gorm:"column:confirmed;not null;default:false"`
	IsPaid           bool                `gorm:"column:is_paid;not null;default:false"`
	PaymentMethod    *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	DeliveryStartsAt *time.Time          `gorm:"column:delivery_starts_at"`
	DeliveryEndsAt   *time.Time          `gorm:"column:delivery_ends_at"`
	ConfirmedAt      *time.Time          `gorm:"column:confirmed_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
