package models

import (
	"time"

	"github.com/google/uuid"
)

// LineItem associates a user with a product variation and quantity. A nil
// OrderID means the line still sits in the cart; Fulfilled flips once the
// owning order's payment is confirmed. At most one open cart line exists per
// (user, variation), enforced by a partial unique index.
type LineItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariationID uuid.UUID  `gorm:"column:variation_id;type:uuid;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	OrderID     *uuid.UUID `gorm:"column:order_id;type:uuid;index"`
	Fulfilled   bool       `gorm:"column:fulfilled;not null;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// InCart reports whether the line is still editable cart state.
func (l LineItem) InCart() bool {
	return l.OrderID == nil && !l.Fulfilled
}
