package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/enums"
)

// Payment is written only inside the confirmation transaction, so a row
// existing implies the order committed.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Method      enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	ProviderRef *string             `gorm:"column:provider_ref"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
