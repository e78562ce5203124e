package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/mountemart/backend/pkg/db/types"
)

// ComboDiscount applies a percentage cut to every listed product when the
// whole product set co-occurs in one cart. Match order is creation order.
type ComboDiscount struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	DiscountPercent decimal.Decimal   `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	ProductIDs      dbtypes.UUIDArray `gorm:"column:product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
