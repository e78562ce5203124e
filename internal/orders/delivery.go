package orders

import (
	"time"

	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/types"
)

const (
	standardDeliveryStart = 24 * time.Hour
	standardDeliveryEnd   = 96 * time.Hour
	expressDeliveryStart  = 12 * time.Hour
	expressDeliveryEnd    = 18 * time.Hour
	saturdayDelay         = 24 * time.Hour
	deliveryWindowBuffer  = 2 * time.Hour
)

// EstimateDeliveryWindow computes the delivered-by interval stamped on an
// order at confirmation. Express orders placed on a Saturday shift by a day
// because dispatch does not run on Saturdays.
func EstimateDeliveryWindow(now time.Time, tier enums.ShippingTier) types.DeliveryWindow {
	if tier == enums.ShippingTierExpress {
		start := now.Add(expressDeliveryStart)
		end := now.Add(expressDeliveryEnd)
		if now.Weekday() == time.Saturday {
			start = start.Add(saturdayDelay)
			end = end.Add(saturdayDelay)
		}
		return types.DeliveryWindow{StartsAt: start, EndsAt: end.Add(deliveryWindowBuffer)}
	}
	return types.DeliveryWindow{
		StartsAt: now.Add(standardDeliveryStart),
		EndsAt:   now.Add(standardDeliveryEnd).Add(deliveryWindowBuffer),
	}
}
