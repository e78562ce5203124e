package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
)

type orderResponse struct {
	ID               uuid.UUID            `json:"id"`
	Code             string               `json:"code"`
	Status           enums.OrderStatus    `json:"status"`
	Price            decimal.Decimal      `json:"price"`
	DeliveryCharge   decimal.Decimal      `json:"delivery_charge"`
	CouponID         *uuid.UUID           `json:"coupon_id,omitempty"`
	CashbackApplied  bool                 `json:"cashback_applied"`
	RewardCoinsUsed  int                  `json:"reward_coins_used"`
	DropLocationID   *uuid.UUID           `json:"drop_location_id,omitempty"`
	ShippingTier     enums.ShippingTier   `json:"shipping_tier"`
	IsPaid           bool                 `json:"is_paid"`
	PaymentMethod    *enums.PaymentMethod `json:"payment_method,omitempty"`
	DeliveryStartsAt *time.Time           `json:"delivery_starts_at,omitempty"`
	DeliveryEndsAt   *time.Time           `json:"delivery_ends_at,omitempty"`
	ConfirmedAt      *time.Time           `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	return orderResponse{
		ID:               order.ID,
		Code:             order.Code,
		Status:           order.Status,
		Price:            order.Price,
		DeliveryCharge:   order.DeliveryCharge,
		CouponID:         order.CouponID,
		CashbackApplied:  order.CashbackApplied,
		RewardCoinsUsed:  order.RewardCoinsUsed,
		DropLocationID:   order.DropLocationID,
		ShippingTier:     order.ShippingTier,
		IsPaid:           order.IsPaid,
		PaymentMethod:    order.PaymentMethod,
		DeliveryStartsAt: order.DeliveryStartsAt,
		DeliveryEndsAt:   order.DeliveryEndsAt,
		ConfirmedAt:      order.ConfirmedAt,
		CreatedAt:        order.CreatedAt,
	}
}

func newOrderListResponse(orders []models.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = newOrderResponse(&orders[i])
	}
	return out
}

type lineItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariationID uuid.UUID  `json:"variation_id"`
	Quantity    int        `json:"quantity"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newLineItemResponse(line *models.LineItem) lineItemResponse {
	return lineItemResponse{
		ID:          line.ID,
		ProductID:   line.ProductID,
		VariationID: line.VariationID,
		Quantity:    line.Quantity,
		OrderID:     line.OrderID,
		CreatedAt:   line.CreatedAt,
	}
}

type dropLocationResponse struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	District string    `json:"district"`
	City     string    `json:"city"`
	Street   string    `json:"street"`
	Phone    string    `json:"phone"`
}

func newDropLocationResponse(loc *models.DropLocation) dropLocationResponse {
	return dropLocationResponse{
		ID:       loc.ID,
		Label:    loc.Label,
		District: loc.District,
		City:     loc.City,
		Street:   loc.Street,
		Phone:    loc.Phone,
	}
}

type returnResponse struct {
	ID        uuid.UUID          `json:"id"`
	OrderID   uuid.UUID          `json:"order_id"`
	Reason    string             `json:"reason"`
	Status    enums.ReturnStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func newReturnResponse(req *models.ReturnRequest) returnResponse {
	return returnResponse{
		ID:        req.ID,
		OrderID:   req.OrderID,
		Reason:    req.Reason,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

func newReturnListResponse(reqs []models.ReturnRequest) []returnResponse {
	out := make([]returnResponse, len(reqs))
	for i := range reqs {
		out[i] = newReturnResponse(&reqs[i])
	}
	return out
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      *string    `json:"link,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type notificationListResponse struct {
	Items  []notificationResponse `json:"items"`
	Cursor string                 `json:"cursor"`
}

type variationResponse struct {
	ID      uuid.UUID `json:"id"`
	SKU     string    `json:"sku"`
	Size    *string   `json:"size,omitempty"`
	Color   *string   `json:"color,omitempty"`
	InStock bool      `json:"in_stock"`
}

type productResponse struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Description      *string             `json:"description,omitempty"`
	BasePrice        decimal.Decimal     `json:"base_price"`
	DiscountPercent  decimal.Decimal     `json:"discount_percent"`
	WeightKG         decimal.Decimal     `json:"weight_kg"`
	FreeDelivery     bool                `json:"free_delivery"`
	AgeRestricted    bool                `json:"age_restricted"`
	CashbackEligible bool                `json:"cashback_eligible"`
	Variations       []variationResponse `json:"variations"`
}

func newProductResponse(product *models.Product) productResponse {
	variations := make([]variationResponse, len(product.Variations))
	for i, v := range product.Variations {
		variations[i] = variationResponse{
			ID:      v.ID,
			SKU:     v.SKU,
			Size:    v.Size,
			Color:   v.Color,
			InStock: v.Stock > 0,
		}
	}
	return productResponse{
		ID:               product.ID,
		Name:             product.Name,
		Description:      product.Description,
		BasePrice:        product.BasePrice,
		DiscountPercent:  product.DiscountPercent,
		WeightKG:         product.WeightKG,
		FreeDelivery:     product.FreeDelivery,
		AgeRestricted:    product.AgeRestricted,
		CashbackEligible: product.CashbackEligible,
		Variations:       variations,
	}
}
