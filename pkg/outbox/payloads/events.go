package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/enums"
)

// OrderConfirmedEvent is emitted when payment reconciliation commits.
type OrderConfirmedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderCode     string              `json:"order_code"`
	UserID        uuid.UUID           `json:"user_id"`
	Price         decimal.Decimal     `json:"price"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ConfirmedAt   time.Time           `json:"confirmed_at"`
}

// OrderStatusChangedEvent mirrors admin-driven status transitions.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	OrderCode string            `json:"order_code"`
	UserID    uuid.UUID         `json:"user_id"`
	OldStatus enums.OrderStatus `json:"old_status"`
	NewStatus enums.OrderStatus `json:"new_status"`
}

// OrderCancelledEvent is emitted whenever a user cancels a pre-delivery order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// ReturnRequestedEvent signals a new return request on a delivered order.
type ReturnRequestedEvent struct {
	ReturnID  uuid.UUID `json:"return_id"`
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
}

// ReturnStatusChangedEvent mirrors admin updates of a return request.
type ReturnStatusChangedEvent struct {
	ReturnID  uuid.UUID          `json:"return_id"`
	OrderID   uuid.UUID          `json:"order_id"`
	UserID    uuid.UUID          `json:"user_id"`
	OldStatus enums.ReturnStatus `json:"old_status"`
	NewStatus enums.ReturnStatus `json:"new_status"`
}
