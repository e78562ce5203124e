package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mountemart/backend/api/responses"
	"github.com/mountemart/backend/api/validators"
	ordersvc "github.com/mountemart/backend/internal/orders"
	paymentsvc "github.com/mountemart/backend/internal/payments"
	"github.com/mountemart/backend/pkg/enums"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/logger"
)

type startCheckoutRequest struct {
	CouponCode  *string `json:"coupon_code,omitempty"`
	RewardCoins int     `json:"reward_coins" validate:"min=0"`
}

// CheckoutStart freezes the open cart into a pending order.
func CheckoutStart(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body startCheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.StartCheckout(r.Context(), ordersvc.StartCheckoutInput{
			UserID:      userID,
			CouponCode:  body.CouponCode,
			RewardCoins: body.RewardCoins,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutShippingRequest struct {
	DropLocationID uuid.UUID `json:"drop_location_id" validate:"required"`
	Tier           string    `json:"tier" validate:"required"`
}

// CheckoutShipping picks the destination and tier for the pending order and
// reprices the delivery charge.
func CheckoutShipping(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutShippingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParseShippingTier(body.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping tier"))
			return
		}

		order, err := svc.UpdateShipping(r.Context(), userID, body.DropLocationID, tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type checkoutCashbackRequest struct {
	Apply bool `json:"apply"`
}

// CheckoutCashback toggles the cashback flag on the pending order.
func CheckoutCashback(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutCashbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ToggleCashback(r.Context(), userID, body.Apply)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type confirmPaymentRequest struct {
	Method          string `json:"method" validate:"required"`
	TransactionID   string `json:"transaction_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

// CheckoutConfirm reconciles the payment and commits the pending order.
func CheckoutConfirm(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), paymentsvc.ConfirmInput{
			UserID:          userID,
			Method:          method,
			TransactionID:   body.TransactionID,
			PaymentMethodID: body.PaymentMethodID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
