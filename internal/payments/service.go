package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/mountemart/backend/internal/cart"
	"github.com/mountemart/backend/internal/catalog"
	"github.com/mountemart/backend/internal/coupons"
	"github.com/mountemart/backend/internal/orders"
	"github.com/mountemart/backend/internal/rewards"
	"github.com/mountemart/backend/pkg/config"
	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/esewa"
	"github.com/mountemart/backend/pkg/khalti"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/outbox"
	"github.com/mountemart/backend/pkg/outbox/payloads"
)

const paymentCurrency = "npr"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	// EmitIfNotExists is used for order confirmation, where provider
	// callbacks may replay the same confirmation.
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier records a user-facing notification. Failures are logged, never
// surfaced; the payment has already committed by the time this runs.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string) error
}

// ConfirmInput identifies the pending order's payment proof.
type ConfirmInput struct {
	UserID uuid.UUID
	Method enums.PaymentMethod
	// TransactionID is the eSewa transaction UUID or the Khalti pidx.
	TransactionID string
	// PaymentMethodID is the tokenized Stripe payment method for card.
	PaymentMethodID string
}

// Service reconciles external payment state and commits the order.
type Service interface {
	ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error)
}

type service struct {
	orders   orders.Repository
	lines    cart.Repository
	stock    catalog.Repository
	payments Repository
	coupons  coupons.Service
	rewards  rewards.Service
	esewa    EsewaGateway
	khalti   KhaltiGateway
	card     CardGateway
	notifier Notifier
	tx       txRunner
	outbox   outboxPublisher
	cfg      config.CheckoutConfig
	esewaCfg config.EsewaConfig
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the reconciler's collaborators.
type ServiceParams struct {
	Orders   orders.Repository
	Lines    cart.Repository
	Stock    catalog.Repository
	Payments Repository
	Coupons  coupons.Service
	Rewards  rewards.Service
	Esewa    EsewaGateway
	Khalti   KhaltiGateway
	Card     CardGateway
	Notifier Notifier
	Tx       txRunner
	Outbox   outboxPublisher
	Checkout config.CheckoutConfig
	EsewaCfg config.EsewaConfig
	Logger   *logger.Logger
}

// NewService builds the payment reconciler.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Orders == nil:
		return nil, errors.New("orders repository is required")
	case p.Lines == nil:
		return nil, errors.New("cart repository is required")
	case p.Stock == nil:
		return nil, errors.New("catalog repository is required")
	case p.Payments == nil:
		return nil, errors.New("payments repository is required")
	case p.Coupons == nil:
		return nil, errors.New("coupons service is required")
	case p.Rewards == nil:
		return nil, errors.New("rewards service is required")
	case p.Tx == nil:
		return nil, errors.New("transaction runner is required")
	case p.Outbox == nil:
		return nil, errors.New("outbox publisher is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &service{
		orders:   p.Orders,
		lines:    p.Lines,
		stock:    p.Stock,
		payments: p.Payments,
		coupons:  p.Coupons,
		rewards:  p.Rewards,
		esewa:    p.Esewa,
		khalti:   p.Khalti,
		card:     p.Card,
		notifier: p.Notifier,
		tx:       p.Tx,
		outbox:   p.Outbox,
		cfg:      p.Checkout,
		esewaCfg: p.EsewaCfg,
		logg:     p.Logger,
		now:      time.Now,
	}, nil
}

// ConfirmPayment validates the external payment, then commits the order in
// one transaction: payment row, Pending → Processing flip, coupon
// redemption, coin debit, stock decrement, line fulfilment. Gateway calls
// run before the transaction under a bounded timeout; a timeout fails
// closed with PaymentNotConfirmed.
func (s *service) ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"method": string(input.Method)})
	}

	order, err := s.orders.FindPendingByUser(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending order to confirm")
		}
		return nil, fmt.Errorf("loading pending order: %w", err)
	}
	if order.CashbackApplied && !input.Method.IsWallet() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashback requires a wallet payment method")
	}

	amount := order.Price
	isPaid := true
	if input.Method == enums.PaymentMethodCOD {
		amount = amount.Add(decimal.NewFromInt(s.cfg.CODSurcharge))
		isPaid = false
	}

	providerRef, err := s.validateWithProvider(ctx, input, amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	window := orders.EstimateDeliveryWindow(now, order.ShippingTier)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersTx := s.orders.WithTx(tx)
		ok, err := ordersTx.ConfirmPending(ctx, order.ID, input.Method, isPaid, now, window)
		if err != nil {
			return fmt.Errorf("confirming order: %w", err)
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already confirmed")
		}
		if !amount.Equal(order.Price) {
			if err := ordersTx.UpdatePrice(ctx, order.ID, amount); err != nil {
				return fmt.Errorf("applying surcharge: %w", err)
			}
		}

		if order.CouponID != nil {
			if err := s.coupons.Redeem(ctx, tx, order.UserID, *order.CouponID, order.ID); err != nil {
				return err
			}
		}
		if order.RewardCoinsUsed > 0 {
			if err := s.rewards.Debit(ctx, tx, order.UserID, order.RewardCoinsUsed); err != nil {
				return err
			}
		}

		items, err := s.lines.WithTx(tx).FindByOrderID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("loading order lines: %w", err)
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no line items")
		}
		stock := s.stock.WithTx(tx)
		for _, item := range items {
			ok, err := stock.DecrementStock(ctx, item.VariationID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrementing stock: %w", err)
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock to fulfil the order").
					WithDetails(map[string]any{
						"variation_id": item.VariationID,
						"quantity":     item.Quantity,
					})
			}
		}
		if err := s.lines.WithTx(tx).MarkFulfilled(ctx, order.ID); err != nil {
			return fmt.Errorf("marking lines fulfilled: %w", err)
		}

		if err := s.payments.WithTx(tx).Create(ctx, &models.Payment{
			ID:          uuid.New(),
			OrderID:     order.ID,
			UserID:      order.UserID,
			Method:      input.Method,
			Amount:      amount,
			ProviderRef: providerRef,
		}); err != nil {
			return fmt.Errorf("recording payment: %w", err)
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID},
			Data: payloads.OrderConfirmedEvent{
				OrderID:       order.ID,
				OrderCode:     order.Code,
				UserID:        order.UserID,
				Price:         amount,
				PaymentMethod: input.Method,
				ConfirmedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		message := fmt.Sprintf("Your order %s has been placed.", order.Code)
		if err := s.notifier.Notify(ctx, order.UserID, "Order Placed!", message); err != nil {
			s.logg.Error(ctx, "order confirmation notification failed", err)
		}
	}

	confirmed, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading order: %w", err)
	}
	return confirmed, nil
}

func (s *service) validateWithProvider(ctx context.Context, input ConfirmInput, amount decimal.Decimal) (*string, error) {
	switch input.Method {
	case enums.PaymentMethodCOD:
		return nil, nil
	case enums.PaymentMethodEsewa:
		return s.validateEsewa(ctx, input.TransactionID, amount)
	case enums.PaymentMethodKhalti:
		return s.validateKhalti(ctx, input.TransactionID)
	case enums.PaymentMethodCard:
		return s.authorizeCard(ctx, input.PaymentMethodID, amount)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
}

func (s *service) validateEsewa(ctx context.Context, transactionUUID string, amount decimal.Decimal) (*string, error) {
	if s.esewa == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "esewa gateway is not configured")
	}
	if transactionUUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	status, refID, err := s.esewa.CheckStatus(gctx, s.esewaCfg.ProductCode, transactionUUID, amount)
	if err != nil {
		s.logg.Error(ctx, "esewa status check failed", err)
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed, "payment could not be verified")
	}
	switch status {
	case esewa.StatusComplete:
		return &refID, nil
	case esewa.StatusPending:
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed, "payment is still pending")
	default:
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed, "payment was not completed")
	}
}

func (s *service) validateKhalti(ctx context.Context, pidx string) (*string, error) {
	if s.khalti == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "khalti gateway is not configured")
	}
	if pidx == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	status, transactionID, err := s.khalti.Lookup(gctx, pidx)
	if err != nil {
		s.logg.Error(ctx, "khalti lookup failed", err)
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed, "payment could not be verified")
	}
	switch status {
	case khalti.StatusCompleted:
		return &transactionID, nil
	case khalti.StatusPending:
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed, "payment is still pending")
	default:
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed, "payment was not completed")
	}
}

// authorizeCard runs the create-intent / confirm chain. Any failure at any
// step fails the whole confirmation; Stripe owns whatever partial state the
// provider already committed.
func (s *service) authorizeCard(ctx context.Context, paymentMethodID string, amount decimal.Decimal) (*string, error) {
	if s.card == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card gateway is not configured")
	}
	if paymentMethodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	minorUnits := amount.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.card.CreateIntent(gctx, &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(minorUnits),
		Currency:      stripe.String(paymentCurrency),
		PaymentMethod: stripe.String(paymentMethodID),
	})
	if err != nil {
		s.logg.Error(ctx, "stripe intent creation failed", err)
		return nil, pkgerrors.New(pkgerrors.CodeCardPaymentFailed, "card payment failed")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		intent, err = s.card.ConfirmIntent(gctx, intent.ID, &stripe.PaymentIntentConfirmParams{})
		if err != nil {
			s.logg.Error(ctx, "stripe intent confirmation failed", err)
			return nil, pkgerrors.New(pkgerrors.CodeCardPaymentFailed, "card payment failed")
		}
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeCardPaymentFailed, "card payment failed").
			WithDetails(map[string]any{"status": string(intent.Status)})
	}
	return &intent.ID, nil
}
