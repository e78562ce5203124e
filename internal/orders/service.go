package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/internal/cart"
	"github.com/mountemart/backend/internal/coupons"
	"github.com/mountemart/backend/internal/pricing"
	"github.com/mountemart/backend/internal/rewards"
	"github.com/mountemart/backend/internal/shipping"
	"github.com/mountemart/backend/pkg/config"
	dbpkg "github.com/mountemart/backend/pkg/db"
	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/outbox"
	"github.com/mountemart/backend/pkg/outbox/payloads"
)

const orderCodeUniqueAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type catalogLoader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type dropLocationLoader interface {
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.DropLocation, error)
}

type userLoader interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// StartCheckoutInput carries the optional adjustments applied when a
// Pending order is created from the cart.
type StartCheckoutInput struct {
	UserID      uuid.UUID
	CouponCode  *string
	RewardCoins int
}

// Service owns the order state machine. Status transitions happen only
// here and in payment reconciliation.
type Service interface {
	StartCheckout(ctx context.Context, input StartCheckoutInput) (*models.Order, error)
	UpdateShipping(ctx context.Context, userID, dropLocationID uuid.UUID, tier enums.ShippingTier) (*models.Order, error)
	ToggleCashback(ctx context.Context, userID uuid.UUID, apply bool) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) error
	AdminSetStatus(ctx context.Context, actorID, orderID uuid.UUID, newStatus enums.OrderStatus) (*models.Order, error)

	PendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	CurrentOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	TrackByCode(ctx context.Context, code, email string) (*models.Order, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
}

type service struct {
	repo    Repository
	lines   cart.Repository
	pricer  pricing.Service
	coupons coupons.Service
	rewards rewards.Service
	shipper shipping.Service
	catalog catalogLoader
	drops   dropLocationLoader
	users   userLoader
	tx      txRunner
	outbox  outboxPublisher
	cfg     config.CheckoutConfig
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams bundles the collaborators the order lifecycle needs.
type ServiceParams struct {
	Repo     Repository
	Lines    cart.Repository
	Pricer   pricing.Service
	Coupons  coupons.Service
	Rewards  rewards.Service
	Shipper  shipping.Service
	Catalog  catalogLoader
	Drops    dropLocationLoader
	Users    userLoader
	Tx       txRunner
	Outbox   outboxPublisher
	Checkout config.CheckoutConfig
	Logger   *logger.Logger
}

// NewService builds the order lifecycle service.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, errors.New("repository is required")
	case p.Lines == nil:
		return nil, errors.New("cart repository is required")
	case p.Pricer == nil:
		return nil, errors.New("pricing service is required")
	case p.Coupons == nil:
		return nil, errors.New("coupons service is required")
	case p.Rewards == nil:
		return nil, errors.New("rewards service is required")
	case p.Shipper == nil:
		return nil, errors.New("shipping service is required")
	case p.Catalog == nil:
		return nil, errors.New("catalog loader is required")
	case p.Drops == nil:
		return nil, errors.New("drop location loader is required")
	case p.Users == nil:
		return nil, errors.New("user loader is required")
	case p.Tx == nil:
		return nil, errors.New("transaction runner is required")
	case p.Outbox == nil:
		return nil, errors.New("outbox publisher is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &service{
		repo:    p.Repo,
		lines:   p.Lines,
		pricer:  p.Pricer,
		coupons: p.Coupons,
		rewards: p.Rewards,
		shipper: p.Shipper,
		catalog: p.Catalog,
		drops:   p.Drops,
		users:   p.Users,
		tx:      p.Tx,
		outbox:  p.Outbox,
		cfg:     p.Checkout,
		logg:    p.Logger,
		now:     time.Now,
	}, nil
}

// StartCheckout replaces any existing Pending order with a fresh one built
// from the open cart lines. Coupon and reward coin amounts adjust the price
// here; their consumption is deferred to payment confirmation.
func (s *service) StartCheckout(ctx context.Context, input StartCheckoutInput) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lines := s.lines.WithTx(tx)

		existing, err := repo.FindPendingByUser(ctx, input.UserID)
		if err == nil {
			if err := lines.DetachFromOrder(ctx, existing.ID); err != nil {
				return fmt.Errorf("detaching prior order lines: %w", err)
			}
			if err := repo.Delete(ctx, existing.ID); err != nil {
				return fmt.Errorf("deleting prior pending order: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("loading pending order: %w", err)
		}

		items, err := lines.FindOpenLines(ctx, input.UserID)
		if err != nil {
			return fmt.Errorf("loading cart lines: %w", err)
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		quote, err := s.pricer.QuoteForCheckout(ctx, items)
		if err != nil {
			return err
		}
		price := quote.FinalPrice

		var couponID *uuid.UUID
		if input.CouponCode != nil && *input.CouponCode != "" {
			coupon, err := s.coupons.Validate(ctx, input.UserID, *input.CouponCode)
			if err != nil {
				return err
			}
			price = price.Sub(coupon.DiscountAmount)
			couponID = &coupon.ID
		}

		if input.RewardCoins < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reward coins must not be negative")
		}
		if input.RewardCoins > 0 {
			if err := s.rewards.CheckSpend(ctx, input.UserID, input.RewardCoins); err != nil {
				return err
			}
			price = price.Sub(decimal.NewFromInt(int64(input.RewardCoins)))
		}
		if price.IsNegative() {
			price = decimal.Zero
		}

		order, err = s.createWithCode(ctx, repo, &models.Order{
			ID:              uuid.New(),
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			Price:           price,
			CouponID:        couponID,
			RewardCoinsUsed: input.RewardCoins,
			ShippingTier:    enums.ShippingTierStandard,
		})
		if err != nil {
			return err
		}
		if err := lines.AttachToOrder(ctx, input.UserID, order.ID); err != nil {
			return fmt.Errorf("attaching cart lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID,
		"order_code": order.Code,
	})
	s.logg.Info(ctx, "checkout started")
	return order, nil
}

func (s *service) createWithCode(ctx context.Context, repo Repository, order *models.Order) (*models.Order, error) {
	for attempt := 0; attempt < orderCodeUniqueAttempts; attempt++ {
		code, err := GenerateCode(s.cfg.OrderCodeLength)
		if err != nil {
			return nil, err
		}
		order.Code = code
		err = repo.Create(ctx, order)
		if err == nil {
			return order, nil
		}
		if !dbpkg.IsUniqueViolation(err, "idx_orders_code") {
			return nil, fmt.Errorf("creating order: %w", err)
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique order code")
}

// UpdateShipping binds a drop location and tier to the Pending order and
// adds the computed charge. The transition is single-use; recomputing on an
// order that already has a destination would double-add the charge.
func (s *service) UpdateShipping(ctx context.Context, userID, dropLocationID uuid.UUID, tier enums.ShippingTier) (*models.Order, error) {
	order, err := s.pendingOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	if order.DropLocationID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping already set for this order")
	}

	location, err := s.drops.FindForUser(ctx, dropLocationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "drop location not found")
		}
		return nil, fmt.Errorf("loading drop location: %w", err)
	}

	shippingLines, err := s.shippingLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	quote, err := s.shipper.Quote(ctx, shippingLines, shipping.Destination{
		District: location.District,
		City:     location.City,
	}, tier)
	if err != nil {
		return nil, err
	}

	order.DropLocationID = &location.ID
	order.ShippingTier = tier
	order.DeliveryCharge = quote.Charge
	order.Price = order.Price.Add(quote.Charge)
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}
	return order, nil
}

func (s *service) shippingLines(ctx context.Context, orderID uuid.UUID) ([]shipping.Line, error) {
	items, err := s.lines.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]shipping.Line, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		out = append(out, shipping.Line{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     item.Quantity,
			WeightKG:     product.WeightKG,
			FreeDelivery: product.FreeDelivery,
		})
	}
	return out, nil
}

// ToggleCashback applies or removes the flat cashback deduction on the
// Pending order. Reversible until confirmation.
func (s *service) ToggleCashback(ctx context.Context, userID uuid.UUID, apply bool) (*models.Order, error) {
	order, err := s.pendingOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	amount := decimal.NewFromInt(s.cfg.CashbackAmount)

	if apply {
		if order.CashbackApplied {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cashback already applied")
		}
		user, err := s.users.FindUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("loading user: %w", err)
		}
		if !user.CashbackEnabled {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashback is not enabled for this account")
		}
		if order.Price.LessThan(decimal.NewFromInt(s.cfg.CashbackMinPrice)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total is below the cashback minimum").
				WithDetails(map[string]any{"minimum": s.cfg.CashbackMinPrice})
		}
		order.Price = order.Price.Sub(amount)
		order.CashbackApplied = true
	} else {
		if !order.CashbackApplied {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cashback is not applied")
		}
		order.Price = order.Price.Add(amount)
		order.CashbackApplied = false
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}
	return order, nil
}

// Cancel performs the user-initiated Processing/Shipped → Cancelled
// transition. Stock is not restored.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return fmt.Errorf("loading order: %w", err)
	}
	if order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).UpdateStatusIf(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusShipped},
			enums.OrderStatusCancelled)
		if err != nil {
			return fmt.Errorf("cancelling order: %w", err)
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled in its current state").
				WithDetails(map[string]any{"status": order.Status})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderCode:   order.Code,
				UserID:      order.UserID,
				CancelledAt: s.now(),
			},
		})
	})
}

// AdminSetStatus applies an operator-driven status change. Delivered
// triggers reward accrual and settles cash-on-delivery payments.
func (s *service) AdminSetStatus(ctx context.Context, actorID, orderID uuid.UUID, newStatus enums.OrderStatus) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": string(newStatus)})
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("loading order: %w", err)
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
			WithDetails(map[string]any{"status": order.Status})
	}
	if newStatus == enums.OrderStatusCancelled && !order.Status.Cancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled in its current state").
			WithDetails(map[string]any{"status": order.Status})
	}

	oldStatus := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order.Status = newStatus
		if newStatus == enums.OrderStatusDelivered {
			if order.PaymentMethod != nil && *order.PaymentMethod == enums.PaymentMethodCOD {
				order.IsPaid = true
			}
			if err := s.rewards.AccrueOnDelivery(ctx, tx, order.UserID, order.Price); err != nil {
				return err
			}
		}
		if err := repo.Save(ctx, order); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				OrderCode: order.Code,
				UserID:    order.UserID,
				OldStatus: oldStatus,
				NewStatus: newStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) PendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	return s.pendingOrder(ctx, userID)
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListByStatuses(ctx, userID, []enums.OrderStatus{enums.OrderStatusDelivered})
}

func (s *service) CurrentOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListByStatuses(ctx, userID, []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusOutForDelivery,
	})
}

func (s *service) TrackByCode(ctx context.Context, code, email string) (*models.Order, error) {
	order, err := s.repo.FindByCodeForEmail(ctx, code, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("loading order: %w", err)
	}
	return order, nil
}

func (s *service) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	order, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("loading order: %w", err)
	}
	return order, nil
}

func (s *service) pendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindPendingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending order")
		}
		return nil, fmt.Errorf("loading pending order: %w", err)
	}
	return order, nil
}
