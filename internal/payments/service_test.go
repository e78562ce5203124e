package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
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
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubEsewa struct {
	status esewa.Status
	refID  string
	err    error
}

func (s *stubEsewa) CheckStatus(context.Context, string, string, decimal.Decimal) (esewa.Status, string, error) {
	return s.status, s.refID, s.err
}

type stubKhalti struct {
	status        khalti.Status
	transactionID string
	err           error
}

func (s *stubKhalti) Lookup(context.Context, string) (khalti.Status, string, error) {
	return s.status, s.transactionID, s.err
}

type stubCard struct {
	createStatus  stripe.PaymentIntentStatus
	confirmStatus stripe.PaymentIntentStatus
	createErr     error
	confirmErr    error
}

func (s *stubCard) CreateIntent(context.Context, *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &stripe.PaymentIntent{ID: "pi_test", Status: s.createStatus}, nil
}

func (s *stubCard) ConfirmIntent(context.Context, string, *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &stripe.PaymentIntent{ID: "pi_test", Status: s.confirmStatus}, nil
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, uuid.UUID, string, string) error {
	s.calls++
	return s.err
}

type fixture struct {
	db       *gorm.DB
	svc      Service
	orders   orders.Repository
	lines    cart.Repository
	payments Repository
	esewa    *stubEsewa
	khalti   *stubKhalti
	card     *stubCard
	notifier *stubNotifier
	outbox   *stubOutbox
	userID   uuid.UUID
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.LineItem{},
		&models.Product{},
		&models.ProductVariation{},
		&models.Coupon{},
		&models.CouponRedemption{},
		&models.RewardAccount{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	couponSvc, err := coupons.NewService(coupons.NewRepository(db))
	if err != nil {
		t.Fatalf("coupons service: %v", err)
	}
	rewardSvc, err := rewards.NewService(rewards.NewRepository(db))
	if err != nil {
		t.Fatalf("rewards service: %v", err)
	}

	f := &fixture{
		db:       db,
		orders:   orders.NewRepository(db),
		lines:    cart.NewRepository(db),
		payments: NewRepository(db),
		esewa:    &stubEsewa{status: esewa.StatusComplete, refID: "ref-1"},
		khalti:   &stubKhalti{status: khalti.StatusCompleted, transactionID: "txn-1"},
		card:     &stubCard{createStatus: stripe.PaymentIntentStatusSucceeded},
		notifier: &stubNotifier{},
		outbox:   &stubOutbox{},
		userID:   uuid.New(),
	}

	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Orders:   f.orders,
		Lines:    f.lines,
		Stock:    catalog.NewRepository(db),
		Payments: f.payments,
		Coupons:  couponSvc,
		Rewards:  rewardSvc,
		Esewa:    f.esewa,
		Khalti:   f.khalti,
		Card:     f.card,
		Notifier: f.notifier,
		Tx:       testTxRunner{db: db},
		Outbox:   f.outbox,
		Checkout: config.CheckoutConfig{
			CODSurcharge:   10,
			GatewayTimeout: time.Second,
		},
		EsewaCfg: config.EsewaConfig{ProductCode: "EPAYTEST"},
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

// seedPendingOrder creates a Pending order with one attached line whose
// variation has the given stock.
func (f *fixture) seedPendingOrder(t *testing.T, price int64, qty, stock int) (*models.Order, *models.ProductVariation) {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Name: "product", BasePrice: decimal.NewFromInt(price), IsActive: true}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	variation := &models.ProductVariation{ID: uuid.New(), ProductID: product.ID, SKU: "SKU-" + uuid.NewString(), Stock: stock}
	if err := f.db.Create(variation).Error; err != nil {
		t.Fatalf("create variation: %v", err)
	}
	order := &models.Order{
		ID:           uuid.New(),
		Code:         "ORD" + uuid.NewString()[:4],
		UserID:       f.userID,
		Status:       enums.OrderStatusPending,
		Price:        decimal.NewFromInt(price),
		ShippingTier: enums.ShippingTierStandard,
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	item := &models.LineItem{
		ID:          uuid.New(),
		UserID:      f.userID,
		ProductID:   product.ID,
		VariationID: variation.ID,
		Quantity:    qty,
		OrderID:     &order.ID,
	}
	if err := f.db.Create(item).Error; err != nil {
		t.Fatalf("create line item: %v", err)
	}
	return order, variation
}

func TestConfirmPaymentCOD(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, variation := f.seedPendingOrder(t, 500, 2, 5)
	ctx := context.Background()

	confirmed, err := f.svc.ConfirmPayment(ctx, ConfirmInput{
		UserID: f.userID,
		Method: enums.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.OrderStatusProcessing || !confirmed.Confirmed {
		t.Fatalf("expected confirmed processing order, got %+v", confirmed)
	}
	if confirmed.IsPaid {
		t.Fatal("COD order must not be marked paid at confirmation")
	}
	if !confirmed.Price.Equal(decimal.NewFromInt(510)) {
		t.Fatalf("expected COD surcharge applied, got %s", confirmed.Price)
	}
	if confirmed.DeliveryStartsAt == nil || confirmed.DeliveryEndsAt == nil {
		t.Fatal("expected delivery window stamped")
	}

	var reloaded models.ProductVariation
	if err := f.db.First(&reloaded, "id = ?", variation.ID).Error; err != nil {
		t.Fatalf("reload variation: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", reloaded.Stock)
	}

	items, err := f.lines.FindByOrderID(ctx, order.ID)
	if err != nil {
		t.Fatalf("load lines: %v", err)
	}
	if len(items) != 1 || !items[0].Fulfilled {
		t.Fatalf("expected fulfilled line, got %+v", items)
	}

	payment, err := f.payments.FindByOrderID(ctx, order.ID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Method != enums.PaymentMethodCOD || !payment.Amount.Equal(decimal.NewFromInt(510)) {
		t.Fatalf("unexpected payment %+v", payment)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderConfirmed {
		t.Fatalf("expected order confirmed event, got %+v", f.outbox.events)
	}
	if f.notifier.calls != 1 {
		t.Fatalf("expected 1 notification, got %d", f.notifier.calls)
	}
}

func TestConfirmPaymentEsewaComplete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, _ := f.seedPendingOrder(t, 300, 1, 1)

	confirmed, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{
		UserID:        f.userID,
		Method:        enums.PaymentMethodEsewa,
		TransactionID: "esewa-uuid-1",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.IsPaid {
		t.Fatal("wallet order must be marked paid")
	}
	payment, err := f.payments.FindByOrderID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.ProviderRef == nil || *payment.ProviderRef != "ref-1" {
		t.Fatalf("expected provider ref recorded, got %+v", payment.ProviderRef)
	}
}

func TestConfirmPaymentEsewaPendingFailsClosed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPendingOrder(t, 300, 1, 1)
	f.esewa.status = esewa.StatusPending

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{
		UserID:        f.userID,
		Method:        enums.PaymentMethodEsewa,
		TransactionID: "esewa-uuid-1",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodePaymentNotConfirmed {
		t.Fatalf("expected payment not confirmed, got %v", err)
	}
	order, err := f.orders.FindPendingByUser(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("expected order still pending: %v", err)
	}
	if order.Confirmed {
		t.Fatal("order must not commit on pending gateway state")
	}
}

func TestConfirmPaymentGatewayTransportError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPendingOrder(t, 300, 1, 1)
	f.khalti.err = errors.New("connection reset")

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{
		UserID:        f.userID,
		Method:        enums.PaymentMethodKhalti,
		TransactionID: "pidx-1",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodePaymentNotConfirmed {
		t.Fatalf("expected fail closed on transport error, got %v", err)
	}
}

func TestConfirmPaymentInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, variation := f.seedPendingOrder(t, 300, 5, 2)
	ctx := context.Background()

	_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{
		UserID: f.userID,
		Method: enums.PaymentMethodCOD,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	reloaded, err := f.orders.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Confirmed || reloaded.Status != enums.OrderStatusPending {
		t.Fatalf("expected rollback to pending, got %+v", reloaded)
	}
	var v models.ProductVariation
	if err := f.db.First(&v, "id = ?", variation.ID).Error; err != nil {
		t.Fatalf("reload variation: %v", err)
	}
	if v.Stock != 2 {
		t.Fatalf("expected stock untouched, got %d", v.Stock)
	}
	if _, err := f.payments.FindByOrderID(ctx, order.ID); err == nil {
		t.Fatal("expected no payment row")
	}
}

func TestConfirmPaymentSecondCallFailsFast(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPendingOrder(t, 300, 1, 5)
	ctx := context.Background()

	if _, err := f.svc.ConfirmPayment(ctx, ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// Stock was only decremented once.
	var v models.ProductVariation
	if err := f.db.First(&v).Error; err != nil {
		t.Fatalf("reload variation: %v", err)
	}
	if v.Stock != 4 {
		t.Fatalf("expected stock 4, got %d", v.Stock)
	}
}

func TestConfirmPaymentCouponAlreadyUsedRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, _ := f.seedPendingOrder(t, 300, 1, 5)
	ctx := context.Background()

	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "ONCE",
		DiscountAmount: decimal.NewFromInt(50),
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	if err := f.db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	redemption := &models.CouponRedemption{
		ID:       uuid.New(),
		UserID:   f.userID,
		CouponID: coupon.ID,
		OrderID:  uuid.New(),
	}
	if err := f.db.Create(redemption).Error; err != nil {
		t.Fatalf("create redemption: %v", err)
	}
	if err := f.db.Model(order).Update("coupon_id", coupon.ID).Error; err != nil {
		t.Fatalf("bind coupon: %v", err)
	}

	_, err := f.svc.ConfirmPayment(ctx, ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCouponInvalid {
		t.Fatalf("expected coupon invalid, got %v", err)
	}
	reloaded, err := f.orders.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Confirmed {
		t.Fatal("expected rollback")
	}
}

func TestConfirmPaymentInsufficientCoinsRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, _ := f.seedPendingOrder(t, 300, 1, 5)
	if err := f.db.Model(order).Update("reward_coins_used", 20).Error; err != nil {
		t.Fatalf("bind coins: %v", err)
	}
	account := &models.RewardAccount{ID: uuid.New(), UserID: f.userID, DiamondCoins: 5}
	if err := f.db.Create(account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInsufficientCoins {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
	var reloaded models.RewardAccount
	if err := f.db.First(&reloaded, "id = ?", account.ID).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if reloaded.DiamondCoins != 5 {
		t.Fatalf("expected balance untouched, got %d", reloaded.DiamondCoins)
	}
}

func TestConfirmPaymentCard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPendingOrder(t, 300, 1, 5)

	confirmed, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{
		UserID:          f.userID,
		Method:          enums.PaymentMethodCard,
		PaymentMethodID: "pm_test",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.IsPaid {
		t.Fatal("card order must be marked paid")
	}
}

func TestConfirmPaymentCardFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPendingOrder(t, 300, 1, 5)
	f.card.createErr = errors.New("card declined")

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{
		UserID:          f.userID,
		Method:          enums.PaymentMethodCard,
		PaymentMethodID: "pm_test",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCardPaymentFailed {
		t.Fatalf("expected card payment failed, got %v", err)
	}
}

func TestConfirmPaymentCashbackRequiresWallet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, _ := f.seedPendingOrder(t, 300, 1, 5)
	if err := f.db.Model(order).Update("cashback_applied", true).Error; err != nil {
		t.Fatalf("apply cashback: %v", err)
	}

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfirmPaymentNotificationFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedPendingOrder(t, 300, 1, 5)
	f.notifier.err = errors.New("smtp down")

	confirmed, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD})
	if err != nil {
		t.Fatalf("confirm must succeed despite notification failure: %v", err)
	}
	if !confirmed.Confirmed {
		t.Fatal("expected confirmed order")
	}
}

func TestConfirmPaymentNoPendingOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmInput{UserID: f.userID, Method: enums.PaymentMethodCOD})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
