package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/internal/cart"
	"github.com/mountemart/backend/internal/orders"
	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/types"
)

func TestOrderTTLJobExpiresStalePendingOrder(t *testing.T) {
	now := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)
	order := models.Order{
		ID:        uuid.New(),
		Status:    enums.OrderStatusPending,
		Confirmed: false,
	}
	ordersRepo := &fakeOrderTTLOrders{
		stale:  []models.Order{order},
		byID:   map[uuid.UUID]*models.Order{order.ID: &order},
		cutoff: now.Add(-orderExpirationHours * time.Hour),
	}
	linesRepo := &fakeOrderTTLLines{}
	job := newOrderTTLJob(t, ordersRepo, linesRepo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(linesRepo.detached) != 1 || linesRepo.detached[0] != order.ID {
		t.Fatalf("expected lines detached for %s, got %v", order.ID, linesRepo.detached)
	}
	if len(ordersRepo.deleted) != 1 || ordersRepo.deleted[0] != order.ID {
		t.Fatalf("expected order %s deleted, got %v", order.ID, ordersRepo.deleted)
	}
}

func TestOrderTTLJobSkipsOrderConfirmedMeanwhile(t *testing.T) {
	now := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)
	stale := models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}
	confirmed := stale
	confirmed.Status = enums.OrderStatusProcessing
	confirmed.Confirmed = true
	ordersRepo := &fakeOrderTTLOrders{
		stale:  []models.Order{stale},
		byID:   map[uuid.UUID]*models.Order{stale.ID: &confirmed},
		cutoff: now.Add(-orderExpirationHours * time.Hour),
	}
	linesRepo := &fakeOrderTTLLines{}
	job := newOrderTTLJob(t, ordersRepo, linesRepo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(linesRepo.detached) != 0 {
		t.Fatalf("expected no detach, got %v", linesRepo.detached)
	}
	if len(ordersRepo.deleted) != 0 {
		t.Fatalf("expected no delete, got %v", ordersRepo.deleted)
	}
}

func TestOrderTTLJobPropagatesQueryError(t *testing.T) {
	ordersRepo := &fakeOrderTTLOrders{staleErr: errors.New("boom")}
	job := newOrderTTLJob(t, ordersRepo, &fakeOrderTTLLines{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newOrderTTLJob(t *testing.T, ordersRepo orders.Repository, linesRepo cart.Repository) *orderTTLJob {
	t.Helper()
	jobIface, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     orderTTLFakeTxRunner{},
		Orders: ordersRepo,
		Lines:  linesRepo,
	})
	if err != nil {
		t.Fatalf("NewOrderTTLJob: %v", err)
	}
	job, ok := jobIface.(*orderTTLJob)
	if !ok {
		t.Fatalf("expected orderTTLJob, got %T", jobIface)
	}
	return job
}

type orderTTLFakeTxRunner struct{}

func (orderTTLFakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrderTTLOrders struct {
	stale    []models.Order
	staleErr error
	byID     map[uuid.UUID]*models.Order
	cutoff   time.Time
	deleted  []uuid.UUID
}

func (f *fakeOrderTTLOrders) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderTTLOrders) FindStalePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	if f.staleErr != nil {
		return nil, f.staleErr
	}
	if !f.cutoff.IsZero() && !cutoff.Equal(f.cutoff) {
		return nil, errors.New("unexpected cutoff")
	}
	return f.stale, nil
}

func (f *fakeOrderTTLOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeOrderTTLOrders) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOrderTTLOrders) Create(ctx context.Context, order *models.Order) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) Save(ctx context.Context, order *models.Order) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) FindByCodeForEmail(ctx context.Context, code, email string) (*models.Order, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) ListByStatuses(ctx context.Context, userID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLOrders) ConfirmPending(ctx context.Context, id uuid.UUID, method enums.PaymentMethod, isPaid bool, confirmedAt time.Time, window types.DeliveryWindow) (bool, error) {
	panic("unimplemented")
}

type fakeOrderTTLLines struct {
	detached []uuid.UUID
}

func (f *fakeOrderTTLLines) WithTx(tx *gorm.DB) cart.Repository { return f }

func (f *fakeOrderTTLLines) DetachFromOrder(ctx context.Context, orderID uuid.UUID) error {
	f.detached = append(f.detached, orderID)
	return nil
}

func (f *fakeOrderTTLLines) FindOpenLines(ctx context.Context, userID uuid.UUID) ([]models.LineItem, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) FindOpenLineByVariation(ctx context.Context, userID, variationID uuid.UUID) (*models.LineItem, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) FindByID(ctx context.Context, id uuid.UUID) (*models.LineItem, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LineItem, error) {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) Create(ctx context.Context, item *models.LineItem) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) AttachToOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	panic("unimplemented")
}

func (f *fakeOrderTTLLines) MarkFulfilled(ctx context.Context, orderID uuid.UUID) error {
	panic("unimplemented")
}
