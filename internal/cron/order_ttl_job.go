package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/internal/cart"
	"github.com/mountemart/backend/internal/orders"
	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/logger"
)

const orderExpirationHours = 48

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderTTLJobParams configure the abandoned checkout sweeper.
type OrderTTLJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Orders   orders.Repository
	Lines    cart.Repository
	TTLHours int
}

// NewOrderTTLJob builds the cron job that expires abandoned checkouts. An
// unconfirmed Pending order older than the TTL is deleted and its line items
// go back to the open cart.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Lines == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	ttl := params.TTLHours
	if ttl <= 0 {
		ttl = orderExpirationHours
	}
	return &orderTTLJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		lines:  params.Lines,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	db     txRunner
	orders orders.Repository
	lines  cart.Repository
	ttl    int
	now    func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.ttl) * time.Hour)
	stale, err := j.orders.FindStalePendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}
	count := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order.ID); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"ttl_hours": j.ttl,
		"count":     count,
	})
	j.logg.Info(logCtx, "abandoned checkout sweep complete")
	return nil
}

func (j *orderTTLJob) expireOrder(ctx context.Context, orderID uuid.UUID) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)
		current, err := repo.FindByID(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		// Re-check under the transaction; the order may have been confirmed
		// between the sweep query and now.
		if current.Status != enums.OrderStatusPending || current.Confirmed {
			return nil
		}
		if err := j.lines.WithTx(tx).DetachFromOrder(ctx, orderID); err != nil {
			return fmt.Errorf("detaching order lines: %w", err)
		}
		if err := repo.Delete(ctx, orderID); err != nil {
			return fmt.Errorf("deleting expired order: %w", err)
		}
		return nil
	})
}
