package coupons

import (
	"errors"
	"fmt"
	"time"

	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mountemart/backend/pkg/db"
	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

const redemptionUniqueIndex = "idx_coupon_redemptions_user_coupon"

// Service validates coupons at quote time and redeems them inside the
// payment confirmation transaction.
type Service interface {
	Validate(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, userID, couponID, orderID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the coupons service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Validate checks the coupon exists, is not expired, and has not been
// redeemed by this user. The existence check here is advisory only; Redeem
// is what closes the race.
func (s *service) Validate(ctx context.Context, userID uuid.UUID, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "invalid coupon code")
		}
		return nil, fmt.Errorf("loading coupon: %w", err)
	}
	if coupon.ExpiredAt(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon has expired")
	}
	used, err := s.repo.HasRedemption(ctx, userID, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("checking redemption: %w", err)
	}
	if used {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon already used")
	}
	return coupon, nil
}

// Redeem records the (user, coupon) pair. The unique index is the actual
// at-most-once guard; a duplicate insert from a concurrent confirmation
// surfaces as CouponInvalid.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, userID, couponID, orderID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for coupon redemption")
	}
	redemption := &models.CouponRedemption{
		ID:       uuid.New(),
		UserID:   userID,
		CouponID: couponID,
		OrderID:  orderID,
	}
	if err := s.repo.WithTx(tx).CreateRedemption(ctx, redemption); err != nil {
		if dbpkg.IsUniqueViolation(err, redemptionUniqueIndex) {
			return pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon already used")
		}
		return fmt.Errorf("recording coupon redemption: %w", err)
	}
	return nil
}
