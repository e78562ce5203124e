package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:coupons_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Coupon{},
		&models.CouponRedemption{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, code string, expiresAt time.Time) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           code,
		DiscountAmount: decimal.NewFromInt(50),
		ExpiresAt:      expiresAt,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	return coupon
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestValidateHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seeded := seedCoupon(t, db, "SAVE50", time.Now().Add(24*time.Hour))
	svc := newTestService(t, db)

	coupon, err := svc.Validate(context.Background(), uuid.New(), "SAVE50")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if coupon.ID != seeded.ID {
		t.Fatalf("expected coupon %s, got %s", seeded.ID, coupon.ID)
	}
	if !coupon.DiscountAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected discount amount %s", coupon.DiscountAmount)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Validate(context.Background(), uuid.New(), "NOPE")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCouponInvalid {
		t.Fatalf("expected coupon invalid, got %v", err)
	}
}

func TestValidateExpiredCoupon(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedCoupon(t, db, "OLD", time.Now().Add(-time.Hour))
	svc := newTestService(t, db)

	_, err := svc.Validate(context.Background(), uuid.New(), "OLD")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCouponInvalid {
		t.Fatalf("expected coupon invalid, got %v", err)
	}
}

func TestValidateAlreadyRedeemed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	coupon := seedCoupon(t, db, "ONCE", time.Now().Add(24*time.Hour))
	svc := newTestService(t, db)
	userID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Redeem(context.Background(), tx, userID, coupon.ID, uuid.New())
	})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	_, err = svc.Validate(context.Background(), userID, "ONCE")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCouponInvalid {
		t.Fatalf("expected coupon invalid, got %v", err)
	}

	// A different user is unaffected.
	if _, err := svc.Validate(context.Background(), uuid.New(), "ONCE"); err != nil {
		t.Fatalf("validate for other user: %v", err)
	}
}

func TestRedeemRequiresTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	err := svc.Redeem(context.Background(), nil, uuid.New(), uuid.New(), uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRedeemDuplicateIsCouponInvalid(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	coupon := seedCoupon(t, db, "RACE", time.Now().Add(24*time.Hour))
	svc := newTestService(t, db)
	userID := uuid.New()

	redeem := func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			return svc.Redeem(context.Background(), tx, userID, coupon.ID, uuid.New())
		})
	}
	if err := redeem(); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	err := redeem()
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCouponInvalid {
		t.Fatalf("expected coupon invalid on duplicate, got %v", err)
	}
}
