package rewards

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:rewards_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.RewardAccount{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedAccount(t *testing.T, db *gorm.DB, userID uuid.UUID, diamond int) {
	t.Helper()
	account := &models.RewardAccount{
		ID:           uuid.New(),
		UserID:       userID,
		DiamondCoins: diamond,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
}

func TestEnsureAccountCreatesOnFirstTouch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()

	account, err := svc.EnsureAccount(context.Background(), userID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if account.UserID != userID {
		t.Fatalf("expected account for %s, got %s", userID, account.UserID)
	}
	if account.SilverCoins != 0 || account.GoldCoins != 0 || account.DiamondCoins != 0 {
		t.Fatalf("expected empty balances, got %+v", account)
	}

	again, err := svc.EnsureAccount(context.Background(), userID)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ID != account.ID {
		t.Fatalf("expected same account, got %s and %s", account.ID, again.ID)
	}
}

func TestCheckSpendInsufficientCoins(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()
	seedAccount(t, db, userID, 3)

	if err := svc.CheckSpend(context.Background(), userID, 3); err != nil {
		t.Fatalf("check within balance: %v", err)
	}
	err := svc.CheckSpend(context.Background(), userID, 4)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInsufficientCoins {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
}

func TestDebitConditional(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	userID := uuid.New()
	seedAccount(t, db, userID, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Debit(context.Background(), tx, userID, 5)
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}

	var account models.RewardAccount
	if err := db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if account.DiamondCoins != 0 {
		t.Fatalf("expected 0 diamond coins, got %d", account.DiamondCoins)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Debit(context.Background(), tx, userID, 1)
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInsufficientCoins {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
}

func TestDebitZeroIsNoop(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	if err := svc.Debit(context.Background(), nil, uuid.New(), 0); err != nil {
		t.Fatalf("zero debit: %v", err)
	}
}

func TestDebitRequiresTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	err := svc.Debit(context.Background(), nil, uuid.New(), 1)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAccrueOnDeliveryBrackets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		price   decimal.Decimal
		silver  int
		gold    int
		diamond int
	}{
		{name: "below silver floor", price: decimal.NewFromInt(999)},
		{name: "silver floor", price: decimal.NewFromInt(1000), silver: 1},
		{name: "silver ceiling exclusive", price: decimal.NewFromInt(4999), silver: 1},
		{name: "gold floor", price: decimal.NewFromInt(5000), gold: 1},
		{name: "gold ceiling exclusive", price: decimal.NewFromInt(14999), gold: 1},
		{name: "bracket gap earns nothing", price: decimal.NewFromInt(20000)},
		{name: "diamond floor", price: decimal.NewFromInt(50000), diamond: 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db := newTestDB(t)
			svc := newTestService(t, db)
			userID := uuid.New()

			err := db.Transaction(func(tx *gorm.DB) error {
				return svc.AccrueOnDelivery(context.Background(), tx, userID, tc.price)
			})
			if err != nil {
				t.Fatalf("accrue: %v", err)
			}

			account, err := svc.Balance(context.Background(), userID)
			if err != nil {
				t.Fatalf("balance: %v", err)
			}
			if account.SilverCoins != tc.silver || account.GoldCoins != tc.gold || account.DiamondCoins != tc.diamond {
				t.Fatalf("expected %d/%d/%d, got %d/%d/%d",
					tc.silver, tc.gold, tc.diamond,
					account.SilverCoins, account.GoldCoins, account.DiamondCoins)
			}
		})
	}
}
