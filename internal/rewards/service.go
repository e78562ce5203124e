package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

// Delivery accrual brackets on the order price. The gap between the gold
// and diamond brackets is intentional and earns nothing.
var (
	silverFloor   = decimal.NewFromInt(1000)
	silverCeiling = decimal.NewFromInt(5000)
	goldCeiling   = decimal.NewFromInt(15000)
	diamondFloor  = decimal.NewFromInt(50000)
)

// Service manages reward coin accounts. Diamond coins are the only
// spendable denomination at checkout.
type Service interface {
	EnsureAccount(ctx context.Context, userID uuid.UUID) (*models.RewardAccount, error)
	Balance(ctx context.Context, userID uuid.UUID) (*models.RewardAccount, error)
	CheckSpend(ctx context.Context, userID uuid.UUID, coins int) error
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, coins int) error
	AccrueOnDelivery(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderPrice decimal.Decimal) error
}

type service struct {
	repo Repository
}

// NewService builds the rewards service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	return &service{repo: repo}, nil
}

// EnsureAccount returns the user's reward account, creating an empty one
// on first touch.
func (s *service) EnsureAccount(ctx context.Context, userID uuid.UUID) (*models.RewardAccount, error) {
	account, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading reward account: %w", err)
	}
	account = &models.RewardAccount{
		ID:     uuid.New(),
		UserID: userID,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		// A concurrent first touch may have won the insert.
		existing, findErr := s.repo.FindByUserID(ctx, userID)
		if findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("creating reward account: %w", err)
	}
	return account, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*models.RewardAccount, error) {
	return s.EnsureAccount(ctx, userID)
}

// CheckSpend verifies the user can cover the requested diamond coins. The
// check is advisory; Debit's conditional update is what holds under
// concurrency.
func (s *service) CheckSpend(ctx context.Context, userID uuid.UUID, coins int) error {
	if coins < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coin amount must not be negative")
	}
	if coins == 0 {
		return nil
	}
	account, err := s.EnsureAccount(ctx, userID)
	if err != nil {
		return err
	}
	if account.DiamondCoins < coins {
		return pkgerrors.New(pkgerrors.CodeInsufficientCoins, "not enough diamond coins").
			WithDetails(map[string]any{
				"requested": coins,
				"available": account.DiamondCoins,
			})
	}
	return nil
}

// Debit subtracts diamond coins inside the caller's transaction.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, coins int) error {
	if coins < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coin amount must not be negative")
	}
	if coins == 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for coin debit")
	}
	ok, err := s.repo.WithTx(tx).DebitDiamondCoins(ctx, userID, coins)
	if err != nil {
		return fmt.Errorf("debiting diamond coins: %w", err)
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInsufficientCoins, "not enough diamond coins").
			WithDetails(map[string]any{"requested": coins})
	}
	return nil
}

// AccrueOnDelivery credits coins for a delivered order based on its price.
func (s *service) AccrueOnDelivery(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderPrice decimal.Decimal) error {
	silver, gold, diamond := coinsForPrice(orderPrice)
	if silver == 0 && gold == 0 && diamond == 0 {
		return nil
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if _, err := repo.FindByUserID(ctx, userID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("loading reward account: %w", err)
		}
		account := &models.RewardAccount{ID: uuid.New(), UserID: userID}
		if err := repo.Create(ctx, account); err != nil {
			return fmt.Errorf("creating reward account: %w", err)
		}
	}
	if err := repo.AddCoins(ctx, userID, silver, gold, diamond); err != nil {
		return fmt.Errorf("crediting reward coins: %w", err)
	}
	return nil
}

func coinsForPrice(price decimal.Decimal) (silver, gold, diamond int) {
	switch {
	case price.GreaterThanOrEqual(diamondFloor):
		return 0, 0, 1
	case price.GreaterThanOrEqual(silverCeiling) && price.LessThan(goldCeiling):
		return 0, 1, 0
	case price.GreaterThanOrEqual(silverFloor) && price.LessThan(silverCeiling):
		return 1, 0, 0
	default:
		return 0, 0, 0
	}
}
