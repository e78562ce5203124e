package rewards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
)

// Repository defines persistence operations for reward coin accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.RewardAccount, error)
	Create(ctx context.Context, account *models.RewardAccount) error
	AddCoins(ctx context.Context, userID uuid.UUID, silver, gold, diamond int) error
	DebitDiamondCoins(ctx context.Context, userID uuid.UUID, amount int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rewards repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.RewardAccount, error) {
	var account models.RewardAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.RewardAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) AddCoins(ctx context.Context, userID uuid.UUID, silver, gold, diamond int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE reward_accounts
		    SET silver_coins = silver_coins + ?,
		        gold_coins = gold_coins + ?,
		        diamond_coins = diamond_coins + ?,
		        updated_at = CURRENT_TIMESTAMP
		  WHERE user_id = ?`,
		silver, gold, diamond, userID,
	).Error
}

// DebitDiamondCoins subtracts amount only when the balance covers it. The
// condition in the WHERE clause is what keeps concurrent debits from driving
// the balance negative.
func (r *repository) DebitDiamondCoins(ctx context.Context, userID uuid.UUID, amount int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE reward_accounts
		    SET diamond_coins = diamond_coins - ?,
		        updated_at = CURRENT_TIMESTAMP
		  WHERE user_id = ? AND diamond_coins >= ?`,
		amount, userID, amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
