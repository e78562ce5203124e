package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mountemart/backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash    string         `gorm:"column:password_hash;not null"`
	FirstName       string         `gorm:"column:first_name;not null"`
	LastName        string         `gorm:"column:last_name;not null"`
	Phone           *string        `gorm:"column:phone"`
	Role            enums.UserRole `gorm:"column:role;type:user_role;not null;default:'customer'"`
	CashbackEnabled bool           `gorm:"column:cashback_enabled;not null;default:true"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt     *time.Time     `gorm:"column:last_login_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// RewardAccount holds the per-user loyalty coin balances. Diamond coins are
// the spendable denomination at checkout; silver and gold accrue on delivery.
type RewardAccount struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	SilverCoins  int       `gorm:"column:silver_coins;not null;default:0"`
	GoldCoins    int       `gorm:"column:gold_coins;not null;default:0"`
	DiamondCoins int       `gorm:"column:diamond_coins;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
