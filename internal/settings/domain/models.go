package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserSettings carries the invoice header details a user configures once.
type UserSettings struct {
	UserID      snowflake.ID `gorm:"primaryKey;column:user_id" json:"user_id"`
	DisplayName string       `gorm:"column:display_name" json:"display_name"`
	CompanyName string       `gorm:"column:company_name" json:"company_name"`
	Address     string       `gorm:"column:address" json:"address"`
	Currency    string       `gorm:"column:currency;not null;default:USD" json:"currency"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserSettings) TableName() string { return "user_settings" }

type UpdateSettingsRequest struct {
	DisplayName *string
	CompanyName *string
	Address     *string
	Currency    *string
}

type Service interface {
	Get(ctx context.Context) (UserSettings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (UserSettings, error)
}

type Repository interface {
	Find(ctx context.Context, userID snowflake.ID) (*UserSettings, error)
	Upsert(ctx context.Context, settings *UserSettings) error
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
