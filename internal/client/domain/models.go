package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"column:email" json:"email,omitempty"`
	Phone     string       `gorm:"column:phone" json:"phone,omitempty"`
	Address   string       `gorm:"column:address" json:"address,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
