// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	entitlementdomain "github.com/smallbiznis/billfold/internal/entitlement/domain"
)

// User represents an account. Plan is the profile tier read by the
// entitlement resolver; live subscriptions can grant pro on top of it.
type User struct {
	ID           snowflake.ID               `gorm:"primaryKey"`
	Email        string                     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash *string                    `gorm:"type:text"`
	Plan         entitlementdomain.PlanTier `gorm:"type:text;not null;default:free"`
	CreatedAt    time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
