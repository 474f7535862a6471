package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status mirrors the billing provider's subscription lifecycle. Rows are
// written by the external webhook processor, this service only reads them.
type Status string

const (
	StatusNotStarted         Status = "not_started"
	StatusIncomplete         Status = "incomplete"
	StatusIncompleteExpired  Status = "incomplete_expired"
	StatusTrialing           Status = "trialing"
	StatusActive             Status = "active"
	StatusPastDue            Status = "past_due"
	StatusCanceled           Status = "canceled"
	StatusUnpaid             Status = "unpaid"
	StatusPaused             Status = "paused"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusIncomplete, StatusIncompleteExpired,
		StatusTrialing, StatusActive, StatusPastDue,
		StatusCanceled, StatusUnpaid, StatusPaused:
		return true
	default:
		return false
	}
}

type Subscription struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID               snowflake.ID `gorm:"not null;index" json:"user_id"`
	StripeCustomerID     string       `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string       `gorm:"column:stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	PriceID              string       `gorm:"column:price_id" json:"price_id,omitempty"`
	Status               Status       `gorm:"not null;default:not_started" json:"status"`
	CurrentPeriodStart   *time.Time   `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time   `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool         `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time   `json:"canceled_at,omitempty"`

	// Raw provider payload fields the webhook processor chose to keep.
	Metadata datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Subscription) TableName() string { return "user_subscriptions" }
