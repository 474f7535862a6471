package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// LatestForUser returns the most recently created subscription row for the
	// user, or nil when the user has never subscribed.
	LatestForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
}
