package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LatestForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, stripe_customer_id, stripe_subscription_id, price_id, status,
		        current_period_start, current_period_end, cancel_at_period_end, canceled_at,
		        created_at, updated_at
		 FROM user_subscriptions WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}
