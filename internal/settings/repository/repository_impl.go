package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/settings/domain"
	pkgrepository "github.com/smallbiznis/billfold/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db    *gorm.DB
	store pkgrepository.Repository[domain.UserSettings]
}

func New(db *gorm.DB) domain.Repository {
	return &repo{
		db:    db,
		store: pkgrepository.ProvideStore[domain.UserSettings](db),
	}
}

func (r *repo) Find(ctx context.Context, userID snowflake.ID) (*domain.UserSettings, error) {
	return r.store.FindOne(ctx, &domain.UserSettings{UserID: userID})
}

func (r *repo) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "company_name", "address", "currency", "updated_at",
		}),
	}).Create(settings).Error
}
