package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/settings/domain"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("settings.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (domain.UserSettings, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.UserSettings{}, domain.ErrUnauthorized
	}

	settings, err := s.repo.Find(ctx, snowflake.ID(userID))
	if err != nil {
		return domain.UserSettings{}, err
	}
	if settings == nil {
		return domain.UserSettings{
			UserID:   snowflake.ID(userID),
			Currency: "USD",
		}, nil
	}
	return *settings, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (domain.UserSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return domain.UserSettings{}, err
	}

	if req.DisplayName != nil {
		current.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.CompanyName != nil {
		current.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Address != nil {
		current.Address = strings.TrimSpace(*req.Address)
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return domain.UserSettings{}, domain.ErrInvalidCurrency
		}
		current.Currency = currency
	}

	now := time.Now().UTC()
	if current.CreatedAt.IsZero() {
		current.CreatedAt = now
	}
	current.UpdatedAt = now

	if err := s.repo.Upsert(ctx, &current); err != nil {
		return domain.UserSettings{}, err
	}
	return current, nil
}
