package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	"github.com/smallbiznis/billfold/internal/entitlement/domain"
	"github.com/smallbiznis/billfold/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/billfold/internal/subscription/domain"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	UserRepo authdomain.Repository
	SubRepo  subscriptiondomain.Repository
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	userRepo authdomain.Repository
	subRepo  subscriptiondomain.Repository
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("entitlement.service"),
		userRepo: p.UserRepo,
		subRepo:  p.SubRepo,
		metrics:  p.Metrics,
	}
}

func (s *Service) AccessForUser(ctx context.Context) (domain.Access, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.Access{}, domain.ErrUnauthorized
	}

	user, err := s.userRepo.FindByID(ctx, snowflake.ID(userID))
	if err != nil {
		return domain.Access{}, err
	}

	sub, err := s.subRepo.LatestForUser(ctx, s.db, user.ID)
	if err != nil {
		return domain.Access{}, err
	}

	var status *subscriptiondomain.Status
	if sub != nil {
		status = &sub.Status
	}

	return domain.Resolve(user.Plan, status), nil
}

func (s *Service) RequirePro(ctx context.Context, feature string) error {
	access, err := s.AccessForUser(ctx)
	if err != nil {
		return err
	}
	if !access.IsPro {
		s.metrics.RecordEntitlementDenial(ctx, feature)
		s.log.Debug("premium feature denied",
			zap.String("feature", feature),
			zap.String("tier", string(access.Tier)),
		)
		return domain.ErrProRequired
	}
	return nil
}
