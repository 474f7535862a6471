package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	authrepository "github.com/smallbiznis/billfold/internal/auth/repository"
	"github.com/smallbiznis/billfold/internal/entitlement/domain"
	subscriptiondomain "github.com/smallbiznis/billfold/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/billfold/internal/subscription/repository"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"github.com/smallbiznis/billfold/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	users authdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&subscriptiondomain.Subscription{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	userRepo, _ := authrepository.New(dbConn)
	svc := New(Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		UserRepo: userRepo,
		SubRepo:  subscriptionrepository.Provide(),
	})

	return &fixture{svc: svc, db: dbConn, node: node, users: userRepo}
}

func (f *fixture) createUser(t *testing.T, plan domain.PlanTier) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	user := &authdomain.User{
		ID:    id,
		Email: id.String() + "@example.com",
		Plan:  plan,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user.ID
}

func (f *fixture) addSubscription(t *testing.T, userID snowflake.ID, status subscriptiondomain.Status, createdAt time.Time) {
	t.Helper()
	sub := &subscriptiondomain.Subscription{
		ID:        f.node.Generate(),
		UserID:    userID,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := f.db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}
}

func TestAccessForUserWithoutSubscription(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, domain.TierFree)

	ctx := usercontext.WithUserID(context.Background(), int64(userID))
	access, err := f.svc.AccessForUser(ctx)
	if err != nil {
		t.Fatalf("failed to resolve access: %v", err)
	}
	if access.IsPro || access.Tier != domain.TierFree {
		t.Fatalf("expected free access, got %+v", access)
	}
}

func TestAccessForUserUsesLatestSubscription(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, domain.TierFree)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.addSubscription(t, userID, subscriptiondomain.StatusActive, base)
	f.addSubscription(t, userID, subscriptiondomain.StatusCanceled, base.Add(48*time.Hour))

	ctx := usercontext.WithUserID(context.Background(), int64(userID))
	access, err := f.svc.AccessForUser(ctx)
	if err != nil {
		t.Fatalf("failed to resolve access: %v", err)
	}
	if access.IsPro {
		t.Fatalf("latest subscription is canceled, expected no pro access")
	}
}

func TestRequireProDenied(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, domain.TierFree)

	ctx := usercontext.WithUserID(context.Background(), int64(userID))
	if err := f.svc.RequirePro(ctx, "analytics"); err != domain.ErrProRequired {
		t.Fatalf("expected ErrProRequired, got %v", err)
	}
}

func TestRequireProGrantedByTrial(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, domain.TierFree)
	f.addSubscription(t, userID, subscriptiondomain.StatusTrialing, time.Now().UTC())

	ctx := usercontext.WithUserID(context.Background(), int64(userID))
	if err := f.svc.RequirePro(ctx, "pdf_export"); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
}

func TestAccessForUserAnonymous(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.AccessForUser(context.Background()); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
