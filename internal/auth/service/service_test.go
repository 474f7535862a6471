package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	"github.com/smallbiznis/billfold/internal/auth/repository"
	entitlementdomain "github.com/smallbiznis/billfold/internal/entitlement/domain"
	"github.com/smallbiznis/billfold/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) authdomain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(zap.NewNop(), repo, sessionRepo, node)
}

func TestSignupDefaultsToFreePlan(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Signup(context.Background(), authdomain.SignupRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if user.Plan != entitlementdomain.TierFree {
		t.Fatalf("expected free plan, got %s", user.Plan)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email %s", user.Email)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	req := authdomain.SignupRequest{Email: "bob@example.com", Password: "strong-password"}
	if _, err := svc.Signup(context.Background(), req); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if _, err := svc.Signup(context.Background(), req); err != authdomain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), authdomain.SignupRequest{
		Email:    "carol@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "carol@example.com",
		Password: "wrong-password",
	})
	if err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), authdomain.SignupRequest{
		Email:    "dave@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "dave@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}
	if result.RawToken == "" {
		t.Fatal("expected session token")
	}

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if session.UserID != result.User.ID {
		t.Fatalf("session user mismatch: %s vs %s", session.UserID, result.User.ID)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), authdomain.SignupRequest{
		Email:    "erin@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "erin@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("failed to logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != authdomain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}
