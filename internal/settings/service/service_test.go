package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/billfold/internal/settings/domain"
	"github.com/smallbiznis/billfold/internal/settings/repository"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"github.com/smallbiznis/billfold/pkg/db"
	"go.uber.org/zap"
)

func newService(t *testing.T) domain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.UserSettings{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return New(Params{
		Log:  zap.NewNop(),
		Repo: repository.New(dbConn),
	})
}

func userCtx(userID int64) context.Context {
	return usercontext.WithUserID(context.Background(), userID)
}

func strptr(s string) *string { return &s }

func TestGetDefaultsWhenUnset(t *testing.T) {
	svc := newService(t)

	settings, err := svc.Get(userCtx(1))
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if settings.Currency != "USD" {
		t.Fatalf("currency = %s, want USD", settings.Currency)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	svc := newService(t)

	updated, err := svc.Update(userCtx(1), domain.UpdateSettingsRequest{
		DisplayName: strptr("Jo Freelance"),
		CompanyName: strptr("Jo Studio"),
		Currency:    strptr("eur"),
	})
	if err != nil {
		t.Fatalf("failed to update settings: %v", err)
	}
	if updated.Currency != "EUR" {
		t.Fatalf("currency = %s, want EUR", updated.Currency)
	}

	fetched, err := svc.Get(userCtx(1))
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if fetched.CompanyName != "Jo Studio" || fetched.DisplayName != "Jo Freelance" {
		t.Fatalf("settings did not persist: %+v", fetched)
	}
}

func TestUpdateRejectsBadCurrency(t *testing.T) {
	svc := newService(t)

	_, err := svc.Update(userCtx(1), domain.UpdateSettingsRequest{
		Currency: strptr("DOLLARS"),
	})
	if err != domain.ErrInvalidCurrency {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestSettingsScopedPerUser(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Update(userCtx(1), domain.UpdateSettingsRequest{
		CompanyName: strptr("First Co"),
	}); err != nil {
		t.Fatalf("failed to update settings: %v", err)
	}

	other, err := svc.Get(userCtx(2))
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if other.CompanyName != "" {
		t.Fatalf("settings leaked across users: %+v", other)
	}
}

func TestGetRequiresUser(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Get(context.Background()); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
