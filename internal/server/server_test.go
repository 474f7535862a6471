package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/billfold/internal/analytics/domain"
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	"github.com/smallbiznis/billfold/internal/auth/session"
	"github.com/smallbiznis/billfold/internal/clock"
	"github.com/smallbiznis/billfold/internal/config"
	entitlementdomain "github.com/smallbiznis/billfold/internal/entitlement/domain"
	obsmetrics "github.com/smallbiznis/billfold/internal/observability/metrics"
	recurringdomain "github.com/smallbiznis/billfold/internal/recurring/domain"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fakeAuthService struct {
	signupCalls int
	loginCalls  int
	user        *authdomain.User
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{
		user: &authdomain.User{
			ID:    snowflake.ID(7),
			Email: "owner@example.com",
			Plan:  entitlementdomain.TierFree,
		},
	}
}

func (f *fakeAuthService) Signup(ctx context.Context, req authdomain.SignupRequest) (*authdomain.User, error) {
	f.signupCalls++
	return f.user, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	return &authdomain.LoginResult{
		User:      f.user,
		RawToken:  "session-token",
		ExpiresAt: testNow.Add(24 * time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if rawToken != "session-token" {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{
		ID:     snowflake.ID(300),
		UserID: f.user.ID,
	}, nil
}

func (f *fakeAuthService) UserByID(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	return f.user, nil
}

type fakeEntitlementService struct {
	access entitlementdomain.Access
}

func (f *fakeEntitlementService) AccessForUser(ctx context.Context) (entitlementdomain.Access, error) {
	return f.access, nil
}

func (f *fakeEntitlementService) RequirePro(ctx context.Context, feature string) error {
	if !f.access.IsPro {
		return entitlementdomain.ErrProRequired
	}
	return nil
}

type fakeAnalyticsService struct {
	snapshot analyticsdomain.Snapshot
}

func (f *fakeAnalyticsService) Snapshot(ctx context.Context) (analyticsdomain.Snapshot, error) {
	return f.snapshot, nil
}

type fakeRecurringService struct {
	lastAsOf time.Time
	result   recurringdomain.MaterializeResult
}

func (f *fakeRecurringService) Create(ctx context.Context, req recurringdomain.CreateTemplateRequest) (recurringdomain.RecurringInvoice, error) {
	return recurringdomain.RecurringInvoice{}, nil
}

func (f *fakeRecurringService) List(ctx context.Context, req recurringdomain.ListTemplateRequest) (recurringdomain.ListTemplateResponse, error) {
	return recurringdomain.ListTemplateResponse{}, nil
}

func (f *fakeRecurringService) GetByID(ctx context.Context, req recurringdomain.GetTemplateRequest) (recurringdomain.RecurringInvoice, error) {
	return recurringdomain.RecurringInvoice{}, nil
}

func (f *fakeRecurringService) Update(ctx context.Context, req recurringdomain.UpdateTemplateRequest) (recurringdomain.RecurringInvoice, error) {
	return recurringdomain.RecurringInvoice{}, nil
}

func (f *fakeRecurringService) Delete(ctx context.Context, req recurringdomain.DeleteTemplateRequest) error {
	return nil
}

func (f *fakeRecurringService) Materialize(ctx context.Context, asOf time.Time) (recurringdomain.MaterializeResult, error) {
	f.lastAsOf = asOf
	return f.result, nil
}

type serverFixture struct {
	srv         *Server
	auth        *fakeAuthService
	entitlement *fakeEntitlementService
	recurring   *fakeRecurringService
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	invoicing, err := config.NewInvoicingConfigHolder()
	if err != nil {
		t.Fatalf("failed to load invoicing config: %v", err)
	}

	cfg := config.Config{
		Environment: "test",
		AdminToken:  "cron-secret",
	}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	authsvc := newFakeAuthService()
	entitlementSvc := &fakeEntitlementService{
		access: entitlementdomain.Access{Tier: entitlementdomain.TierFree, IsPro: false},
	}
	recurringSvc := &fakeRecurringService{
		result: recurringdomain.MaterializeResult{Generated: 2, Skipped: 1},
	}

	srv := &Server{
		engine:         engine,
		cfg:            cfg,
		clk:            clock.NewFake(testNow),
		invoicing:      invoicing,
		sessions:       session.NewManager(cfg),
		authsvc:        authsvc,
		entitlementSvc: entitlementSvc,
		recurringSvc:   recurringSvc,
		analyticsSvc:   &fakeAnalyticsService{snapshot: analyticsdomain.Snapshot{TotalClients: 3}},
	}
	srv.registerAuthRoutes()
	srv.registerAPIRoutes()
	srv.registerAdminRoutes()

	return &serverFixture{
		srv:         srv,
		auth:        authsvc,
		entitlement: entitlementSvc,
		recurring:   recurringSvc,
	}
}

func (f *serverFixture) request(method, path string, body []byte, authed bool, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "session-token"})
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.srv.Engine().ServeHTTP(w, req)
	return w
}

func TestAuthRequiredWithoutCookie(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/api/analytics", nil, false, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAnalyticsDeniedForFreeTier(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/api/analytics", nil, true, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pro_required") {
		t.Fatalf("expected pro_required payload, got %s", w.Body.String())
	}
}

func TestAnalyticsAllowedForPro(t *testing.T) {
	f := newServerFixture(t)
	f.entitlement.access = entitlementdomain.Access{Tier: entitlementdomain.TierPro, IsPro: true}

	w := f.request(http.MethodGet, "/api/analytics", nil, true, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data analyticsdomain.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.TotalClients != 3 {
		t.Fatalf("total clients = %d, want 3", resp.Data.TotalClients)
	}
}

func TestEntitlementIncludesUpgradeURLForFree(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/api/entitlement", nil, true, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data entitlementResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.IsPro {
		t.Fatalf("expected free access")
	}
	if resp.Data.UpgradeURL == "" {
		t.Fatalf("expected upgrade url for free tier")
	}
}

func TestEntitlementOmitsUpgradeURLForPro(t *testing.T) {
	f := newServerFixture(t)
	f.entitlement.access = entitlementdomain.Access{Tier: entitlementdomain.TierPro, IsPro: true}

	w := f.request(http.MethodGet, "/api/entitlement", nil, true, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "upgrade_url") {
		t.Fatalf("pro access should not carry an upgrade url: %s", w.Body.String())
	}
}

func TestRunRecurringRequiresAdminToken(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodPost, "/admin/recurring/run", nil, false, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	w = f.request(http.MethodPost, "/admin/recurring/run", nil, false, map[string]string{
		"X-Admin-Token": "cron-secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !f.recurring.lastAsOf.Equal(testNow) {
		t.Fatalf("materialize asOf = %v, want %v", f.recurring.lastAsOf, testNow)
	}
	if !strings.Contains(w.Body.String(), `"generated":2`) {
		t.Fatalf("expected run summary, got %s", w.Body.String())
	}
}

func TestRunRecurringDisabledWithoutConfiguredToken(t *testing.T) {
	f := newServerFixture(t)
	f.srv.cfg.AdminToken = ""

	w := f.request(http.MethodPost, "/admin/recurring/run", nil, false, map[string]string{
		"X-Admin-Token": "cron-secret",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRunRecurringHandlerDoesNotRecordMaterializations(t *testing.T) {
	f := newServerFixture(t)

	reader := sdkmetric.NewManualReader()
	m, err := obsmetrics.New(obsmetrics.Config{}, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("failed to build metrics: %v", err)
	}
	f.srv.obsMetrics = m

	w := f.request(http.MethodPost, "/admin/recurring/run", nil, false, map[string]string{
		"X-Admin-Token": "cron-secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	// The materialization counter belongs to the service; an increment here
	// means the handler counted the run a second time.
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, met := range scope.Metrics {
			if met.Name != "billfold_recurring_materialized_total" {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected metric data type %T", met.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 0 {
		t.Fatalf("handler recorded %d materializations, want 0", total)
	}
}

func TestSignupSetsSessionCookie(t *testing.T) {
	f := newServerFixture(t)

	body := []byte(`{"email":"owner@example.com","password":"longenough"}`)
	w := f.request(http.MethodPost, "/auth/signup", body, false, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if f.auth.signupCalls != 1 || f.auth.loginCalls != 1 {
		t.Fatalf("signup calls = %d, login calls = %d, want 1 and 1", f.auth.signupCalls, f.auth.loginCalls)
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, session.DefaultCookieName+"=session-token") {
		t.Fatalf("expected session cookie, got %q", cookie)
	}
}
