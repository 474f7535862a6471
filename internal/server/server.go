package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/billfold/internal/analytics"
	analyticsdomain "github.com/smallbiznis/billfold/internal/analytics/domain"
	"github.com/smallbiznis/billfold/internal/auth"
	authdomain "github.com/smallbiznis/billfold/internal/auth/domain"
	"github.com/smallbiznis/billfold/internal/auth/session"
	"github.com/smallbiznis/billfold/internal/client"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	"github.com/smallbiznis/billfold/internal/clock"
	"github.com/smallbiznis/billfold/internal/config"
	"github.com/smallbiznis/billfold/internal/entitlement"
	entitlementdomain "github.com/smallbiznis/billfold/internal/entitlement/domain"
	"github.com/smallbiznis/billfold/internal/invoice"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/internal/observability"
	obslogger "github.com/smallbiznis/billfold/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/billfold/internal/observability/metrics"
	obstracing "github.com/smallbiznis/billfold/internal/observability/tracing"
	"github.com/smallbiznis/billfold/internal/providers/email"
	"github.com/smallbiznis/billfold/internal/providers/pdf"
	"github.com/smallbiznis/billfold/internal/recurring"
	recurringdomain "github.com/smallbiznis/billfold/internal/recurring/domain"
	"github.com/smallbiznis/billfold/internal/settings"
	settingsdomain "github.com/smallbiznis/billfold/internal/settings/domain"
	"github.com/smallbiznis/billfold/internal/subscription"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	clock.Module,
	auth.Module,
	session.Module,
	subscription.Module,
	entitlement.Module,
	client.Module,
	invoice.Module,
	recurring.Module,
	analytics.Module,
	settings.Module,
	email.Module,
	pdf.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	clk            clock.Clock
	invoicing      *config.InvoicingConfigHolder
	sessions       *session.Manager
	authsvc        authdomain.Service
	entitlementSvc entitlementdomain.Service
	clientSvc      clientdomain.Service
	invoiceSvc     invoicedomain.Service
	recurringSvc   recurringdomain.Service
	analyticsSvc   analyticsdomain.Service
	settingsSvc    settingsdomain.Service
	emailProvider  email.Provider
	pdfProvider    pdf.Provider
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	Clock          clock.Clock
	Invoicing      *config.InvoicingConfigHolder
	Sessions       *session.Manager
	Authsvc        authdomain.Service
	EntitlementSvc entitlementdomain.Service
	ClientSvc      clientdomain.Service
	InvoiceSvc     invoicedomain.Service
	RecurringSvc   recurringdomain.Service
	AnalyticsSvc   analyticsdomain.Service
	SettingsSvc    settingsdomain.Service
	EmailProvider  email.Provider
	PDFProvider    pdf.Provider
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		clk:            p.Clock,
		invoicing:      p.Invoicing,
		sessions:       p.Sessions,
		authsvc:        p.Authsvc,
		entitlementSvc: p.EntitlementSvc,
		clientSvc:      p.ClientSvc,
		invoiceSvc:     p.InvoiceSvc,
		recurringSvc:   p.RecurringSvc,
		analyticsSvc:   p.AnalyticsSvc,
		settingsSvc:    p.SettingsSvc,
		emailProvider:  p.EmailProvider,
		pdfProvider:    p.PDFProvider,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.POST("/invoices/:id/status", s.UpdateInvoiceStatus)
	api.POST("/invoices/:id/send", s.SendInvoice)
	api.GET("/invoices/:id/document", s.InvoiceDocument)

	// -------- Recurring templates --------
	api.GET("/recurring", s.ListRecurring)
	api.POST("/recurring", s.CreateRecurring)
	api.GET("/recurring/:id", s.GetRecurringByID)
	api.PATCH("/recurring/:id", s.UpdateRecurring)
	api.DELETE("/recurring/:id", s.DeleteRecurring)

	// -------- Dashboard --------
	api.GET("/analytics", s.GetAnalytics)
	api.GET("/entitlement", s.GetEntitlement)

	// -------- Settings --------
	api.GET("/settings", s.GetSettings)
	api.PUT("/settings", s.UpdateSettings)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	// Invoked by an external cron; there is no in-process scheduler.
	admin.POST("/recurring/run", s.AdminTokenRequired(), s.RunRecurring)

	if !s.cfg.IsProduction() {
		admin.POST("/test/cleanup", s.TestCleanup)
	}
}
