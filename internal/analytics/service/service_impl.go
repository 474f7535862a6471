package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/analytics/domain"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	"github.com/smallbiznis/billfold/internal/clock"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	ClientRepo  clientdomain.Repository
	InvoiceRepo invoicedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	clientRepo  clientdomain.Repository
	invoiceRepo invoicedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("analytics.service"),
		clock:       p.Clock,
		clientRepo:  p.ClientRepo,
		invoiceRepo: p.InvoiceRepo,
	}
}

func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.Snapshot{}, domain.ErrUnauthorized
	}

	var (
		clients     []*clientdomain.Client
		invoices    []*invoicedomain.Invoice
		paidRevenue int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clientRepo.ListAll(gctx, s.db, snowflake.ID(userID))
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.invoiceRepo.ListAll(gctx, s.db, snowflake.ID(userID))
		return err
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Raw(
			`SELECT COALESCE(SUM(total_cents), 0) FROM invoices WHERE user_id = ? AND status = ?`,
			snowflake.ID(userID),
			invoicedomain.StatusPaid,
		).Scan(&paidRevenue).Error
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}

	clientValues := make([]clientdomain.Client, 0, len(clients))
	for _, client := range clients {
		if client != nil {
			clientValues = append(clientValues, *client)
		}
	}
	invoiceValues := make([]invoicedomain.Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if invoice != nil {
			invoiceValues = append(invoiceValues, *invoice)
		}
	}

	start := time.Now()
	snapshot := domain.Aggregate(clientValues, invoiceValues, s.clock.Now())
	snapshot.TotalRevenueCents = paidRevenue

	s.log.Debug("snapshot aggregated",
		zap.Int("clients", snapshot.TotalClients),
		zap.Int("invoices", snapshot.TotalInvoices),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snapshot, nil
}
