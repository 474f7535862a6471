package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	"github.com/smallbiznis/billfold/internal/clock"
	"github.com/smallbiznis/billfold/internal/config"
	"github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/internal/observability/metrics"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"github.com/smallbiznis/billfold/pkg/db"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
	Invoicing  *config.InvoicingConfigHolder
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	repo       domain.Repository
	clientRepo clientdomain.Repository
	invoicing  *config.InvoicingConfigHolder
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
		invoicing:  p.Invoicing,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrUnauthorized
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return domain.Invoice{}, domain.ErrInvalidClient
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, snowflake.ID(userID), clientID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if client == nil {
		return domain.Invoice{}, domain.ErrInvalidClient
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return domain.Invoice{}, domain.ErrInvalidNumber
	}

	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = s.clock.Now().UTC().Truncate(24 * time.Hour)
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, s.invoicing.Get().DefaultPaymentTermDays)
	}
	if dueDate.Before(issueDate) {
		return domain.Invoice{}, domain.ErrInvalidDates
	}

	items, lineAmounts, err := s.buildItems(req.Items)
	if err != nil {
		return domain.Invoice{}, err
	}

	totals := domain.Totals(lineAmounts, 0)
	totals.TaxCents = domain.TaxAmount(totals.SubtotalCents, req.TaxRate)
	totals.TotalCents = totals.SubtotalCents + totals.TaxCents

	now := s.clock.Now().UTC()
	invoice := domain.Invoice{
		ID:            s.genID.Generate(),
		UserID:        snowflake.ID(userID),
		ClientID:      clientID,
		InvoiceNumber: number,
		Status:        status,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		SubtotalCents: totals.SubtotalCents,
		TaxRate:       req.TaxRate,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}

	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Invoice{}, domain.ErrDuplicateNumber
		}
		return domain.Invoice{}, err
	}

	s.metrics.RecordInvoiceCreated(ctx, string(invoice.Status))
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.InvoiceNumber),
	)
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.ListInvoiceResponse{}, domain.ErrUnauthorized
	}

	if req.Status != "" && !req.Status.Valid() {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, snowflake.ID(userID), domain.ListInvoiceFilter{
		Status:   req.Status,
		ClientID: strings.TrimSpace(req.ClientID),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetInvoiceRequest) (domain.Invoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrUnauthorized
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if item == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrUnauthorized
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	if req.ClientID != nil {
		clientID, err := snowflake.ParseString(strings.TrimSpace(*req.ClientID))
		if err != nil || clientID == 0 {
			return domain.Invoice{}, domain.ErrInvalidClient
		}
		client, err := s.clientRepo.FindByID(ctx, s.db, snowflake.ID(userID), clientID)
		if err != nil {
			return domain.Invoice{}, err
		}
		if client == nil {
			return domain.Invoice{}, domain.ErrInvalidClient
		}
		invoice.ClientID = clientID
	}
	if req.InvoiceNumber != nil {
		number := strings.TrimSpace(*req.InvoiceNumber)
		if number == "" {
			return domain.Invoice{}, domain.ErrInvalidNumber
		}
		invoice.InvoiceNumber = number
	}
	if req.IssueDate != nil {
		invoice.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		invoice.DueDate = *req.DueDate
	}
	if invoice.DueDate.Before(invoice.IssueDate) {
		return domain.Invoice{}, domain.ErrInvalidDates
	}
	if req.TaxRate != nil {
		invoice.TaxRate = *req.TaxRate
	}
	if req.Notes != nil {
		invoice.Notes = strings.TrimSpace(*req.Notes)
	}

	if req.Items != nil {
		items, lineAmounts, err := s.buildItems(req.Items)
		if err != nil {
			return domain.Invoice{}, err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		invoice.Items = items
		invoice.SubtotalCents = domain.Totals(lineAmounts, 0).SubtotalCents
	}

	// Tax depends on subtotal and rate, both possibly changed above.
	invoice.TaxCents = domain.TaxAmount(invoice.SubtotalCents, invoice.TaxRate)
	invoice.TotalCents = invoice.SubtotalCents + invoice.TaxCents
	invoice.UpdatedAt = s.clock.Now().UTC()

	// Totals and line items must land together; a failed item write may not
	// leave the invoice row carrying sums derived from items never stored.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, invoice); err != nil {
			return err
		}
		if req.Items != nil {
			return s.repo.ReplaceItems(ctx, tx, invoice.ID, invoice.Items)
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Invoice{}, domain.ErrDuplicateNumber
		}
		return domain.Invoice{}, err
	}

	return *invoice, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteInvoiceRequest) error {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, snowflake.ID(userID), id)
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Invoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrUnauthorized
	}

	if !req.Status.Valid() {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	if err := s.repo.UpdateStatus(ctx, s.db, snowflake.ID(userID), id, req.Status); err != nil {
		return domain.Invoice{}, err
	}
	invoice.Status = req.Status

	return *invoice, nil
}

func (s *Service) buildItems(inputs []domain.LineItemInput) ([]domain.InvoiceItem, []int64, error) {
	items := make([]domain.InvoiceItem, 0, len(inputs))
	amounts := make([]int64, 0, len(inputs))
	for i, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" || input.Quantity < 0 || input.UnitPriceCents < 0 {
			return nil, nil, domain.ErrInvalidItem
		}
		amount := domain.LineAmount(input.Quantity, input.UnitPriceCents)
		items = append(items, domain.InvoiceItem{
			ID:             s.genID.Generate(),
			Description:    description,
			Quantity:       input.Quantity,
			UnitPriceCents: input.UnitPriceCents,
			AmountCents:    amount,
			Position:       i,
		})
		amounts = append(amounts, amount)
	}
	return items, amounts, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
