package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	"github.com/smallbiznis/billfold/internal/clock"
	"github.com/smallbiznis/billfold/internal/config"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/internal/observability/metrics"
	"github.com/smallbiznis/billfold/internal/recurring/domain"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"github.com/smallbiznis/billfold/pkg/db"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Repo        domain.Repository
	InvoiceRepo invoicedomain.Repository
	ClientRepo  clientdomain.Repository
	Invoicing   *config.InvoicingConfigHolder
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	repo        domain.Repository
	invoiceRepo invoicedomain.Repository
	clientRepo  clientdomain.Repository
	invoicing   *config.InvoicingConfigHolder
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("recurring.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		clientRepo:  p.ClientRepo,
		invoicing:   p.Invoicing,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTemplateRequest) (domain.RecurringInvoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.RecurringInvoice{}, domain.ErrUnauthorized
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return domain.RecurringInvoice{}, domain.ErrInvalidClient
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, snowflake.ID(userID), clientID)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if client == nil {
		return domain.RecurringInvoice{}, domain.ErrInvalidClient
	}

	if !req.Frequency.Valid() {
		return domain.RecurringInvoice{}, domain.ErrInvalidFrequency
	}
	if req.NextDueDate.IsZero() {
		return domain.RecurringInvoice{}, domain.ErrInvalidDueDate
	}

	items, amounts, err := s.buildItems(req.Items)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	totals := invoicedomain.Totals(amounts, 0)
	totals.TaxCents = invoicedomain.TaxAmount(totals.SubtotalCents, req.TaxRate)
	totals.TotalCents = totals.SubtotalCents + totals.TaxCents

	now := s.clock.Now().UTC()
	template := domain.RecurringInvoice{
		ID:             s.genID.Generate(),
		UserID:         snowflake.ID(userID),
		ClientID:       clientID,
		TemplateNumber: strings.TrimSpace(req.TemplateNumber),
		Frequency:      req.Frequency,
		NextDueDate:    req.NextDueDate,
		IsActive:       true,
		TaxRate:        req.TaxRate,
		SubtotalCents:  totals.SubtotalCents,
		TaxCents:       totals.TaxCents,
		TotalCents:     totals.TotalCents,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          items,
	}
	for i := range template.Items {
		template.Items[i].RecurringInvoiceID = template.ID
	}

	if err := s.repo.Insert(ctx, s.db, &template); err != nil {
		return domain.RecurringInvoice{}, err
	}

	return template, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTemplateRequest) (domain.ListTemplateResponse, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.ListTemplateResponse{}, domain.ErrUnauthorized
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, snowflake.ID(userID), domain.ListTemplateFilter{
		Active: req.Active,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListTemplateResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(template *domain.RecurringInvoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        template.ID.String(),
			CreatedAt: template.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	templates := make([]domain.RecurringInvoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		templates = append(templates, *item)
	}

	resp := domain.ListTemplateResponse{Templates: templates}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetTemplateRequest) (domain.RecurringInvoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.RecurringInvoice{}, domain.ErrUnauthorized
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if item == nil {
		return domain.RecurringInvoice{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTemplateRequest) (domain.RecurringInvoice, error) {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.RecurringInvoice{}, domain.ErrUnauthorized
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	template, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if template == nil {
		return domain.RecurringInvoice{}, domain.ErrNotFound
	}

	if req.ClientID != nil {
		clientID, err := snowflake.ParseString(strings.TrimSpace(*req.ClientID))
		if err != nil || clientID == 0 {
			return domain.RecurringInvoice{}, domain.ErrInvalidClient
		}
		client, err := s.clientRepo.FindByID(ctx, s.db, snowflake.ID(userID), clientID)
		if err != nil {
			return domain.RecurringInvoice{}, err
		}
		if client == nil {
			return domain.RecurringInvoice{}, domain.ErrInvalidClient
		}
		template.ClientID = clientID
	}
	if req.TemplateNumber != nil {
		template.TemplateNumber = strings.TrimSpace(*req.TemplateNumber)
	}
	if req.Frequency != nil {
		if !req.Frequency.Valid() {
			return domain.RecurringInvoice{}, domain.ErrInvalidFrequency
		}
		template.Frequency = *req.Frequency
	}
	if req.NextDueDate != nil {
		if req.NextDueDate.IsZero() {
			return domain.RecurringInvoice{}, domain.ErrInvalidDueDate
		}
		template.NextDueDate = *req.NextDueDate
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	if req.TaxRate != nil {
		template.TaxRate = *req.TaxRate
	}
	if req.Notes != nil {
		template.Notes = strings.TrimSpace(*req.Notes)
	}

	if req.Items != nil {
		items, amounts, err := s.buildItems(req.Items)
		if err != nil {
			return domain.RecurringInvoice{}, err
		}
		for i := range items {
			items[i].RecurringInvoiceID = template.ID
		}
		template.Items = items
		template.SubtotalCents = invoicedomain.Totals(amounts, 0).SubtotalCents
	}

	template.TaxCents = invoicedomain.TaxAmount(template.SubtotalCents, template.TaxRate)
	template.TotalCents = template.SubtotalCents + template.TaxCents
	template.UpdatedAt = s.clock.Now().UTC()

	// Totals and items land in one transaction, same as on invoices.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, template); err != nil {
			return err
		}
		if req.Items != nil {
			return s.repo.ReplaceItems(ctx, tx, template.ID, template.Items)
		}
		return nil
	})
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	return *template, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteTemplateRequest) error {
	userID, ok := usercontext.UserID(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	template, err := s.repo.FindByID(ctx, s.db, snowflake.ID(userID), id)
	if err != nil {
		return err
	}
	if template == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, snowflake.ID(userID), id)
}

func (s *Service) Materialize(ctx context.Context, asOf time.Time) (domain.MaterializeResult, error) {
	due, err := s.repo.ListDue(ctx, s.db, asOf)
	if err != nil {
		return domain.MaterializeResult{}, err
	}

	paymentTermDays := s.invoicing.Get().DefaultPaymentTermDays

	var result domain.MaterializeResult
	for _, template := range due {
		next, err := domain.Advance(template.Frequency, template.NextDueDate)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("template %s: %v", template.ID, err))
			result.Skipped++
			continue
		}

		consumed := template.NextDueDate
		invoice := s.projectInvoice(template, consumed, paymentTermDays)

		if err := s.invoiceRepo.Insert(ctx, s.db, &invoice); err != nil {
			if !db.IsDuplicateKeyErr(err) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("template %s: %v", template.ID, err))
				result.Skipped++
				continue
			}
			// Invoice already exists from an interrupted run; advancing the
			// schedule is still the correct repair.
			result.Skipped++
		} else {
			result.Generated++
		}

		if err := s.repo.MarkGenerated(ctx, s.db, template.ID, consumed, next); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("template %s: %v", template.ID, err))
		}
	}

	s.metrics.RecordRecurringMaterialized(ctx, int64(result.Generated))
	s.log.Info("recurring run complete",
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *Service) projectInvoice(template *domain.RecurringInvoice, dueDate time.Time, paymentTermDays int) invoicedomain.Invoice {
	number := template.TemplateNumber
	if number == "" {
		number = "REC-" + template.ID.String()
	}
	number = fmt.Sprintf("%s-%s", number, dueDate.Format("20060102"))

	templateID := template.ID
	now := s.clock.Now().UTC()
	invoice := invoicedomain.Invoice{
		ID:                 s.genID.Generate(),
		UserID:             template.UserID,
		ClientID:           template.ClientID,
		RecurringInvoiceID: &templateID,
		InvoiceNumber:      number,
		Status:             invoicedomain.StatusDraft,
		IssueDate:          dueDate,
		DueDate:            dueDate.AddDate(0, 0, paymentTermDays),
		SubtotalCents:      template.SubtotalCents,
		TaxRate:            template.TaxRate,
		TaxCents:           template.TaxCents,
		TotalCents:         template.TotalCents,
		Notes:              template.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, item := range template.Items {
		invoice.Items = append(invoice.Items, invoicedomain.InvoiceItem{
			ID:             s.genID.Generate(),
			InvoiceID:      invoice.ID,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			AmountCents:    item.AmountCents,
			Position:       item.Position,
		})
	}
	return invoice
}

func (s *Service) buildItems(inputs []invoicedomain.LineItemInput) ([]domain.RecurringInvoiceItem, []int64, error) {
	items := make([]domain.RecurringInvoiceItem, 0, len(inputs))
	amounts := make([]int64, 0, len(inputs))
	for i, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" || input.Quantity < 0 || input.UnitPriceCents < 0 {
			return nil, nil, domain.ErrInvalidItem
		}
		amount := invoicedomain.LineAmount(input.Quantity, input.UnitPriceCents)
		items = append(items, domain.RecurringInvoiceItem{
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
