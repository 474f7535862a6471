package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	clientrepository "github.com/smallbiznis/billfold/internal/client/repository"
	"github.com/smallbiznis/billfold/internal/clock"
	"github.com/smallbiznis/billfold/internal/config"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/billfold/internal/invoice/repository"
	"github.com/smallbiznis/billfold/internal/recurring/domain"
	"github.com/smallbiznis/billfold/internal/recurring/repository"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"github.com/smallbiznis/billfold/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&clientdomain.Client{},
		&domain.RecurringInvoice{},
		&domain.RecurringInvoiceItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	invoicing, err := config.NewInvoicingConfigHolder()
	if err != nil {
		t.Fatalf("failed to load invoicing config: %v", err)
	}

	svc := New(Params{
		DB:          dbConn,
		Log:         zap.NewNop(),
		Clock:       clock.NewFake(testNow),
		GenID:       node,
		Repo:        repository.Provide(),
		InvoiceRepo: invoicerepository.Provide(),
		ClientRepo:  clientrepository.Provide(),
		Invoicing:   invoicing,
	})

	return &fixture{svc: svc, db: dbConn, node: node}
}

func (f *fixture) createClient(t *testing.T, userID int64) snowflake.ID {
	t.Helper()
	now := time.Now().UTC()
	client := clientdomain.Client{
		ID:        f.node.Generate(),
		UserID:    snowflake.ID(userID),
		Name:      "Acme",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(&client).Error; err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client.ID
}

func userCtx(userID int64) context.Context {
	return usercontext.WithUserID(context.Background(), userID)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)
	clientID := f.createClient(t, 1)

	template, err := f.svc.Create(userCtx(1), domain.CreateTemplateRequest{
		ClientID:       clientID.String(),
		TemplateNumber: "SUB-001",
		Frequency:      domain.FrequencyMonthly,
		NextDueDate:    date(2026, 4, 1),
		TaxRate:        10,
		Items: []invoicedomain.LineItemInput{
			{Description: "Retainer", Quantity: 1, UnitPriceCents: 50000},
		},
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	if template.SubtotalCents != 50000 || template.TaxCents != 5000 || template.TotalCents != 55000 {
		t.Fatalf("unexpected totals: %+v", template)
	}
	if !template.IsActive {
		t.Fatal("new templates start active")
	}
}

func TestCreateRejectsUnknownFrequency(t *testing.T) {
	f := newFixture(t)
	clientID := f.createClient(t, 1)

	_, err := f.svc.Create(userCtx(1), domain.CreateTemplateRequest{
		ClientID:    clientID.String(),
		Frequency:   domain.Frequency("biweekly"),
		NextDueDate: date(2026, 4, 1),
	})
	if err != domain.ErrInvalidFrequency {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestMaterializeGeneratesAndAdvances(t *testing.T) {
	f := newFixture(t)
	clientID := f.createClient(t, 1)

	template, err := f.svc.Create(userCtx(1), domain.CreateTemplateRequest{
		ClientID:       clientID.String(),
		TemplateNumber: "SUB-001",
		Frequency:      domain.FrequencyMonthly,
		NextDueDate:    date(2026, 1, 31),
		Items: []invoicedomain.LineItemInput{
			{Description: "Retainer", Quantity: 1, UnitPriceCents: 50000},
		},
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	result, err := f.svc.Materialize(context.Background(), date(2026, 2, 1))
	if err != nil {
		t.Fatalf("failed to materialize: %v", err)
	}
	if result.Generated != 1 {
		t.Fatalf("generated = %d, want 1", result.Generated)
	}

	updated, err := f.svc.GetByID(userCtx(1), domain.GetTemplateRequest{ID: template.ID.String()})
	if err != nil {
		t.Fatalf("failed to fetch template: %v", err)
	}
	if updated.LastGeneratedDate == nil || !updated.LastGeneratedDate.Equal(date(2026, 1, 31)) {
		t.Fatalf("last_generated_date = %v, want 2026-01-31", updated.LastGeneratedDate)
	}
	// Month-end clamp: Jan 31 advances to Feb 28, not Mar 3.
	if !updated.NextDueDate.Equal(date(2026, 2, 28)) {
		t.Fatalf("next_due_date = %v, want 2026-02-28", updated.NextDueDate)
	}

	var invoices []invoicedomain.Invoice
	if err := f.db.Find(&invoices).Error; err != nil {
		t.Fatalf("failed to load invoices: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected 1 generated invoice, got %d", len(invoices))
	}
	generated := invoices[0]
	if generated.TotalCents != template.TotalCents {
		t.Fatalf("generated total = %d, want %d", generated.TotalCents, template.TotalCents)
	}
	if generated.RecurringInvoiceID == nil || *generated.RecurringInvoiceID != template.ID {
		t.Fatal("generated invoice must reference its template")
	}
	if generated.Status != invoicedomain.StatusDraft {
		t.Fatalf("generated status = %s, want draft", generated.Status)
	}
	if !generated.CreatedAt.Equal(testNow) {
		t.Fatalf("generated created_at = %v, want %v", generated.CreatedAt, testNow)
	}
}

func TestUpdateItemWriteFailureLeavesTotalsUntouched(t *testing.T) {
	f := newFixture(t)
	clientID := f.createClient(t, 1)

	created, err := f.svc.Create(userCtx(1), domain.CreateTemplateRequest{
		ClientID:       clientID.String(),
		TemplateNumber: "SUB-001",
		Frequency:      domain.FrequencyMonthly,
		NextDueDate:    date(2026, 4, 1),
		Items: []invoicedomain.LineItemInput{
			{Description: "Retainer", Quantity: 1, UnitPriceCents: 50000},
		},
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	// Fail only the item write; the header update must roll back with it.
	if err := f.db.Exec(`CREATE TRIGGER block_item_writes BEFORE INSERT ON recurring_invoice_items
		BEGIN SELECT RAISE(ABORT, 'item writes blocked'); END`).Error; err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	_, err = f.svc.Update(userCtx(1), domain.UpdateTemplateRequest{
		ID: created.ID.String(),
		Items: []invoicedomain.LineItemInput{
			{Description: "Retainer", Quantity: 1, UnitPriceCents: 99999},
		},
	})
	if err == nil {
		t.Fatal("expected update to fail")
	}

	var subtotal int64
	if err := f.db.Raw(`SELECT subtotal_cents FROM recurring_invoices WHERE id = ?`, created.ID).Scan(&subtotal).Error; err != nil {
		t.Fatalf("failed to read template: %v", err)
	}
	if subtotal != 50000 {
		t.Fatalf("subtotal = %d, want 50000 after failed item write", subtotal)
	}

	fetched, err := f.svc.GetByID(userCtx(1), domain.GetTemplateRequest{ID: created.ID.String()})
	if err != nil {
		t.Fatalf("failed to fetch template: %v", err)
	}
	if len(fetched.Items) != 1 || fetched.Items[0].AmountCents != 50000 {
		t.Fatalf("stored items diverged from totals: %+v", fetched.Items)
	}
}

func TestMaterializeSkipsInactive(t *testing.T) {
	f := newFixture(t)
	clientID := f.createClient(t, 1)

	template, err := f.svc.Create(userCtx(1), domain.CreateTemplateRequest{
		ClientID:    clientID.String(),
		Frequency:   domain.FrequencyWeekly,
		NextDueDate: date(2026, 1, 1),
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	inactive := false
	if _, err := f.svc.Update(userCtx(1), domain.UpdateTemplateRequest{
		ID:       template.ID.String(),
		IsActive: &inactive,
	}); err != nil {
		t.Fatalf("failed to deactivate template: %v", err)
	}

	result, err := f.svc.Materialize(context.Background(), date(2026, 6, 1))
	if err != nil {
		t.Fatalf("failed to materialize: %v", err)
	}
	if result.Generated != 0 {
		t.Fatalf("inactive template generated %d invoices", result.Generated)
	}
}

func TestMaterializeSecondRunIsIdle(t *testing.T) {
	f := newFixture(t)
	clientID := f.createClient(t, 1)

	if _, err := f.svc.Create(userCtx(1), domain.CreateTemplateRequest{
		ClientID:       clientID.String(),
		TemplateNumber: "SUB-001",
		Frequency:      domain.FrequencyMonthly,
		NextDueDate:    date(2026, 3, 1),
	}); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	asOf := date(2026, 3, 2)
	if _, err := f.svc.Materialize(context.Background(), asOf); err != nil {
		t.Fatalf("failed to materialize: %v", err)
	}
	result, err := f.svc.Materialize(context.Background(), asOf)
	if err != nil {
		t.Fatalf("failed to materialize: %v", err)
	}
	if result.Generated != 0 || result.Skipped != 0 {
		t.Fatalf("second run should find nothing due, got %+v", result)
	}
}
