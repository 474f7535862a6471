package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/analytics/domain"
	clientdomain "github.com/smallbiznis/billfold/internal/client/domain"
	clientrepository "github.com/smallbiznis/billfold/internal/client/repository"
	"github.com/smallbiznis/billfold/internal/clock"
	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/billfold/internal/invoice/repository"
	"github.com/smallbiznis/billfold/internal/usercontext"
	"github.com/smallbiznis/billfold/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var asOf = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

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
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:          dbConn,
		Log:         zap.NewNop(),
		Clock:       clock.NewFake(asOf),
		ClientRepo:  clientrepository.Provide(),
		InvoiceRepo: invoicerepository.Provide(),
	})

	return &fixture{svc: svc, db: dbConn, node: node}
}

func (f *fixture) addClient(t *testing.T, userID int64, createdAt time.Time) {
	t.Helper()
	client := clientdomain.Client{
		ID:        f.node.Generate(),
		UserID:    snowflake.ID(userID),
		Name:      "Acme",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := f.db.Create(&client).Error; err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
}

func (f *fixture) addInvoice(t *testing.T, userID int64, status invoicedomain.Status, totalCents int64, dueDate, createdAt time.Time) {
	t.Helper()
	invoice := invoicedomain.Invoice{
		ID:            f.node.Generate(),
		UserID:        snowflake.ID(userID),
		InvoiceNumber: "INV-" + f.node.Generate().String(),
		Status:        status,
		TotalCents:    totalCents,
		IssueDate:     createdAt,
		DueDate:       dueDate,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if err := f.db.Create(&invoice).Error; err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
}

func userCtx(userID int64) context.Context {
	return usercontext.WithUserID(context.Background(), userID)
}

func TestSnapshotRequiresUser(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Snapshot(context.Background()); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSnapshotAggregatesOwnDataOnly(t *testing.T) {
	f := newFixture(t)
	old := asOf.AddDate(0, -6, 0)
	future := asOf.AddDate(0, 1, 0)

	f.addClient(t, 1, old)
	f.addClient(t, 1, asOf)
	f.addInvoice(t, 1, invoicedomain.StatusPaid, 10000, future, old)
	f.addInvoice(t, 1, invoicedomain.StatusSent, 7000, future, old)

	// Another tenant's records must never leak into the snapshot.
	f.addClient(t, 2, asOf)
	f.addInvoice(t, 2, invoicedomain.StatusPaid, 99999, future, old)

	snapshot, err := f.svc.Snapshot(userCtx(1))
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}
	if snapshot.TotalClients != 2 {
		t.Fatalf("total clients = %d, want 2", snapshot.TotalClients)
	}
	if snapshot.TotalInvoices != 2 {
		t.Fatalf("total invoices = %d, want 2", snapshot.TotalInvoices)
	}
	if snapshot.TotalRevenueCents != 10000 {
		t.Fatalf("total revenue = %d, want 10000", snapshot.TotalRevenueCents)
	}
	if snapshot.PendingRevenueCents != 7000 {
		t.Fatalf("pending revenue = %d, want 7000", snapshot.PendingRevenueCents)
	}
	if snapshot.CollectionRate != 50 {
		t.Fatalf("collection rate = %d, want 50", snapshot.CollectionRate)
	}
	if snapshot.RecentClients != 1 {
		t.Fatalf("recent clients = %d, want 1", snapshot.RecentClients)
	}
}

func TestSnapshotEmptyTenant(t *testing.T) {
	f := newFixture(t)

	snapshot, err := f.svc.Snapshot(userCtx(1))
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}
	if snapshot != (domain.Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snapshot)
	}
}

func TestSnapshotFailsWhenAnyFetchFails(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, 1, asOf)
	f.addInvoice(t, 1, invoicedomain.StatusPaid, 100, asOf, asOf)

	// One failing fetch fails the whole snapshot; there is no partial result.
	if err := f.db.Exec(`DROP TABLE clients`).Error; err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	snapshot, err := f.svc.Snapshot(userCtx(1))
	if err == nil {
		t.Fatal("expected snapshot to fail")
	}
	if snapshot != (domain.Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snapshot)
	}
}

func TestSnapshotOverdueCount(t *testing.T) {
	f := newFixture(t)
	old := asOf.AddDate(0, -6, 0)
	past := asOf.AddDate(0, 0, -3)

	f.addInvoice(t, 1, invoicedomain.StatusSent, 100, past, old)
	f.addInvoice(t, 1, invoicedomain.StatusDraft, 100, past, old)
	f.addInvoice(t, 1, invoicedomain.StatusOverdue, 100, past, old)

	snapshot, err := f.svc.Snapshot(userCtx(1))
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}
	if snapshot.OverdueInvoices != 2 {
		t.Fatalf("overdue = %d, want 2", snapshot.OverdueInvoices)
	}
}
