package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, template *RecurringInvoice) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*RecurringInvoice, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListTemplateFilter, page pagination.Pagination) ([]*RecurringInvoice, error)
	// ListDue returns active templates across all tenants with
	// next_due_date <= asOf, items loaded.
	ListDue(ctx context.Context, db *gorm.DB, asOf time.Time) ([]*RecurringInvoice, error)
	Update(ctx context.Context, db *gorm.DB, template *RecurringInvoice) error
	ReplaceItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID, items []RecurringInvoiceItem) error
	MarkGenerated(ctx context.Context, db *gorm.DB, id snowflake.ID, generatedDate, nextDueDate time.Time) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
}
