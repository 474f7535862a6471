package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	ListAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Invoice, error)
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []InvoiceItem) error
	UpdateStatus(ctx context.Context, db *gorm.DB, userID, id snowflake.ID, status Status) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
}
