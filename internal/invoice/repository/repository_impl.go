package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/pkg/db/option"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO invoices (id, user_id, client_id, recurring_invoice_id, invoice_number, status,
			                       issue_date, due_date, subtotal_cents, tax_rate, tax_cents, total_cents,
			                       notes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			invoice.ID,
			invoice.UserID,
			invoice.ClientID,
			invoice.RecurringInvoiceID,
			invoice.InvoiceNumber,
			invoice.Status,
			invoice.IssueDate,
			invoice.DueDate,
			invoice.SubtotalCents,
			invoice.TaxRate,
			invoice.TaxCents,
			invoice.TotalCents,
			invoice.Notes,
			invoice.CreatedAt,
			invoice.UpdatedAt,
		).Error
		if err != nil {
			return err
		}
		return insertItems(tx, invoice.ID, invoice.Items)
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, client_id, recurring_invoice_id, invoice_number, status,
		        issue_date, due_date, subtotal_cents, tax_rate, tax_cents, total_cents,
		        notes, created_at, updated_at
		 FROM invoices WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}

	err = db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, description, quantity, unit_price_cents, amount_cents, position
		 FROM invoice_items WHERE invoice_id = ? ORDER BY position ASC, id ASC`,
		invoice.ID,
	).Scan(&invoice.Items).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("user_id = ?", userID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != "" {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("user_id = ?", userID).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET client_id = ?, invoice_number = ?, issue_date = ?, due_date = ?,
		        subtotal_cents = ?, tax_rate = ?, tax_cents = ?, total_cents = ?, notes = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		invoice.ClientID,
		invoice.InvoiceNumber,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.SubtotalCents,
		invoice.TaxRate,
		invoice.TaxCents,
		invoice.TotalCents,
		invoice.Notes,
		invoice.UpdatedAt,
		invoice.UserID,
		invoice.ID,
	).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID).Error; err != nil {
			return err
		}
		return insertItems(tx, invoiceID, items)
	})
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, userID, id snowflake.ID, status domain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND id = ?`,
		status,
		userID,
		id,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE user_id = ? AND id = ?)`,
			userID,
			id,
		).Error
		if err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM invoices WHERE user_id = ? AND id = ?`, userID, id).Error
	})
}

func insertItems(tx *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	for _, item := range items {
		err := tx.Exec(
			`INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price_cents, amount_cents, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			invoiceID,
			item.Description,
			item.Quantity,
			item.UnitPriceCents,
			item.AmountCents,
			item.Position,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}
