package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/internal/recurring/domain"
	"github.com/smallbiznis/billfold/pkg/db/option"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, template *domain.RecurringInvoice) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO recurring_invoices (id, user_id, client_id, template_number, frequency,
			                                 next_due_date, last_generated_date, is_active, tax_rate,
			                                 subtotal_cents, tax_cents, total_cents, notes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			template.ID,
			template.UserID,
			template.ClientID,
			template.TemplateNumber,
			template.Frequency,
			template.NextDueDate,
			template.LastGeneratedDate,
			template.IsActive,
			template.TaxRate,
			template.SubtotalCents,
			template.TaxCents,
			template.TotalCents,
			template.Notes,
			template.CreatedAt,
			template.UpdatedAt,
		).Error
		if err != nil {
			return err
		}
		return insertItems(tx, template.ID, template.Items)
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.RecurringInvoice, error) {
	var template domain.RecurringInvoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, client_id, template_number, frequency, next_due_date,
		        last_generated_date, is_active, tax_rate, subtotal_cents, tax_cents,
		        total_cents, notes, created_at, updated_at
		 FROM recurring_invoices WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&template).Error
	if err != nil {
		return nil, err
	}
	if template.ID == 0 {
		return nil, nil
	}
	if err := r.loadItems(ctx, db, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter domain.ListTemplateFilter, page pagination.Pagination) ([]*domain.RecurringInvoice, error) {
	var templates []*domain.RecurringInvoice
	stmt := db.WithContext(ctx).
		Model(&domain.RecurringInvoice{}).
		Where("user_id = ?", userID)
	if filter.Active != nil {
		stmt = stmt.Where("is_active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, asOf time.Time) ([]*domain.RecurringInvoice, error) {
	var templates []*domain.RecurringInvoice
	err := db.WithContext(ctx).
		Model(&domain.RecurringInvoice{}).
		Where("is_active = ? AND next_due_date <= ?", true, asOf).
		Order("next_due_date asc, id asc").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	for _, template := range templates {
		if err := r.loadItems(ctx, db, template); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, template *domain.RecurringInvoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices SET client_id = ?, template_number = ?, frequency = ?,
		        next_due_date = ?, is_active = ?, tax_rate = ?, subtotal_cents = ?,
		        tax_cents = ?, total_cents = ?, notes = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		template.ClientID,
		template.TemplateNumber,
		template.Frequency,
		template.NextDueDate,
		template.IsActive,
		template.TaxRate,
		template.SubtotalCents,
		template.TaxCents,
		template.TotalCents,
		template.Notes,
		template.UpdatedAt,
		template.UserID,
		template.ID,
	).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID, items []domain.RecurringInvoiceItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM recurring_invoice_items WHERE recurring_invoice_id = ?`, templateID).Error; err != nil {
			return err
		}
		return insertItems(tx, templateID, items)
	})
}

func (r *repo) MarkGenerated(ctx context.Context, db *gorm.DB, id snowflake.ID, generatedDate, nextDueDate time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices SET last_generated_date = ?, next_due_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		generatedDate,
		nextDueDate,
		id,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`DELETE FROM recurring_invoice_items WHERE recurring_invoice_id IN
			 (SELECT id FROM recurring_invoices WHERE user_id = ? AND id = ?)`,
			userID,
			id,
		).Error
		if err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM recurring_invoices WHERE user_id = ? AND id = ?`, userID, id).Error
	})
}

func (r *repo) loadItems(ctx context.Context, db *gorm.DB, template *domain.RecurringInvoice) error {
	return db.WithContext(ctx).Raw(
		`SELECT id, recurring_invoice_id, description, quantity, unit_price_cents, amount_cents, position
		 FROM recurring_invoice_items WHERE recurring_invoice_id = ? ORDER BY position ASC, id ASC`,
		template.ID,
	).Scan(&template.Items).Error
}

func insertItems(tx *gorm.DB, templateID snowflake.ID, items []domain.RecurringInvoiceItem) error {
	for _, item := range items {
		err := tx.Exec(
			`INSERT INTO recurring_invoice_items (id, recurring_invoice_id, description, quantity, unit_price_cents, amount_cents, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			templateID,
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
