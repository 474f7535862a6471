package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status labels follow the lifecycle a user assigns by hand. The overdue
// label is cosmetic; analytics treats past-due sent/draft invoices as overdue
// whether or not the label was applied.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
	StatusVoid    Status = "void"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusVoid:
		return true
	default:
		return false
	}
}

// Invoice stores money as integer cents. Totals are computed once at write
// time; readers never recompute them.
type Invoice struct {
	ID                 snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID             snowflake.ID  `gorm:"not null;index;uniqueIndex:uq_invoices_user_number" json:"user_id"`
	ClientID           snowflake.ID  `gorm:"not null" json:"client_id"`
	RecurringInvoiceID *snowflake.ID `gorm:"column:recurring_invoice_id" json:"recurring_invoice_id,omitempty"`
	InvoiceNumber      string        `gorm:"column:invoice_number;not null;uniqueIndex:uq_invoices_user_number" json:"invoice_number"`
	Status             Status        `gorm:"not null;default:draft" json:"status"`
	IssueDate          time.Time     `gorm:"column:issue_date;not null" json:"issue_date"`
	DueDate            time.Time     `gorm:"column:due_date;not null" json:"due_date"`
	SubtotalCents      int64         `gorm:"column:subtotal_cents;not null;default:0" json:"subtotal_cents"`
	TaxRate            float64       `gorm:"column:tax_rate;not null;default:0" json:"tax_rate"`
	TaxCents           int64         `gorm:"column:tax_cents;not null;default:0" json:"tax_cents"`
	TotalCents         int64         `gorm:"column:total_cents;not null;default:0" json:"total_cents"`
	Notes              string        `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []InvoiceItem `gorm:"-" json:"items,omitempty"`
}

type InvoiceItem struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID      snowflake.ID `gorm:"column:invoice_id;not null;index" json:"invoice_id"`
	Description    string       `gorm:"not null" json:"description"`
	Quantity       float64      `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents int64        `gorm:"column:unit_price_cents;not null;default:0" json:"unit_price_cents"`
	AmountCents    int64        `gorm:"column:amount_cents;not null;default:0" json:"amount_cents"`
	Position       int          `gorm:"not null;default:0" json:"position"`
}
