package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	default:
		return false
	}
}

// RecurringInvoice is a template that materializes into concrete invoices.
// Totals are computed at write time like on invoices; materialization copies
// them verbatim.
type RecurringInvoice struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID            snowflake.ID `gorm:"not null;index" json:"user_id"`
	ClientID          snowflake.ID `gorm:"not null" json:"client_id"`
	TemplateNumber    string       `gorm:"column:template_number" json:"template_number"`
	Frequency         Frequency    `gorm:"not null" json:"frequency"`
	NextDueDate       time.Time    `gorm:"column:next_due_date;not null" json:"next_due_date"`
	LastGeneratedDate *time.Time   `gorm:"column:last_generated_date" json:"last_generated_date,omitempty"`
	IsActive          bool         `gorm:"column:is_active;not null;default:true" json:"is_active"`
	TaxRate           float64      `gorm:"column:tax_rate;not null;default:0" json:"tax_rate"`
	SubtotalCents     int64        `gorm:"column:subtotal_cents;not null;default:0" json:"subtotal_cents"`
	TaxCents          int64        `gorm:"column:tax_cents;not null;default:0" json:"tax_cents"`
	TotalCents        int64        `gorm:"column:total_cents;not null;default:0" json:"total_cents"`
	Notes             string       `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []RecurringInvoiceItem `gorm:"-" json:"items,omitempty"`
}

type RecurringInvoiceItem struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	RecurringInvoiceID snowflake.ID `gorm:"column:recurring_invoice_id;not null;index" json:"recurring_invoice_id"`
	Description        string       `gorm:"not null" json:"description"`
	Quantity           float64      `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents     int64        `gorm:"column:unit_price_cents;not null;default:0" json:"unit_price_cents"`
	AmountCents        int64        `gorm:"column:amount_cents;not null;default:0" json:"amount_cents"`
	Position           int          `gorm:"not null;default:0" json:"position"`
}
