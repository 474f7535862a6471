package domain

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/smallbiznis/billfold/internal/invoice/domain"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
)

type CreateTemplateRequest struct {
	ClientID       string
	TemplateNumber string
	Frequency      Frequency
	NextDueDate    time.Time
	TaxRate        float64
	Notes          string
	Items          []invoicedomain.LineItemInput
}

type UpdateTemplateRequest struct {
	ID             string
	ClientID       *string
	TemplateNumber *string
	Frequency      *Frequency
	NextDueDate    *time.Time
	IsActive       *bool
	TaxRate        *float64
	Notes          *string
	Items          []invoicedomain.LineItemInput // nil leaves items untouched
}

type ListTemplateRequest struct {
	PageToken string
	PageSize  int32
	Active    *bool
}

type ListTemplateFilter struct {
	Active *bool
}

type ListTemplateResponse struct {
	pagination.PageInfo
	Templates []RecurringInvoice `json:"recurring_invoices"`
}

type GetTemplateRequest struct {
	ID string
}

type DeleteTemplateRequest struct {
	ID string
}

// MaterializeResult reports one projection run across all tenants.
type MaterializeResult struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

type Service interface {
	Create(context.Context, CreateTemplateRequest) (RecurringInvoice, error)
	List(context.Context, ListTemplateRequest) (ListTemplateResponse, error)
	GetByID(context.Context, GetTemplateRequest) (RecurringInvoice, error)
	Update(context.Context, UpdateTemplateRequest) (RecurringInvoice, error)
	Delete(context.Context, DeleteTemplateRequest) error

	// Materialize generates invoices for every due template. It is invoked by
	// an external cron through the admin endpoint; there is no in-process
	// scheduler.
	Materialize(ctx context.Context, asOf time.Time) (MaterializeResult, error)
}

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidFrequency = errors.New("invalid_frequency")
	ErrInvalidDueDate   = errors.New("invalid_due_date")
	ErrInvalidItem      = errors.New("invalid_item")
	ErrNotFound         = errors.New("not_found")
)
