package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/billfold/pkg/db/pagination"
)

type LineItemInput struct {
	Description    string
	Quantity       float64
	UnitPriceCents int64
}

type CreateInvoiceRequest struct {
	ClientID      string
	InvoiceNumber string
	Status        Status
	IssueDate     time.Time
	DueDate       time.Time
	TaxRate       float64
	Notes         string
	Items         []LineItemInput
}

type UpdateInvoiceRequest struct {
	ID            string
	ClientID      *string
	InvoiceNumber *string
	IssueDate     *time.Time
	DueDate       *time.Time
	TaxRate       *float64
	Notes         *string
	Items         []LineItemInput // nil means leave items untouched
}

type ListInvoiceRequest struct {
	PageToken string
	PageSize  int32
	Status    Status
	ClientID  string
}

type ListInvoiceFilter struct {
	Status   Status
	ClientID string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type GetInvoiceRequest struct {
	ID string
}

type DeleteInvoiceRequest struct {
	ID string
}

type UpdateStatusRequest struct {
	ID     string
	Status Status
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(context.Context, GetInvoiceRequest) (Invoice, error)
	Update(context.Context, UpdateInvoiceRequest) (Invoice, error)
	Delete(context.Context, DeleteInvoiceRequest) error
	UpdateStatus(context.Context, UpdateStatusRequest) (Invoice, error)
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidClient   = errors.New("invalid_client")
	ErrInvalidNumber   = errors.New("invalid_invoice_number")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidDates    = errors.New("invalid_dates")
	ErrInvalidItem     = errors.New("invalid_item")
	ErrNotFound        = errors.New("not_found")
	ErrDuplicateNumber = errors.New("duplicate_invoice_number")
)
