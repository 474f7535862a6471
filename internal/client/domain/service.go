package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/billfold/pkg/db/pagination"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Email     string
}

type ListClientFilter struct {
	Name  string
	Email string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type CreateClientRequest struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type UpdateClientRequest struct {
	ID      string
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type GetClientRequest struct {
	ID string
}

type DeleteClientRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
	GetByID(context.Context, GetClientRequest) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	Delete(context.Context, DeleteClientRequest) error
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
