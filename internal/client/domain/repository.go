package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
	ListAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Client, error)
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
}
