package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, *pagination.PageInfo, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*Response, error)
}

type CreateRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    string          `json:"category"`
	Metadata    map[string]any  `json:"metadata"`
}

type UpdateRequest struct {
	ID          string           `json:"-"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Metadata    map[string]any   `json:"metadata"`
}

type ListRequest struct {
	Search   string
	Category string
	SortBy   string
	OrderBy  string
	Page     pagination.Pagination
}

const (
	StockOperationAdd    = "add"
	StockOperationRemove = "remove"
)

type AdjustStockRequest struct {
	ID        string `json:"-"`
	Operation string `json:"operation"`
	Quantity  int64  `json:"quantity"`
}

type Response struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    string          `json:"category"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

var (
	ErrInvalidBusiness  = errors.New("invalid_business")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidStock     = errors.New("invalid_stock")
	ErrInvalidCategory  = errors.New("invalid_category")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)

// InsufficientStockError reports a stock underflow. It carries enough detail
// for the caller to adjust quantities, and is shared by the direct stock
// adjustment path and the transaction commit path.
type InsufficientStockError struct {
	ProductID snowflake.ID
	Name      string
	Available int64
	Required  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s. Available: %d, Required: %d",
		e.Name, e.Available, e.Required)
}
