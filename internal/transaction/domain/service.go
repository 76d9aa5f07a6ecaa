package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
)

type Service interface {
	// Create validates, prices and commits a transaction together with its
	// stock effects as one atomic unit.
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, *pagination.PageInfo, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListByContact(ctx context.Context, contactID string, page pagination.Pagination) (*ContactTransactionsResponse, error)
}

type LineItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateRequest struct {
	Kind       string            `json:"kind"`
	CustomerID *string           `json:"customer_id"`
	VendorID   *string           `json:"vendor_id"`
	LineItems  []LineItemRequest `json:"line_items"`
	OccurredAt *time.Time        `json:"occurred_at"`
}

type ListRequest struct {
	Kind      string
	StartDate *time.Time
	EndDate   *time.Time
	Page      pagination.Pagination
}

// ContactSummary and ProductSummary are read-side enrichments resolved after
// commit; they are never persisted on the transaction record.
type ContactSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type LineItemResponse struct {
	ProductID string          `json:"product_id"`
	Product   *ProductSummary `json:"product,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Response struct {
	ID          string             `json:"id"`
	BusinessID  string             `json:"business_id"`
	Kind        string             `json:"kind"`
	Customer    *ContactSummary    `json:"customer,omitempty"`
	Vendor      *ContactSummary    `json:"vendor,omitempty"`
	LineItems   []LineItemResponse `json:"line_items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	OccurredAt  time.Time          `json:"occurred_at"`
	CreatedAt   time.Time          `json:"created_at"`
}

type ContactTransactionsResponse struct {
	Contact      ContactSummary      `json:"contact"`
	Role         string              `json:"role"`
	Transactions []Response          `json:"transactions"`
	PageInfo     pagination.PageInfo `json:"pagination"`
}

var (
	ErrInvalidBusiness  = errors.New("invalid_business")
	ErrInvalidKind      = errors.New("invalid_kind")
	ErrMissingCustomer  = errors.New("missing_customer")
	ErrMissingVendor    = errors.New("missing_vendor")
	ErrContactMismatch  = errors.New("contact_mismatch")
	ErrEmptyLineItems   = errors.New("empty_line_items")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrContactNotFound  = errors.New("contact_not_found")
	ErrProductNotFound  = errors.New("product_not_found")
)
