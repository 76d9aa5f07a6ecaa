package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Kind       string
	CustomerID *int64
	VendorID   *int64
	StartDate  *time.Time
	EndDate    *time.Time
}

type Repository interface {
	// Insert persists a transaction and its lines. Callers run it inside
	// an atomic scope together with the stock deltas.
	Insert(ctx context.Context, db *gorm.DB, txn *Transaction, lines []TransactionLine) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id int64) (*Transaction, error)
	Find(ctx context.Context, db *gorm.DB, businessID int64, filter ListFilter, page pagination.Pagination) ([]Transaction, int64, error)
	FindAll(ctx context.Context, db *gorm.DB, businessID int64, filter ListFilter) ([]Transaction, error)
	LinesByTransactionIDs(ctx context.Context, db *gorm.DB, transactionIDs []int64) ([]TransactionLine, error)
}
