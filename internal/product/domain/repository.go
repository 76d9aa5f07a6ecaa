package domain

import (
	"context"

	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id int64) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, businessID int64, ids []int64) ([]Product, error)
	FindAll(ctx context.Context, db *gorm.DB, businessID int64) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, businessID int64, filter ListRequest, page pagination.Pagination) ([]Product, int64, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, businessID, id int64) error

	// ApplyStockDelta adjusts stock by delta iff the result stays
	// non-negative. Returns false when no row qualified.
	ApplyStockDelta(ctx context.Context, db *gorm.DB, businessID, id, delta int64) (bool, error)
}
