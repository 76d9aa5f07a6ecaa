package domain

import (
	"context"

	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, contact *Contact) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id int64) (*Contact, error)
	FindByIDAndRole(ctx context.Context, db *gorm.DB, businessID, id int64, role string) (*Contact, error)
	FindByIDs(ctx context.Context, db *gorm.DB, businessID int64, ids []int64) ([]Contact, error)
	List(ctx context.Context, db *gorm.DB, businessID int64, filter ListRequest, page pagination.Pagination) ([]Contact, int64, error)
	CountByRole(ctx context.Context, db *gorm.DB, businessID int64, role string) (int64, error)
	Update(ctx context.Context, db *gorm.DB, contact *Contact) error
	Delete(ctx context.Context, db *gorm.DB, businessID, id int64) error
}
