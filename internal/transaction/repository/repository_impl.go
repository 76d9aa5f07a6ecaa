package repository

import (
	"context"

	"github.com/smallbiznis/stockbook/internal/transaction/domain"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *domain.Transaction, lines []domain.TransactionLine) error {
	if err := db.WithContext(ctx).Create(txn).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&lines).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, businessID, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	err := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Limit(1).
		Find(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, businessID int64, filter domain.ListFilter, page pagination.Pagination) ([]domain.Transaction, int64, error) {
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Transaction{}), businessID, filter)

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Transaction
	err := stmt.Order("occurred_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, businessID int64, filter domain.ListFilter) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := applyFilter(db.WithContext(ctx).Model(&domain.Transaction{}), businessID, filter).
		Order("occurred_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) LinesByTransactionIDs(ctx context.Context, db *gorm.DB, transactionIDs []int64) ([]domain.TransactionLine, error) {
	if len(transactionIDs) == 0 {
		return nil, nil
	}
	var lines []domain.TransactionLine
	err := db.WithContext(ctx).
		Where("transaction_id IN ?", transactionIDs).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func applyFilter(stmt *gorm.DB, businessID int64, filter domain.ListFilter) *gorm.DB {
	stmt = stmt.Where("business_id = ?", businessID)
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.CustomerID != nil {
		stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VendorID != nil {
		stmt = stmt.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.StartDate != nil {
		stmt = stmt.Where("occurred_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		stmt = stmt.Where("occurred_at <= ?", *filter.EndDate)
	}
	return stmt
}
