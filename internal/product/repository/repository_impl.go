package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, businessID, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, businessID int64, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, businessID int64) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID int64, filter domain.ListRequest, page pagination.Pagination) ([]domain.Product, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("business_id = ?", businessID)

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.Category != "" {
		stmt = stmt.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(filter.Category)+"%")
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt = stmt.Order(sortClause(filter.SortBy, filter.OrderBy)).
		Offset(page.Offset()).
		Limit(page.Limit)

	var items []domain.Product
	if err := stmt.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, description = ?, price = ?, category = ?, metadata = ?, updated_at = ?
		 WHERE business_id = ? AND id = ?`,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Metadata,
		product.UpdatedAt,
		product.BusinessID,
		product.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, businessID, id int64) error {
	return db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Delete(&domain.Product{}).Error
}

// ApplyStockDelta is the single write path for stock. The WHERE clause keeps
// the non-negative invariant inside the statement itself, so concurrent
// writers cannot drive stock below zero regardless of what they read earlier.
func (r *repo) ApplyStockDelta(ctx context.Context, db *gorm.DB, businessID, id, delta int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE business_id = ? AND id = ? AND stock + ? >= 0`,
		delta,
		businessID,
		id,
		delta,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func sortClause(sortBy, orderBy string) string {
	allowed := map[string]bool{
		"name":       true,
		"price":      true,
		"stock":      true,
		"category":   true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	if strings.EqualFold(orderBy, "asc") {
		return sortBy + " ASC"
	}
	return sortBy + " DESC"
}
