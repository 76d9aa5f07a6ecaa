package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/stockbook/internal/contact/domain"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, businessID, id int64) (*domain.Contact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindByIDAndRole(ctx context.Context, db *gorm.DB, businessID, id int64, role string) (*domain.Contact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Where("business_id = ? AND id = ? AND role = ?", businessID, id, role).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, businessID int64, ids []int64) ([]domain.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Contact
	err := db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID int64, filter domain.ListRequest, page pagination.Pagination) ([]domain.Contact, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("business_id = ?", businessID)

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Contact
	err := stmt.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) CountByRole(ctx context.Context, db *gorm.DB, businessID int64, role string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("business_id = ? AND role = ?", businessID, role).
		Count(&total).Error
	return total, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	if contact == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE contacts
		 SET name = ?, phone = ?, email = ?, address = ?, updated_at = ?
		 WHERE business_id = ? AND id = ?`,
		contact.Name,
		contact.Phone,
		contact.Email,
		contact.Address,
		contact.UpdatedAt,
		contact.BusinessID,
		contact.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, businessID, id int64) error {
	return db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Delete(&domain.Contact{}).Error
}
