package repository

import (
	"context"

	"github.com/smallbiznis/stockbook/internal/auth/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, business *domain.Business) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Business, error)
	FindByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.Business, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, business *domain.Business) error {
	return db.WithContext(ctx).Create(business).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Business, error) {
	var b domain.Business
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) FindByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.Business, error) {
	var b domain.Business
	err := db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}
