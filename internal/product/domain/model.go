package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID          int64             `json:"id" gorm:"primaryKey"`
	BusinessID  int64             `json:"business_id" gorm:"column:business_id;not null;index:ix_products_business_category,priority:1"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description *string           `json:"description,omitempty" gorm:"type:text"`
	Price       decimal.Decimal   `json:"price" gorm:"type:numeric(18,2);not null"`
	Stock       int64             `json:"stock" gorm:"not null;default:0"`
	Category    string            `json:"category" gorm:"type:text;not null;index:ix_products_business_category,priority:2"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
