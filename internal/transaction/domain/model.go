package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindSale     = "sale"
	KindPurchase = "purchase"
)

// Transaction is an immutable record of a sale or purchase. There is no
// update path: once committed, the record and its stock effects are final.
type Transaction struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	BusinessID  int64           `json:"business_id" gorm:"column:business_id;not null;index:ix_transactions_business_kind_occurred,priority:1"`
	Kind        string          `json:"kind" gorm:"type:text;not null;index:ix_transactions_business_kind_occurred,priority:2"`
	CustomerID  *int64          `json:"customer_id,omitempty" gorm:"index"`
	VendorID    *int64          `json:"vendor_id,omitempty" gorm:"index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(18,2);not null"`
	OccurredAt  time.Time       `json:"occurred_at" gorm:"not null;index:ix_transactions_business_kind_occurred,priority:3"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Transaction) TableName() string { return "transactions" }

type TransactionLine struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	TransactionID int64           `json:"transaction_id" gorm:"not null;index"`
	ProductID     int64           `json:"product_id" gorm:"not null;index"`
	Quantity      int64           `json:"quantity" gorm:"not null"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:numeric(18,2);not null"`
}

func (TransactionLine) TableName() string { return "transaction_lines" }

func ValidKind(kind string) bool {
	return kind == KindSale || kind == KindPurchase
}
