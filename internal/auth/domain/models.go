package domain

import "time"

// Business is the tenant: one account owns all products, contacts and
// transactions created under it.
type Business struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:text;not null;uniqueIndex:ux_businesses_username"`
	Email        string    `json:"email" gorm:"type:text;not null;uniqueIndex:ux_businesses_email"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:text;not null"`
	BusinessName string    `json:"business_name" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Business) TableName() string { return "businesses" }
