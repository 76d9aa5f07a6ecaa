package domain

import "time"

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
)

type Contact struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	BusinessID int64     `json:"business_id" gorm:"column:business_id;not null;index:ix_contacts_business_role,priority:1"`
	Name       string    `json:"name" gorm:"type:text;not null"`
	Phone      string    `json:"phone" gorm:"type:text;not null"`
	Email      *string   `json:"email,omitempty" gorm:"type:text"`
	Address    *string   `json:"address,omitempty" gorm:"type:text"`
	Role       string    `json:"role" gorm:"type:text;not null;index:ix_contacts_business_role,priority:2"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Contact) TableName() string { return "contacts" }

func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleVendor
}
