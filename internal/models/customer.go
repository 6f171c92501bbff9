package models

import "time"

// Customer represents a registered customer of the shop.
type Customer struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username    string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password    string    `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(20)" validate:"omitempty,e164"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
