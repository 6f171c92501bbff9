package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderItem is a single line of an order. UnitPrice is the product price
// snapshotted at order creation time.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2)"`
}

// Order represents a customer order.
// TotalAmount equals the sum of its items' unit_price * quantity at
// creation time and is never edited independently afterwards.
type Order struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID       string          `json:"customer_id" gorm:"type:varchar(36);index"`
	Items            []OrderItem     `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	Status           OrderStatus     `json:"status" gorm:"type:varchar(20);index"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	ConfirmationSent bool            `json:"confirmation_sent"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
