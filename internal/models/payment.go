package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the closed set of payment states. Success and Failed
// are terminal.
type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "INITIATED"
	PaymentSuccess   PaymentStatus = "SUCCESS"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment represents a charge attempt against an order.
//
// IdempotencyKey is client-supplied and globally unique: the database
// constraint, not application logic, is what guarantees a single charge
// per key. ProviderReference is the provider's own transaction ID; it is
// nil until the success webhook is applied and unique from then on, which
// makes it the natural idempotency key for webhook redelivery.
type Payment struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID           string          `json:"order_id" gorm:"type:varchar(36);index"`
	Order             *Order          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:decimal(12,2)"`
	IdempotencyKey    string          `json:"idempotency_key" gorm:"uniqueIndex;type:varchar(128)"`
	ProviderReference *string         `json:"provider_reference,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);index"`
	CreatedAt         time.Time       `json:"created_at"`
}
