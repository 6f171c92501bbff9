package repositories

import "momopay/internal/models"

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	// GetByIdempotencyKey serves the client-key side of the idempotency
	// ledger: a hit means the charge intent was already created.
	GetByIdempotencyKey(key string) (*models.Payment, error)
	// GetByProviderReference serves the webhook side: a hit means the
	// provider transaction was already applied.
	GetByProviderReference(ref string) (*models.Payment, error)
	// GetByOrderIDForUpdate locates the payment for an order and locks
	// its row for the duration of the surrounding transaction.
	GetByOrderIDForUpdate(orderID string) (*models.Payment, error)
	Save(payment *models.Payment) error
}
