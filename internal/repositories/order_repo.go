package repositories

import "momopay/internal/models"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	// GetByIDForUpdate locks the order row for the duration of the
	// surrounding transaction. Only meaningful inside Store.Atomic.
	GetByIDForUpdate(id string) (*models.Order, error)
	Save(order *models.Order) error
}
