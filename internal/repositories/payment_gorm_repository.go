package repositories

import (
	"errors"
	"fmt"

	"momopay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

// Create persists a new payment. The unique constraints on
// idempotency_key and provider_reference surface here as errors when two
// concurrent creates race; callers resolve by re-reading the winner.
func (r *GORMPaymentRepository) Create(payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if err := r.db.Omit(clause.Associations).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByIdempotencyKey looks up a payment by its client-supplied key.
func (r *GORMPaymentRepository) GetByIdempotencyKey(key string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment with idempotency key %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by idempotency key: %w", err)
	}
	return &payment, nil
}

// GetByProviderReference looks up a payment by the provider's own
// transaction identifier.
func (r *GORMPaymentRepository) GetByProviderReference(ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "provider_reference = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment with provider reference %s: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by provider reference: %w", err)
	}
	return &payment, nil
}

// GetByOrderIDForUpdate locates the payment for an order with its row
// locked until the surrounding transaction commits.
func (r *GORMPaymentRepository) GetByOrderIDForUpdate(orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := forUpdate(r.db).First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock payment for order %s: %w", orderID, err)
	}
	return &payment, nil
}

// Save persists changes to the payment row.
func (r *GORMPaymentRepository) Save(payment *models.Payment) error {
	if err := r.db.Omit(clause.Associations).Save(payment).Error; err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.ID, err)
	}
	return nil
}
