package services

import (
	"errors"
	"fmt"
	"time"

	"momopay/internal/models"
	"momopay/internal/repositories"

	"github.com/google/uuid"
)

// PaymentService handles payment intent creation. It shares the
// idempotency ledger with the webhook path: the client-supplied
// Idempotency-Key guarantees at most one payment row per key.
type PaymentService struct {
	store repositories.Store
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store repositories.Store) *PaymentService {
	return &PaymentService{store: store}
}

// CreateCharge creates a payment intent for an order, or returns the
// existing payment unchanged when the idempotency key was seen before.
// The returned bool is true only when a new payment row was created.
//
// The amount is always copied from the order's total_amount; any
// client-supplied amount is ignored so a client cannot tamper with what
// it owes.
func (s *PaymentService) CreateCharge(orderID, idempotencyKey string) (*models.Payment, bool, error) {
	var (
		payment *models.Payment
		created bool
	)

	err := s.store.Atomic(func(tx repositories.Store) error {
		existing, err := tx.Payments().GetByIdempotencyKey(idempotencyKey)
		if err == nil {
			// Replay of the same intent: return it as-is, no new row.
			payment = existing
			created = false
			return nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		order, err := tx.Orders().GetByID(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
			}
			return err
		}

		payment = &models.Payment{
			ID:             uuid.New().String(),
			OrderID:        order.ID,
			Amount:         order.TotalAmount,
			IdempotencyKey: idempotencyKey,
			Status:         models.PaymentInitiated,
			CreatedAt:      time.Now(),
		}
		if err := tx.Payments().Create(payment); err != nil {
			return err
		}
		created = true
		return nil
	})

	if err != nil {
		// Two concurrent first calls can race past the read; the unique
		// constraint on idempotency_key aborts the loser's transaction.
		// Re-read outside the failed transaction and hand back the
		// winner's row.
		if winner, gerr := s.store.Payments().GetByIdempotencyKey(idempotencyKey); gerr == nil {
			return winner, false, nil
		}
		return nil, false, err
	}
	return payment, created, nil
}

// GetPaymentByIdempotencyKey retrieves a payment by its client key.
func (s *PaymentService) GetPaymentByIdempotencyKey(key string) (*models.Payment, error) {
	return s.store.Payments().GetByIdempotencyKey(key)
}
