package services

import (
	"errors"
	"fmt"
	"log"

	"momopay/internal/notifier"
	"momopay/internal/repositories"
)

// ConfirmationService is the body of the async confirmation job. It is
// idempotent: the confirmation_sent flag is checked and set under the
// same order row lock, so at-least-once delivery by the queue (or a
// duplicate enqueue) sends the message at most once.
type ConfirmationService struct {
	store    repositories.Store
	notifier notifier.Notifier
}

// NewConfirmationService creates a new ConfirmationService.
func NewConfirmationService(store repositories.Store, n notifier.Notifier) *ConfirmationService {
	return &ConfirmationService{store: store, notifier: n}
}

// SendConfirmation sends the order confirmation message unless it was
// already sent. A missing order wraps ErrOrderNotFound, which callers
// must treat as permanent; any other failure is transient and retryable.
func (s *ConfirmationService) SendConfirmation(orderID string) error {
	return s.store.Atomic(func(tx repositories.Store) error {
		order, err := tx.Orders().GetByIDForUpdate(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
			}
			return err
		}

		if order.ConfirmationSent {
			log.Printf("Confirmation for order %s already sent, skipping", orderID)
			return nil
		}

		customer, err := tx.Customers().GetByID(order.CustomerID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// The order's customer will never appear either.
				return fmt.Errorf("customer for order %s: %w", orderID, ErrOrderNotFound)
			}
			return err
		}

		if err := s.notifier.SendConfirmation(customer.PhoneNumber, orderID); err != nil {
			return fmt.Errorf("failed to send confirmation for order %s: %w", orderID, err)
		}

		// Flag flips only after the send succeeded, before the lock is
		// released.
		order.ConfirmationSent = true
		return tx.Orders().Save(order)
	})
}
