package services

import (
	"errors"
	"fmt"
	"log"

	"momopay/internal/models"
	"momopay/internal/repositories"

	"github.com/shopspring/decimal"
)

// Provider status strings accepted from the webhook. Anything else is
// rejected as ErrUnknownProviderStatus rather than stored verbatim.
const (
	providerStatusSuccess = "success"
	providerStatusFailed  = "failed"
)

// WebhookNotification is the parsed body of a provider notification.
// Signature verification happens on the raw bytes before this struct
// ever exists. Amount is a pointer so an absent field is distinguishable
// from a genuine zero echo; only a present, mismatching amount is worth
// warning about.
type WebhookNotification struct {
	OrderID           string           `json:"order_id"`
	ProviderReference string           `json:"provider_reference"`
	Status            string           `json:"status"`
	Amount            *decimal.Decimal `json:"amount"`
}

// ConfirmationEnqueuer hands a confirmation job to the async queue.
type ConfirmationEnqueuer interface {
	EnqueueConfirmation(orderID string) error
}

// WebhookService applies provider payment notifications to the payment
// state machine: at most one Payment/Order mutation and at most one
// confirmation enqueue per unique provider reference, however many times
// the provider delivers the notification.
type WebhookService struct {
	store    repositories.Store
	enqueuer ConfirmationEnqueuer
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(store repositories.Store, enqueuer ConfirmationEnqueuer) *WebhookService {
	return &WebhookService{store: store, enqueuer: enqueuer}
}

// ProcessNotification applies a verified notification. It returns
// processed=false with a nil error when the provider reference was
// already applied, which the handler acknowledges as success so the
// provider stops redelivering.
func (s *WebhookService) ProcessNotification(n WebhookNotification) (processed bool, err error) {
	var enqueueOrderID string

	err = s.store.Atomic(func(tx repositories.Store) error {
		// Idempotency short-circuit: a payment already carrying this
		// provider reference means the transaction was applied before.
		if _, err := tx.Payments().GetByProviderReference(n.ProviderReference); err == nil {
			processed = false
			return nil
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		// First sight: locate the payment by order and hold the row lock
		// until commit, serializing concurrent deliveries.
		payment, err := tx.Payments().GetByOrderIDForUpdate(n.OrderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("order %s: %w", n.OrderID, ErrPaymentNotFound)
			}
			return err
		}

		switch n.Status {
		case providerStatusSuccess:
			if payment.Status != models.PaymentInitiated {
				// Terminal already, SUCCESS or FAILED; a late or
				// contradictory delivery never resurrects it. Treat like
				// the short-circuit above.
				processed = false
				return nil
			}
			if n.Amount != nil && !n.Amount.Equal(payment.Amount) {
				log.Printf("WARNING: webhook amount %s differs from payment %s amount %s",
					n.Amount, payment.ID, payment.Amount)
			}
			ref := n.ProviderReference
			payment.Status = models.PaymentSuccess
			payment.ProviderReference = &ref
			if err := tx.Payments().Save(payment); err != nil {
				return err
			}

			order, err := tx.Orders().GetByIDForUpdate(payment.OrderID)
			if err != nil {
				return err
			}
			order.Status = models.OrderPaid
			if err := tx.Orders().Save(order); err != nil {
				return err
			}

			enqueueOrderID = order.ID
			processed = true
			return nil

		case providerStatusFailed:
			if payment.Status != models.PaymentInitiated {
				// Terminal payments are never transitioned again.
				processed = false
				return nil
			}
			payment.Status = models.PaymentFailed
			if err := tx.Payments().Save(payment); err != nil {
				return err
			}
			// The order stays PENDING; a failed charge is not a
			// cancellation.
			processed = true
			return nil

		default:
			return fmt.Errorf("status %q: %w", n.Status, ErrUnknownProviderStatus)
		}
	})
	if err != nil {
		return false, err
	}

	// Enqueue only after the transaction is known to have committed. A
	// redelivered notification hits the short-circuit above, so at most
	// one enqueue happens per provider reference.
	if enqueueOrderID != "" {
		if err := s.enqueuer.EnqueueConfirmation(enqueueOrderID); err != nil {
			// State is committed; losing the enqueue is an operator
			// problem, not a reason to fail the webhook.
			log.Printf("ERROR: failed to enqueue confirmation for order %s: %v", enqueueOrderID, err)
		}
	}
	return processed, nil
}
