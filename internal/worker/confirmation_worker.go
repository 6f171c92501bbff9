// Package worker runs the asynchronous confirmation job consumer,
// decoupled from the HTTP request lifecycle.
package worker

import (
	"errors"
	"fmt"
	"log"
	"time"

	"momopay/internal/services"
	"momopay/pkg/rabbitmq"
)

// Queue is the slice of the message broker the worker needs: consuming
// confirmation jobs and parking delayed retries with the broker.
type Queue interface {
	ConsumeConfirmations(handler func(msg rabbitmq.ConfirmationMessage) error) error
	PublishConfirmationRetry(msg rabbitmq.ConfirmationMessage, delay time.Duration) error
}

// ConfirmationWorker consumes confirmation jobs and runs them with
// bounded retries. A transient failure is retried by handing the
// message back to the broker's delayed retry queue with an incremented
// attempt counter, before the failed delivery is acked, so a scheduled
// retry survives a worker crash; a permanent failure (order that will
// never exist) is dropped; exhausted retries are logged as a fatal job
// failure for operator follow-up, never silently discarded.
type ConfirmationWorker struct {
	queue       Queue
	service     *services.ConfirmationService
	maxAttempts int
	retryDelay  time.Duration
}

// NewConfirmationWorker creates a new ConfirmationWorker.
func NewConfirmationWorker(queue Queue, service *services.ConfirmationService, maxAttempts int, retryDelay time.Duration) *ConfirmationWorker {
	return &ConfirmationWorker{
		queue:       queue,
		service:     service,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Start registers the consumer. The returned error covers consumer
// setup only; per-message outcomes are handled inside Handle.
func (w *ConfirmationWorker) Start() error {
	return w.queue.ConsumeConfirmations(w.Handle)
}

// Handle runs one confirmation job delivery. A nil return acks the
// delivery; for a transient failure the retry message is handed to the
// broker first, so the job is never acked without a successor. When
// even that republish fails, Handle returns the error and the delivery
// is requeued instead of lost.
func (w *ConfirmationWorker) Handle(msg rabbitmq.ConfirmationMessage) error {
	err := w.service.SendConfirmation(msg.OrderID)
	if err == nil {
		return nil
	}

	if errors.Is(err, services.ErrOrderNotFound) {
		// The order will never appear; retrying cannot help.
		log.Printf("ERROR: confirmation job for order %s failed permanently: %v", msg.OrderID, err)
		return nil
	}

	if msg.Attempt >= w.maxAttempts {
		log.Printf("FATAL: confirmation job for order %s exhausted %d attempts: %v",
			msg.OrderID, msg.Attempt, err)
		return nil
	}

	retry := rabbitmq.ConfirmationMessage{OrderID: msg.OrderID, Attempt: msg.Attempt + 1}
	log.Printf("Confirmation job for order %s failed (attempt %d/%d), retrying in %s: %v",
		msg.OrderID, msg.Attempt, w.maxAttempts, w.retryDelay, err)
	if pubErr := w.queue.PublishConfirmationRetry(retry, w.retryDelay); pubErr != nil {
		return fmt.Errorf("failed to schedule retry for order %s: %w", msg.OrderID, pubErr)
	}
	return nil
}
