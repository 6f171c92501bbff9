package services_test

import (
	"bytes"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"momopay/internal/models"
	"momopay/internal/repositories"
	"momopay/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// fakeEnqueuer records confirmation enqueues instead of touching a broker.
type fakeEnqueuer struct {
	mu     sync.Mutex
	orders []string
}

func (f *fakeEnqueuer) EnqueueConfirmation(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, orderID)
	return nil
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// seedOrderWithPayment creates a pending order and an initiated payment
// for it, returning both IDs.
func seedOrderWithPayment(t *testing.T, store repositories.Store, total string) (orderID, paymentID string) {
	t.Helper()

	customer := &models.Customer{Username: "alice", Email: "alice@example.com", Password: "x", PhoneNumber: "+256700000001"}
	assert.NoError(t, store.Customers().Create(customer))

	order := &models.Order{
		CustomerID:  customer.ID,
		Status:      models.OrderPending,
		TotalAmount: decimal.RequireFromString(total),
		CreatedAt:   time.Now(),
	}
	assert.NoError(t, store.Orders().Create(order))

	payment := &models.Payment{
		OrderID:        order.ID,
		Amount:         order.TotalAmount,
		IdempotencyKey: "key-" + order.ID,
		Status:         models.PaymentInitiated,
		CreatedAt:      time.Now(),
	}
	assert.NoError(t, store.Payments().Create(payment))

	return order.ID, payment.ID
}

func TestWebhookService_SuccessTransition(t *testing.T) {
	store := repositories.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	svc := services.NewWebhookService(store, enqueuer)

	orderID, _ := seedOrderWithPayment(t, store, "100.00")

	amount := decimal.RequireFromString("100.00")
	processed, err := svc.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-1",
		Status:            "success",
		Amount:            &amount,
	})
	assert.NoError(t, err)
	assert.True(t, processed)

	payment, err := store.Payments().GetByProviderReference("MO-TXN-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, payment.Status)

	order, err := store.Orders().GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)

	assert.Equal(t, 1, enqueuer.count())
	assert.Equal(t, orderID, enqueuer.orders[0])
}

func TestWebhookService_RedeliveryIsNoOp(t *testing.T) {
	store := repositories.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	svc := services.NewWebhookService(store, enqueuer)

	orderID, _ := seedOrderWithPayment(t, store, "100.00")

	notification := services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-1",
		Status:            "success",
	}

	processed, err := svc.ProcessNotification(notification)
	assert.NoError(t, err)
	assert.True(t, processed)

	// Deliver the identical notification twice more: no new mutation, no
	// new enqueue, still acknowledged as success.
	for i := 0; i < 2; i++ {
		processed, err = svc.ProcessNotification(notification)
		assert.NoError(t, err)
		assert.False(t, processed)
	}

	order, _ := store.Orders().GetByID(orderID)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, 1, enqueuer.count())
}

func TestWebhookService_FailedStatusLeavesOrderPending(t *testing.T) {
	store := repositories.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	svc := services.NewWebhookService(store, enqueuer)

	orderID, paymentID := seedOrderWithPayment(t, store, "50.00")

	processed, err := svc.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-2",
		Status:            "failed",
	})
	assert.NoError(t, err)
	assert.True(t, processed)

	payment, err := store.Payments().GetByOrderIDForUpdate(orderID)
	assert.NoError(t, err)
	assert.Equal(t, paymentID, payment.ID)
	assert.Equal(t, models.PaymentFailed, payment.Status)
	// A failed payment never carries the provider reference.
	assert.Nil(t, payment.ProviderReference)

	order, _ := store.Orders().GetByID(orderID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 0, enqueuer.count())
}

func TestWebhookService_SuccessAfterFailedIsNoOp(t *testing.T) {
	store := repositories.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	svc := services.NewWebhookService(store, enqueuer)

	orderID, _ := seedOrderWithPayment(t, store, "100.00")

	processed, err := svc.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-F9",
		Status:            "failed",
	})
	assert.NoError(t, err)
	assert.True(t, processed)

	// A contradictory "success" arriving after the failure, even with a
	// provider reference never seen before, must not resurrect the
	// terminal payment.
	processed, err = svc.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-F9-LATE",
		Status:            "success",
	})
	assert.NoError(t, err)
	assert.False(t, processed)

	payment, err := store.Payments().GetByOrderIDForUpdate(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, payment.Status)
	assert.Nil(t, payment.ProviderReference)

	order, _ := store.Orders().GetByID(orderID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 0, enqueuer.count())
}

func TestWebhookService_AmountMismatchWarning(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(io.Discard)

	store := repositories.NewMemoryStore()
	svc := services.NewWebhookService(store, &fakeEnqueuer{})

	// Absent amount: no warning.
	orderID, _ := seedOrderWithPayment(t, store, "100.00")
	_, err := svc.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-A1",
		Status:            "success",
	})
	assert.NoError(t, err)
	assert.NotContains(t, logs.String(), "WARNING")

	// A present zero amount against a non-zero payment is a mismatch and
	// must be flagged, not silently accepted as "absent".
	store2 := repositories.NewMemoryStore()
	svc2 := services.NewWebhookService(store2, &fakeEnqueuer{})
	orderID2, _ := seedOrderWithPayment(t, store2, "100.00")
	zero := decimal.Zero
	_, err = svc2.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID2,
		ProviderReference: "MO-TXN-A2",
		Status:            "success",
		Amount:            &zero,
	})
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), "WARNING")
}

func TestWebhookService_UnknownProviderStatusRejected(t *testing.T) {
	store := repositories.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	svc := services.NewWebhookService(store, enqueuer)

	orderID, _ := seedOrderWithPayment(t, store, "10.00")

	processed, err := svc.ProcessNotification(services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-3",
		Status:            "definitely-paid",
	})
	assert.ErrorIs(t, err, services.ErrUnknownProviderStatus)
	assert.False(t, processed)

	// No mutation happened.
	payment, err := store.Payments().GetByOrderIDForUpdate(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentInitiated, payment.Status)
	assert.Equal(t, 0, enqueuer.count())
}

func TestWebhookService_PaymentNotFound(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := services.NewWebhookService(store, &fakeEnqueuer{})

	processed, err := svc.ProcessNotification(services.WebhookNotification{
		OrderID:           "no-such-order",
		ProviderReference: "MO-TXN-4",
		Status:            "success",
	})
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)
	assert.False(t, processed)
}

func TestWebhookService_ConcurrentDeliveriesSerialize(t *testing.T) {
	store := repositories.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	svc := services.NewWebhookService(store, enqueuer)

	orderID, _ := seedOrderWithPayment(t, store, "100.00")

	notification := services.WebhookNotification{
		OrderID:           orderID,
		ProviderReference: "MO-TXN-5",
		Status:            "success",
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessNotification(notification)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Whichever delivery won the lock applied the transition; the rest
	// observed the already-processed state.
	assert.Equal(t, 1, enqueuer.count())
	order, _ := store.Orders().GetByID(orderID)
	assert.Equal(t, models.OrderPaid, order.Status)
}
