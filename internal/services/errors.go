package services

import "errors"

// Sentinel errors resolved at the handler boundary. Handlers branch with
// errors.Is and map them to HTTP statuses; nothing below the boundary
// inspects message text.
var (
	// ErrOrderNotFound: the referenced order does not exist. Inside the
	// confirmation job this is permanent and must not be retried.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPaymentNotFound: no payment exists for the order named in a
	// webhook notification. The provider's own retry policy governs
	// redelivery; this system does not retry it.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrCustomerNotFound: the referenced customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrUnknownProviderStatus: the webhook carried a status string
	// outside the closed set ("success", "failed"). Rejected instead of
	// stored as an arbitrary label.
	ErrUnknownProviderStatus = errors.New("unknown provider status")
)
