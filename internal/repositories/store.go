package repositories

import "errors"

// ErrNotFound is wrapped by repositories when a record does not exist.
// Services branch on it with errors.Is instead of matching message text.
var ErrNotFound = errors.New("record not found")

// Store bundles the per-aggregate repositories and the transaction scope
// that ties them together. Atomic runs fn with every repository bound to
// a single database transaction: everything inside either commits as one
// unit or rolls back as one unit. All check-then-write sequences (the
// idempotency ledger checks, the payment/order state transitions, the
// confirmation flag) must run inside Atomic with the target row locked.
type Store interface {
	Orders() OrderRepository
	Payments() PaymentRepository
	Products() ProductRepository
	Customers() CustomerRepository
	Atomic(fn func(tx Store) error) error
}
