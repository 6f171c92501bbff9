package repositories

import (
	"fmt"
	"sync"

	"momopay/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store, used by unit
// tests and local development without a database. Atomic serializes
// callers with a mutex, which gives the same "one writer at a time per
// contended row" behavior the row locks provide on a real database.
// It does not roll back on error, so callers must validate before
// mutating, which the services do.
type MemoryStore struct {
	txMu sync.Mutex // serializes Atomic scopes
	mu   sync.RWMutex

	orders    map[string]models.Order
	payments  map[string]models.Payment
	products  map[string]models.Product
	customers map[string]models.Customer
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]models.Order),
		payments:  make(map[string]models.Payment),
		products:  make(map[string]models.Product),
		customers: make(map[string]models.Customer),
	}
}

func (s *MemoryStore) Orders() OrderRepository       { return &memoryOrderRepo{s: s} }
func (s *MemoryStore) Payments() PaymentRepository   { return &memoryPaymentRepo{s: s} }
func (s *MemoryStore) Products() ProductRepository   { return &memoryProductRepo{s: s} }
func (s *MemoryStore) Customers() CustomerRepository { return &memoryCustomerRepo{s: s} }

// Atomic serializes concurrent scopes. Nested Atomic calls are not
// supported and will deadlock, same as nested transactions would.
func (s *MemoryStore) Atomic(fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// --- orders ---

type memoryOrderRepo struct {
	s *MemoryStore
}

func (r *memoryOrderRepo) Create(order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	r.s.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r *memoryOrderRepo) GetByID(id string) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o := copyOrder(order)
	return &o, nil
}

func (r *memoryOrderRepo) GetByIDForUpdate(id string) (*models.Order, error) {
	// Atomic already holds the store-wide scope lock.
	return r.GetByID(id)
}

func (r *memoryOrderRepo) Save(order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[order.ID]; !ok {
		return fmt.Errorf("order %s for save: %w", order.ID, ErrNotFound)
	}
	r.s.orders[order.ID] = copyOrder(*order)
	return nil
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// --- payments ---

type memoryPaymentRepo struct {
	s *MemoryStore
}

func (r *memoryPaymentRepo) Create(payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	// Mirror the database uniqueness constraints.
	for _, p := range r.s.payments {
		if p.IdempotencyKey == payment.IdempotencyKey {
			return fmt.Errorf("payment with idempotency key %s already exists", payment.IdempotencyKey)
		}
		if p.ProviderReference != nil && payment.ProviderReference != nil &&
			*p.ProviderReference == *payment.ProviderReference {
			return fmt.Errorf("payment with provider reference %s already exists", *payment.ProviderReference)
		}
	}
	r.s.payments[payment.ID] = copyPayment(*payment)
	return nil
}

func (r *memoryPaymentRepo) GetByIdempotencyKey(key string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.payments {
		if p.IdempotencyKey == key {
			cp := copyPayment(p)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("payment with idempotency key %s: %w", key, ErrNotFound)
}

func (r *memoryPaymentRepo) GetByProviderReference(ref string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.payments {
		if p.ProviderReference != nil && *p.ProviderReference == ref {
			cp := copyPayment(p)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("payment with provider reference %s: %w", ref, ErrNotFound)
}

func (r *memoryPaymentRepo) GetByOrderIDForUpdate(orderID string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			cp := copyPayment(p)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("payment for order %s: %w", orderID, ErrNotFound)
}

func (r *memoryPaymentRepo) Save(payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[payment.ID]; !ok {
		return fmt.Errorf("payment %s for save: %w", payment.ID, ErrNotFound)
	}
	r.s.payments[payment.ID] = copyPayment(*payment)
	return nil
}

func copyPayment(p models.Payment) models.Payment {
	if p.ProviderReference != nil {
		ref := *p.ProviderReference
		p.ProviderReference = &ref
	}
	p.Order = nil
	return p
}

// --- products ---

type memoryProductRepo struct {
	s *MemoryStore
}

func (r *memoryProductRepo) GetAll() ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		products = append(products, p)
	}
	return products, nil
}

func (r *memoryProductRepo) GetByID(id string) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	product, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

func (r *memoryProductRepo) Create(product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepo) Update(product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return fmt.Errorf("product %s for update: %w", product.ID, ErrNotFound)
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("product %s for deletion: %w", id, ErrNotFound)
	}
	delete(r.s.products, id)
	return nil
}

// --- customers ---

type memoryCustomerRepo struct {
	s *MemoryStore
}

func (r *memoryCustomerRepo) Create(customer *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *memoryCustomerRepo) GetByUsername(username string) (*models.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.Username == username {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("customer with username %s: %w", username, ErrNotFound)
}

func (r *memoryCustomerRepo) GetByEmail(email string) (*models.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.Email == email {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("customer with email %s: %w", email, ErrNotFound)
}

func (r *memoryCustomerRepo) GetByID(id string) (*models.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	customer, ok := r.s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return &customer, nil
}
