package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is the GORM-backed Store implementation.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a Store bound to the given database handle.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Orders() OrderRepository       { return &GORMOrderRepository{db: s.db} }
func (s *GORMStore) Payments() PaymentRepository   { return &GORMPaymentRepository{db: s.db} }
func (s *GORMStore) Products() ProductRepository   { return &GORMProductRepository{db: s.db} }
func (s *GORMStore) Customers() CustomerRepository { return &GORMCustomerRepository{db: s.db} }

// Atomic runs fn inside one database transaction. The Store passed to fn
// is bound to that transaction, so row locks acquired through it are held
// until commit or rollback.
func (s *GORMStore) Atomic(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}

// forUpdate applies a row-level lock where the dialect supports it.
// SQLite has no FOR UPDATE syntax; its single-writer model serializes
// concurrent transactions anyway.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
