package services

import (
	"errors"
	"fmt"
	"time"

	"momopay/internal/models"
	"momopay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one requested line of a new order. The unit price is
// never client-supplied; it is snapshotted from the product at creation.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// OrderService handles business logic related to orders.
type OrderService struct {
	store repositories.Store
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repositories.Store) *OrderService {
	return &OrderService{store: store}
}

// CreateOrder creates a PENDING order for the customer. TotalAmount is
// computed as the sum of unit_price * quantity over the items, with unit
// prices read from the catalog inside the same transaction.
func (s *OrderService) CreateOrder(customerID string, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("an order requires at least one item")
	}

	var order *models.Order
	err := s.store.Atomic(func(tx repositories.Store) error {
		if _, err := tx.Customers().GetByID(customerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("customer %s: %w", customerID, ErrCustomerNotFound)
			}
			return err
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			if item.Quantity <= 0 {
				return fmt.Errorf("quantity for product %s must be positive", item.ProductID)
			}
			product, err := tx.Products().GetByID(item.ProductID)
			if err != nil {
				return fmt.Errorf("product %s not found: %w", item.ProductID, err)
			}

			orderItems = append(orderItems, models.OrderItem{
				ID:        uuid.New().String(),
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		now := time.Now()
		order = &models.Order{
			ID:          uuid.New().String(),
			CustomerID:  customerID,
			Items:       orderItems,
			Status:      models.OrderPending,
			TotalAmount: total,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Orders().Create(order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
		}
		return nil, err
	}
	return order, nil
}
