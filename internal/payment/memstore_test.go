package payment

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// memStore is an in-memory OrderStore with the same conditional-write
// semantics as the Mongo implementation.
type memStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *memStore) put(order *models.Order) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders[order.ID] = order
	return order.ID
}

func (s *memStore) Find(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	if order.PaymentDetails != nil {
		details := *order.PaymentDetails
		copied.PaymentDetails = &details
	}
	return &copied, nil
}

func (s *memStore) details(order *models.Order) *models.PaymentDetails {
	if order.PaymentDetails == nil {
		order.PaymentDetails = &models.PaymentDetails{}
	}
	return order.PaymentDetails
}

func (s *memStore) MarkPaid(_ context.Context, id primitive.ObjectID, detail TransitionDetail, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusPaid
	d := s.details(order)
	d.PaidAt = &at
	if detail.TransID != "" {
		d.TransID = detail.TransID
	}
	if detail.Amount > 0 {
		d.Amount = detail.Amount
	}
	order.ExpiryDate = nil
	return true, nil
}

func (s *memStore) MarkFailed(_ context.Context, id primitive.ObjectID, reason string, at, expiry time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusFailed
	d := s.details(order)
	d.FailedAt = &at
	d.FailedReason = reason
	order.ExpiryDate = &expiry
	return true, nil
}

func (s *memStore) MarkCancelled(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusCancelled
	return true, nil
}

func (s *memStore) SetWalletSession(_ context.Context, id primitive.ObjectID, requestID string, amount float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	d := s.details(order)
	d.Method = models.PaymentMethodWallet
	d.RequestID = requestID
	d.Amount = amount
	return true, nil
}

func (s *memStore) SetBankInstructions(_ context.Context, id primitive.ObjectID, bankID string, amount float64, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	d := s.details(order)
	d.Method = models.PaymentMethodBankTransfer
	d.BankID = bankID
	d.Amount = amount
	d.TransferContent = content
	return true, nil
}

func (s *memStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, order := range s.orders {
		if order.Status == models.OrderStatusFailed && order.ExpiryDate != nil && order.ExpiryDate.Before(cutoff) {
			delete(s.orders, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memStore) DeleteExpiredByID(_ context.Context, id primitive.ObjectID, cutoff time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	if order.Status != models.OrderStatusFailed || order.ExpiryDate == nil || !order.ExpiryDate.Before(cutoff) {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func pendingOrder(method string) *models.Order {
	return &models.Order{
		Items: []models.OrderItem{
			{ProductID: primitive.NewObjectID(), Name: "Test product", Price: 100000, Quantity: 1},
		},
		TotalAmount: 100000,
		Customer: models.OrderCustomer{
			Name:    "Test Customer",
			Email:   "customer@example.com",
			Phone:   "0900000000",
			Address: "1 Test Street",
		},
		PaymentMethod: method,
		Status:        models.OrderStatusPending,
		CreatedAt:     time.Now(),
	}
}
