package application

import (
	"context"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
)

type inMemoryOrderRepository struct {
	orders map[models.ID]*domain.Order
}

func newInMemoryOrderRepository(orders ...*domain.Order) *inMemoryOrderRepository {
	repo := &inMemoryOrderRepository{orders: make(map[models.ID]*domain.Order)}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (r *inMemoryOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *inMemoryOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	return r.orders[id], nil
}

func (r *inMemoryOrderRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

// stubInventory scripts batch operation outcomes
type stubInventory struct {
	reserveErr  error
	commitErr   error
	releaseErr  error
	reserved    int
	committed   int
	released    int
}

func (s *stubInventory) ReserveMany(ctx context.Context, items []domain.ItemQuantity) error {
	s.reserved++
	return s.reserveErr
}

func (s *stubInventory) CommitMany(ctx context.Context, items []domain.ItemQuantity) error {
	s.committed++
	return s.commitErr
}

func (s *stubInventory) ReleaseMany(ctx context.Context, items []domain.ItemQuantity) error {
	s.released++
	return s.releaseErr
}

// stubPayments scripts charge and refund outcomes
type stubPayments struct {
	chargeResult *domain.PaymentResult
	chargeErr    error
	refundResult *domain.PaymentResult
	refundErr    error
}

func (s *stubPayments) Charge(ctx context.Context, orderID, userID models.ID, amount models.Money) (*domain.PaymentResult, error) {
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return s.chargeResult, nil
}

func (s *stubPayments) Refund(ctx context.Context, orderID models.ID) (*domain.PaymentResult, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return s.refundResult, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	return nil
}
