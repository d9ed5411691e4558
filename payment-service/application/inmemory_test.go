package application

import (
	"context"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
)

type inMemoryPaymentRepository struct {
	byOrder map[models.ID]*domain.PaymentTransaction
}

func newInMemoryPaymentRepository(transactions ...*domain.PaymentTransaction) *inMemoryPaymentRepository {
	repo := &inMemoryPaymentRepository{byOrder: make(map[models.ID]*domain.PaymentTransaction)}
	for _, transaction := range transactions {
		repo.byOrder[transaction.OrderID] = transaction
	}
	return repo
}

func (r *inMemoryPaymentRepository) Save(ctx context.Context, transaction *domain.PaymentTransaction) error {
	r.byOrder[transaction.OrderID] = transaction
	return nil
}

func (r *inMemoryPaymentRepository) FindByID(ctx context.Context, id models.ID) (*domain.PaymentTransaction, error) {
	for _, transaction := range r.byOrder {
		if transaction.ID == id {
			return transaction, nil
		}
	}
	return nil, nil
}

func (r *inMemoryPaymentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.PaymentTransaction, error) {
	return r.byOrder[orderID], nil
}

// fakeGateway scripts the provider outcome per call
type fakeGateway struct {
	externalPaymentID string
	chargeErr         error
	refundErr         error

	chargeCalls int
	refundCalls int
}

func (g *fakeGateway) CreateCharge(ctx context.Context, orderID, userID models.ID, amount models.Money) (string, error) {
	g.chargeCalls++
	if g.chargeErr != nil {
		return "", g.chargeErr
	}
	return g.externalPaymentID, nil
}

func (g *fakeGateway) Refund(ctx context.Context, externalPaymentID string, amount models.Money) error {
	g.refundCalls++
	return g.refundErr
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	return nil
}
