package handlers

import (
	"context"
	"testing"

	"github.com/cartena/fulfillment-system/order-service/application"
	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRepoStub struct {
	order *domain.Order
	saves int
}

func (s *orderRepoStub) Save(ctx context.Context, order *domain.Order) error {
	s.saves++
	s.order = order
	return nil
}

func (s *orderRepoStub) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	if s.order != nil && s.order.ID == id {
		return s.order, nil
	}
	return nil, nil
}

func (s *orderRepoStub) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Order, error) {
	return nil, nil
}

type publisherStub struct{}

func (publisherStub) Publish(ctx context.Context, evts ...*events.Event) error {
	return nil
}

func shippedEvent(t *testing.T, orderID models.ID, status string) *events.Event {
	t.Helper()
	return events.NewEvent(orderID, events.ShippingStatusChangedEvent, map[string]string{
		"order_id": orderID.String(),
		"status":   status,
	})
}

func TestShippingStatusHandler_Handle(t *testing.T) {
	order, err := domain.CreateOrder(models.GenerateUUID(), []domain.OrderItem{
		{ProductID: models.GenerateUUID(), Quantity: 1, PriceAtPurchase: models.NewMoney(100, "USD")},
	})
	require.NoError(t, err)
	require.NoError(t, order.MarkPaid())
	order.ClearEvents()

	repo := &orderRepoStub{order: order}
	uc := application.NewUpdateOrderStatus(repo, publisherStub{}, zerolog.Nop())
	handler := NewShippingStatusHandler(uc, zerolog.Nop())

	err = handler.Handle(context.Background(), shippedEvent(t, order.ID, "SHIPPED"))

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, repo.order.Status)
}

func TestShippingStatusHandler_Handle_RedeliveryIsHarmless(t *testing.T) {
	order, err := domain.CreateOrder(models.GenerateUUID(), []domain.OrderItem{
		{ProductID: models.GenerateUUID(), Quantity: 1, PriceAtPurchase: models.NewMoney(100, "USD")},
	})
	require.NoError(t, err)
	order.ClearEvents()

	repo := &orderRepoStub{order: order}
	uc := application.NewUpdateOrderStatus(repo, publisherStub{}, zerolog.Nop())
	handler := NewShippingStatusHandler(uc, zerolog.Nop())

	event := shippedEvent(t, order.ID, "SHIPPED")
	require.NoError(t, handler.Handle(context.Background(), event))
	saves := repo.saves

	// second delivery finds the status already applied and writes nothing
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, saves, repo.saves)
}

func TestShippingStatusHandler_Handle_DropsUnknownOrder(t *testing.T) {
	repo := &orderRepoStub{}
	uc := application.NewUpdateOrderStatus(repo, publisherStub{}, zerolog.Nop())
	handler := NewShippingStatusHandler(uc, zerolog.Nop())

	// unknown orders are dropped, not retried forever
	err := handler.Handle(context.Background(), shippedEvent(t, models.GenerateUUID(), "DELIVERED"))
	require.NoError(t, err)
}

func TestShippingStatusHandler_Handle_IgnoresOtherTopics(t *testing.T) {
	repo := &orderRepoStub{}
	uc := application.NewUpdateOrderStatus(repo, publisherStub{}, zerolog.Nop())
	handler := NewShippingStatusHandler(uc, zerolog.Nop())

	event := events.NewEvent(models.GenerateUUID(), events.StockAddedEvent, nil)
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 0, repo.saves)
}
