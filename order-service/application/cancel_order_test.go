package application

import (
	"context"
	"testing"

	"github.com/cartena/fulfillment-system/order-service/domain"
	ordersaga "github.com/cartena/fulfillment-system/order-service/saga"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.CreateOrder(testUserID, []domain.OrderItem{
		{ProductID: testProductID, Quantity: 2, PriceAtPurchase: models.NewMoney(1250, "USD")},
	})
	require.NoError(t, err)
	require.NoError(t, order.MarkPaid())
	order.ClearEvents()
	return order
}

func newCancelOrder(repo *inMemoryOrderRepository, inventory *stubInventory, payments *stubPayments) *CancelOrder {
	orchestrator := ordersaga.NewOrchestrator(repo, inventory, payments, zerolog.Nop(), 0)
	return NewCancelOrder(repo, orchestrator, nopPublisher{}, zerolog.Nop())
}

func TestCancelOrder_Execute_CancelsPaidOrder(t *testing.T) {
	order := paidOrder(t)
	repo := newInMemoryOrderRepository(order)
	inventory := &stubInventory{}
	payments := &stubPayments{refundResult: &domain.PaymentResult{
		TransactionID: models.GenerateUUID(),
		Status:        domain.PaymentRefunded,
	}}
	uc := newCancelOrder(repo, inventory, payments)

	response, err := uc.Execute(context.Background(), &CancelOrderCommand{OrderID: order.ID.String()})

	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusCancelled), response.Order.Status)
	assert.Equal(t, 1, inventory.released)
	assert.Equal(t, domain.OrderStatusCancelled, repo.orders[order.ID].Status)
}

func TestCancelOrder_Execute_RefundRejectionLeavesOrderUntouched(t *testing.T) {
	order := paidOrder(t)
	repo := newInMemoryOrderRepository(order)
	inventory := &stubInventory{}
	payments := &stubPayments{refundErr: errs.Conflict("payment cannot be refunded")}
	uc := newCancelOrder(repo, inventory, payments)

	_, err := uc.Execute(context.Background(), &CancelOrderCommand{OrderID: order.ID.String()})

	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, 0, inventory.released)
	assert.Equal(t, domain.OrderStatusPaid, repo.orders[order.ID].Status)
}

func TestCancelOrder_Execute_AlreadyCancelledIsIdempotent(t *testing.T) {
	order := paidOrder(t)
	order.Cancel()
	order.ClearEvents()
	repo := newInMemoryOrderRepository(order)
	payments := &stubPayments{refundErr: errs.Conflict("should not be called")}
	uc := newCancelOrder(repo, &stubInventory{}, payments)

	response, err := uc.Execute(context.Background(), &CancelOrderCommand{OrderID: order.ID.String()})

	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusCancelled), response.Order.Status)
}

func TestCancelOrder_Execute_MissingOrderIsNotFound(t *testing.T) {
	uc := newCancelOrder(newInMemoryOrderRepository(), &stubInventory{}, &stubPayments{})

	_, err := uc.Execute(context.Background(), &CancelOrderCommand{OrderID: models.GenerateUUID().String()})

	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestUpdateOrderStatus_Execute(t *testing.T) {
	t.Run("updates the status", func(t *testing.T) {
		order := paidOrder(t)
		repo := newInMemoryOrderRepository(order)
		uc := NewUpdateOrderStatus(repo, nopPublisher{}, zerolog.Nop())

		response, err := uc.Execute(context.Background(), &UpdateOrderStatusCommand{
			OrderID: order.ID.String(),
			Status:  string(domain.OrderStatusShipped),
		})

		require.NoError(t, err)
		assert.Equal(t, string(domain.OrderStatusShipped), response.Order.Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		order := paidOrder(t)
		version := order.Version.Value
		repo := newInMemoryOrderRepository(order)
		uc := NewUpdateOrderStatus(repo, nopPublisher{}, zerolog.Nop())

		response, err := uc.Execute(context.Background(), &UpdateOrderStatusCommand{
			OrderID: order.ID.String(),
			Status:  string(domain.OrderStatusPaid),
		})

		require.NoError(t, err)
		assert.Equal(t, string(domain.OrderStatusPaid), response.Order.Status)
		assert.Equal(t, version, repo.orders[order.ID].Version.Value)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		order := paidOrder(t)
		repo := newInMemoryOrderRepository(order)
		uc := NewUpdateOrderStatus(repo, nopPublisher{}, zerolog.Nop())

		_, err := uc.Execute(context.Background(), &UpdateOrderStatusCommand{
			OrderID: order.ID.String(),
			Status:  "TELEPORTED",
		})

		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})

	t.Run("missing order is not found", func(t *testing.T) {
		uc := NewUpdateOrderStatus(newInMemoryOrderRepository(), nopPublisher{}, zerolog.Nop())

		_, err := uc.Execute(context.Background(), &UpdateOrderStatusCommand{
			OrderID: models.GenerateUUID().String(),
			Status:  string(domain.OrderStatusShipped),
		})

		require.Error(t, err)
		assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	})
}
