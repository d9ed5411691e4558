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

var (
	testUserID    = models.ID("550e8400-e29b-41d4-a716-446655440030")
	testProductID = models.ID("550e8400-e29b-41d4-a716-446655440031")
)

func createOrderCommand() *CreateOrderCommand {
	return &CreateOrderCommand{
		UserID:   testUserID.String(),
		Currency: "USD",
		Items: []CreateOrderItemCommand{
			{ProductID: testProductID.String(), Quantity: 2, UnitPrice: 1250},
		},
	}
}

func newCreateOrder(repo *inMemoryOrderRepository, inventory *stubInventory, payments *stubPayments) *CreateOrder {
	orchestrator := ordersaga.NewOrchestrator(repo, inventory, payments, zerolog.Nop(), 0)
	return NewCreateOrder(repo, orchestrator, nopPublisher{}, zerolog.Nop())
}

func TestCreateOrder_Execute_ReturnsPaidOrder(t *testing.T) {
	repo := newInMemoryOrderRepository()
	inventory := &stubInventory{}
	payments := &stubPayments{chargeResult: &domain.PaymentResult{
		TransactionID: models.GenerateUUID(),
		Status:        domain.PaymentSucceeded,
	}}
	uc := newCreateOrder(repo, inventory, payments)

	response, err := uc.Execute(context.Background(), createOrderCommand())

	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusPaid), response.Order.Status)
	assert.Equal(t, int64(2500), response.Order.TotalAmount)
	assert.Equal(t, 1, inventory.reserved)
	assert.Equal(t, 1, inventory.committed)
	assert.Equal(t, 0, inventory.released)

	stored := repo.orders[models.ID(response.Order.ID)]
	require.NotNil(t, stored)
	assert.Equal(t, domain.OrderStatusPaid, stored.Status)
}

func TestCreateOrder_Execute_PaymentFailureLeavesOrderCancelled(t *testing.T) {
	repo := newInMemoryOrderRepository()
	inventory := &stubInventory{}
	payments := &stubPayments{chargeErr: errs.Upstream(nil, "payment service unreachable")}
	uc := newCreateOrder(repo, inventory, payments)

	_, err := uc.Execute(context.Background(), createOrderCommand())

	require.Error(t, err)
	assert.Equal(t, errs.KindUpstream, errs.KindOf(err))

	// holds were released and the order was cancelled by compensation
	assert.Equal(t, 1, inventory.released)
	assert.Equal(t, 0, inventory.committed)
	require.Len(t, repo.orders, 1)
	for _, order := range repo.orders {
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	}
}

func TestCreateOrder_Execute_InsufficientStockFailsBeforeCharge(t *testing.T) {
	repo := newInMemoryOrderRepository()
	inventory := &stubInventory{reserveErr: errs.Conflict("insufficient stock")}
	payments := &stubPayments{}
	uc := newCreateOrder(repo, inventory, payments)

	_, err := uc.Execute(context.Background(), createOrderCommand())

	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, 0, inventory.released)
}

func TestCreateOrder_Execute_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cmd *CreateOrderCommand)
	}{
		{"invalid user ID", func(cmd *CreateOrderCommand) { cmd.UserID = "nope" }},
		{"missing currency", func(cmd *CreateOrderCommand) { cmd.Currency = "" }},
		{"no items", func(cmd *CreateOrderCommand) { cmd.Items = nil }},
		{"invalid product ID", func(cmd *CreateOrderCommand) { cmd.Items[0].ProductID = "nope" }},
		{"zero quantity", func(cmd *CreateOrderCommand) { cmd.Items[0].Quantity = 0 }},
		{"zero unit price", func(cmd *CreateOrderCommand) { cmd.Items[0].UnitPrice = 0 }},
		{"duplicate product", func(cmd *CreateOrderCommand) {
			cmd.Items = append(cmd.Items, cmd.Items[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newInMemoryOrderRepository()
			inventory := &stubInventory{}
			uc := newCreateOrder(repo, inventory, &stubPayments{})
			cmd := createOrderCommand()
			tt.mutate(cmd)

			_, err := uc.Execute(context.Background(), cmd)

			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))

			// validation failures surface before any saga starts
			assert.Equal(t, 0, inventory.reserved)
			assert.Empty(t, repo.orders)
		})
	}
}
