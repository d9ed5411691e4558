package saga

import (
	"context"
	"time"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/cartena/fulfillment-system/shared/saga"
	"github.com/rs/zerolog"
)

// DefaultStepTimeout bounds every step's collaborator round-trip. A hung
// downstream call must not hang the whole saga: deadline expiry is treated
// like any other upstream failure and triggers compensation.
const DefaultStepTimeout = 10 * time.Second

// Orchestrator builds the saga context for an order and drives the matching
// step list through the saga manager.
type Orchestrator struct {
	orders    domain.OrderRepository
	inventory domain.InventoryClient
	payments  domain.PaymentClient

	createManager *saga.Manager[*CreateOrderContext]
	cancelManager *saga.Manager[*CancelOrderContext]
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	orders domain.OrderRepository,
	inventory domain.InventoryClient,
	payments domain.PaymentClient,
	logger zerolog.Logger,
	stepTimeout time.Duration,
) *Orchestrator {
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}

	return &Orchestrator{
		orders:    orders,
		inventory: inventory,
		payments:  payments,
		createManager: saga.NewManager(logger.With().Str("saga", "create_order").Logger(),
			saga.WithStepTimeout[*CreateOrderContext](stepTimeout)),
		cancelManager: saga.NewManager(logger.With().Str("saga", "cancel_order").Logger(),
			saga.WithStepTimeout[*CancelOrderContext](stepTimeout)),
	}
}

// RunCreateOrder runs the create-order saga for an already persisted PENDING
// order. On failure the completed steps have been compensated and the
// original step error is returned.
func (o *Orchestrator) RunCreateOrder(ctx context.Context, order *domain.Order, userID models.ID) error {
	sc := &CreateOrderContext{Order: order, UserID: userID}
	steps := CreateOrderSteps(o.orders, o.inventory, o.payments)
	return o.createManager.Execute(ctx, steps, sc)
}

// RunCancelOrder runs the cancel-order saga
func (o *Orchestrator) RunCancelOrder(ctx context.Context, order *domain.Order) error {
	sc := &CancelOrderContext{Order: order}
	steps := CancelOrderSteps(o.orders, o.inventory, o.payments)
	return o.cancelManager.Execute(ctx, steps, sc)
}
