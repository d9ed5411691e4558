package application

import (
	"context"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/order-service/saga"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// CancelOrderCommand requests cancellation of an order
type CancelOrderCommand struct {
	OrderID string `json:"order_id"`
}

// CancelOrderResponse carries the cancelled order snapshot
type CancelOrderResponse struct {
	Order OrderResponse `json:"order"`
}

// CancelOrder drives the cancel-order saga: refund, release holds, move the
// order to CANCELLED.
type CancelOrder struct {
	orderRepository domain.OrderRepository
	orchestrator    *saga.Orchestrator
	eventPublisher  events.Publisher
	logger          zerolog.Logger
}

// NewCancelOrder creates a new CancelOrder use case
func NewCancelOrder(
	orderRepository domain.OrderRepository,
	orchestrator *saga.Orchestrator,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *CancelOrder {
	return &CancelOrder{
		orderRepository: orderRepository,
		orchestrator:    orchestrator,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Execute executes the cancel order use case
func (uc *CancelOrder) Execute(ctx context.Context, cmd *CancelOrderCommand) (*CancelOrderResponse, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errs.Validation("invalid order ID: %s", cmd.OrderID)
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errs.NotFound("order %s not found", orderID)
	}

	if order.Status == domain.OrderStatusCancelled {
		return &CancelOrderResponse{Order: toOrderResponse(order)}, nil
	}

	if err := uc.orchestrator.RunCancelOrder(ctx, order); err != nil {
		publishOrderEvents(ctx, uc.eventPublisher, uc.logger, order)
		return nil, err
	}

	publishOrderEvents(ctx, uc.eventPublisher, uc.logger, order)

	return &CancelOrderResponse{Order: toOrderResponse(order)}, nil
}
