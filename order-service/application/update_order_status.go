package application

import (
	"context"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// UpdateOrderStatusCommand requests a status change for an order
type UpdateOrderStatusCommand struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// UpdateOrderStatusResponse carries the updated order snapshot
type UpdateOrderStatusResponse struct {
	Order OrderResponse `json:"order"`
}

// UpdateOrderStatus sets an order's status. Idempotent: an order that already
// has the requested status is returned unchanged without a write, which makes
// redelivered shipment events harmless.
type UpdateOrderStatus struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	logger          zerolog.Logger
}

// NewUpdateOrderStatus creates a new UpdateOrderStatus use case
func NewUpdateOrderStatus(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *UpdateOrderStatus {
	return &UpdateOrderStatus{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Execute executes the update order status use case
func (uc *UpdateOrderStatus) Execute(ctx context.Context, cmd *UpdateOrderStatusCommand) (*UpdateOrderStatusResponse, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errs.Validation("invalid order ID: %s", cmd.OrderID)
	}

	status := domain.OrderStatus(cmd.Status)
	if !status.IsValid() {
		return nil, errs.Validation("invalid order status %q", cmd.Status)
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errs.NotFound("order %s not found", orderID)
	}

	if order.Status == status {
		return &UpdateOrderStatusResponse{Order: toOrderResponse(order)}, nil
	}

	if err := order.SetStatus(status); err != nil {
		return nil, err
	}
	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, err
	}

	publishOrderEvents(ctx, uc.eventPublisher, uc.logger, order)

	return &UpdateOrderStatusResponse{Order: toOrderResponse(order)}, nil
}
