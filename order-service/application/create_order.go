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

// CreateOrderItemCommand is one requested order line. The caller resolves the
// purchase price; the order records it immutably.
type CreateOrderItemCommand struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// CreateOrderCommand requests a new order
type CreateOrderCommand struct {
	UserID   string                   `json:"user_id"`
	Currency string                   `json:"currency"`
	Items    []CreateOrderItemCommand `json:"items"`
}

// CreateOrderResponse carries the final order snapshot, PAID on success
type CreateOrderResponse struct {
	Order OrderResponse `json:"order"`
}

// CreateOrder persists a PENDING order and drives the create-order saga. On
// saga failure the completed steps have been compensated (the order ends up
// CANCELLED) and the failing step's error is surfaced to the caller.
type CreateOrder struct {
	orderRepository domain.OrderRepository
	orchestrator    *saga.Orchestrator
	eventPublisher  events.Publisher
	logger          zerolog.Logger
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	orchestrator *saga.Orchestrator,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		orchestrator:    orchestrator,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	userID, items, err := uc.validateCommand(cmd)
	if err != nil {
		return nil, err
	}

	order, err := domain.CreateOrder(userID, items)
	if err != nil {
		return nil, errs.Validation("invalid order: %s", err)
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, err
	}
	publishOrderEvents(ctx, uc.eventPublisher, uc.logger, order)

	if err := uc.orchestrator.RunCreateOrder(ctx, order, userID); err != nil {
		publishOrderEvents(ctx, uc.eventPublisher, uc.logger, order)
		return nil, err
	}

	publishOrderEvents(ctx, uc.eventPublisher, uc.logger, order)

	return &CreateOrderResponse{Order: toOrderResponse(order)}, nil
}

func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) (models.ID, []domain.OrderItem, error) {
	userID, err := models.NewID(cmd.UserID)
	if err != nil {
		return "", nil, errs.Validation("invalid user ID: %s", cmd.UserID)
	}
	if cmd.Currency == "" {
		return "", nil, errs.Validation("currency is required")
	}
	if len(cmd.Items) == 0 {
		return "", nil, errs.Validation("order must have at least one item")
	}

	seen := make(map[models.ID]struct{}, len(cmd.Items))
	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		productID, err := models.NewID(item.ProductID)
		if err != nil {
			return "", nil, errs.Validation("invalid product ID: %s", item.ProductID)
		}
		if _, ok := seen[productID]; ok {
			return "", nil, errs.Validation("duplicate product %s in order", productID)
		}
		seen[productID] = struct{}{}

		if item.Quantity <= 0 {
			return "", nil, errs.Validation("quantity for product %s must be positive, got %d", productID, item.Quantity)
		}
		if item.UnitPrice <= 0 {
			return "", nil, errs.Validation("unit price for product %s must be positive, got %d", productID, item.UnitPrice)
		}

		items[i] = domain.OrderItem{
			ProductID:       productID,
			Quantity:        item.Quantity,
			PriceAtPurchase: models.NewMoney(item.UnitPrice, cmd.Currency),
		}
	}
	return userID, items, nil
}
