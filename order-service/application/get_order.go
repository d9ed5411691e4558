package application

import (
	"context"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// GetOrderQuery asks for one order by ID
type GetOrderQuery struct {
	OrderID string `json:"order_id"`
}

// GetOrderResponse carries the found order
type GetOrderResponse struct {
	Order OrderResponse `json:"order"`
}

// GetOrder looks up an order by ID
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{orderRepository: orderRepository}
}

// Execute executes the get order use case
func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*GetOrderResponse, error) {
	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errs.Validation("invalid order ID: %s", query.OrderID)
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errs.NotFound("order %s not found", orderID)
	}

	return &GetOrderResponse{Order: toOrderResponse(order)}, nil
}

// ListOrdersQuery asks for all orders of a user
type ListOrdersQuery struct {
	UserID string `json:"user_id"`
}

// ListOrdersResponse carries the user's orders
type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// ListOrders lists the orders of a user
type ListOrders struct {
	orderRepository domain.OrderRepository
}

// NewListOrders creates a new ListOrders use case
func NewListOrders(orderRepository domain.OrderRepository) *ListOrders {
	return &ListOrders{orderRepository: orderRepository}
}

// Execute executes the list orders use case
func (uc *ListOrders) Execute(ctx context.Context, query *ListOrdersQuery) (*ListOrdersResponse, error) {
	userID, err := models.NewID(query.UserID)
	if err != nil {
		return nil, errs.Validation("invalid user ID: %s", query.UserID)
	}

	orders, err := uc.orderRepository.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	response := &ListOrdersResponse{Orders: make([]OrderResponse, len(orders))}
	for i, order := range orders {
		response.Orders[i] = toOrderResponse(order)
	}
	return response, nil
}

// OrderItemResponse is the wire representation of an order line
type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderResponse is the wire representation of an order
type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount int64               `json:"total_amount"`
	Currency    string              `json:"currency"`
	Items       []OrderItemResponse `json:"items"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.PriceAtPurchase.Amount,
		}
	}
	return OrderResponse{
		ID:          order.ID.String(),
		UserID:      order.UserID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.Amount,
		Currency:    order.TotalAmount.Currency,
		Items:       items,
	}
}

// publishOrderEvents publishes the order's recorded events. Publish failures
// are logged, never surfaced: the order state is already committed.
func publishOrderEvents(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, order *domain.Order) {
	evts := order.Events()
	if len(evts) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to publish order events")
	}
	order.ClearEvents()
}
