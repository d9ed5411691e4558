package saga

import (
	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/models"
)

// CreateOrderContext is the shared mutable context of one create-order saga
// execution. Steps may replace Order with an updated snapshot; later steps
// always read the latest one. The context is owned by exactly one execution.
type CreateOrderContext struct {
	Order  *domain.Order
	UserID models.ID
}

// CancelOrderContext is the shared mutable context of one cancel-order saga
// execution. PreviousStatus is recorded by the status-update step so its own
// compensation can restore it.
type CancelOrderContext struct {
	Order          *domain.Order
	PreviousStatus *domain.OrderStatus
}
