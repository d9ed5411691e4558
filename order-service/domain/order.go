package domain

import (
	"context"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid reports whether the status is one of the known order statuses
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is one line of an order. Immutable once the order is created.
type OrderItem struct {
	ProductID       models.ID    `json:"product_id"`
	Quantity        int          `json:"quantity"`
	PriceAtPurchase models.Money `json:"price_at_purchase"`
}

// Order aggregate root. Status is the only field mutated after creation, and
// only through the explicit transition methods below.
type Order struct {
	ID          models.ID    `json:"id"`
	UserID      models.ID    `json:"user_id"`
	Status      OrderStatus  `json:"status"`
	TotalAmount models.Money `json:"total_amount"`
	Items       []OrderItem  `json:"items"`
	Timestamps  models.Timestamps
	Version     models.Version

	events []*events.Event
}

// CreateOrder builds a PENDING order from its line items. The total is the
// sum of quantity times price at purchase across all items.
func CreateOrder(userID models.ID, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.New("order must have at least one item")
	}

	total := models.NewMoney(0, items[0].PriceAtPurchase.Currency)
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errors.Errorf("item %s has non-positive quantity %d", item.ProductID, item.Quantity)
		}
		if !item.PriceAtPurchase.IsPositive() {
			return nil, errors.Errorf("item %s has non-positive price", item.ProductID)
		}

		line := item.PriceAtPurchase.Multiply(item.Quantity)
		sum, err := total.Add(line)
		if err != nil {
			return nil, errors.Wrapf(err, "item %s", item.ProductID)
		}
		total = sum
	}

	order := &Order{
		ID:          models.GenerateUUID(),
		UserID:      userID,
		Status:      OrderStatusPending,
		TotalAmount: total,
		Items:       items,
		Timestamps:  models.NewTimestamps(),
		Version:     models.NewVersion(),
	}

	order.recordEvent(events.NewEvent(order.ID, events.OrderCreatedEvent, OrderStatusData{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
	}))

	return order, nil
}

// MarkPaid transitions the order from PENDING to PAID
func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPending {
		return errs.Conflict("order %s cannot be paid: status is %s, not %s", o.ID, o.Status, OrderStatusPending)
	}

	o.Status = OrderStatusPaid
	o.touch()

	o.recordEvent(events.NewEvent(o.ID, events.OrderPaidEvent, OrderStatusData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	}))

	return nil
}

// Cancel transitions the order to CANCELLED from any status
func (o *Order) Cancel() {
	if o.Status == OrderStatusCancelled {
		return
	}

	o.Status = OrderStatusCancelled
	o.touch()

	o.recordEvent(events.NewEvent(o.ID, events.OrderCancelledEvent, OrderStatusData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	}))
}

// SetStatus sets the status directly. Used for saga compensation (restoring
// a recorded previous status) and shipment-driven updates; regular
// transitions go through MarkPaid and Cancel.
func (o *Order) SetStatus(status OrderStatus) error {
	if !status.IsValid() {
		return errs.Validation("invalid order status %q", status)
	}
	if o.Status == status {
		return nil
	}

	o.Status = status
	o.touch()

	o.recordEvent(events.NewEvent(o.ID, events.OrderStatusUpdatedEvent, OrderStatusData{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
	}))

	return nil
}

// ItemQuantities projects the order lines to product/quantity pairs for the
// inventory collaborator.
func (o *Order) ItemQuantities() []ItemQuantity {
	items := make([]ItemQuantity, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemQuantity{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return items
}

func (o *Order) touch() {
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

// Events returns recorded domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

// ClearEvents clears domain events
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) recordEvent(event *events.Event) {
	o.events = append(o.events, event)
}

// OrderStatusData is the payload of order lifecycle events
type OrderStatusData struct {
	OrderID models.ID   `json:"order_id"`
	UserID  models.ID   `json:"user_id"`
	Status  OrderStatus `json:"status"`
}

// ItemQuantity pairs a product with a quantity for inventory operations
type ItemQuantity struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderRepository is the storage port
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindByUserID(ctx context.Context, userID models.ID) ([]*Order, error)
}

// InventoryClient is the inventory collaborator surface. All three batch
// operations are all-or-nothing across the whole items list.
type InventoryClient interface {
	ReserveMany(ctx context.Context, items []ItemQuantity) error
	CommitMany(ctx context.Context, items []ItemQuantity) error
	ReleaseMany(ctx context.Context, items []ItemQuantity) error
}

// PaymentResult is the collaborator's view of a payment transaction
type PaymentResult struct {
	TransactionID     models.ID
	Status            string
	ExternalPaymentID string
}

// Payment transaction statuses as reported by the payment collaborator
const (
	PaymentSucceeded = "SUCCEEDED"
	PaymentRefunded  = "REFUNDED"
)

// PaymentClient is the payment collaborator surface
type PaymentClient interface {
	Charge(ctx context.Context, orderID, userID models.ID, amount models.Money) (*PaymentResult, error)
	Refund(ctx context.Context, orderID models.ID) (*PaymentResult, error)
}
