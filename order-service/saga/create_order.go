package saga

import (
	"context"
	"net/http"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/saga"
)

// CreateOrderSteps builds the create-order step list. Reservation runs before
// payment so a customer is never charged for unavailable stock; commit runs
// last, strictly after payment success, because it has no compensation and
// must sit where no further forward step can fail.
func CreateOrderSteps(
	orders domain.OrderRepository,
	inventory domain.InventoryClient,
	payments domain.PaymentClient,
) []saga.Step[*CreateOrderContext] {
	return []saga.Step[*CreateOrderContext]{
		&placeOrderStep{orders: orders},
		&reserveItemsStep{inventory: inventory},
		&chargePaymentStep{payments: payments, orders: orders},
		&commitReserveStep{inventory: inventory},
	}
}

// placeOrderStep is a forward no-op: the order was already persisted PENDING
// before the saga started. Its compensation cancels the order.
type placeOrderStep struct {
	orders domain.OrderRepository
}

func (s *placeOrderStep) Name() string { return "place_order" }

func (s *placeOrderStep) Invoke(ctx context.Context, sc *CreateOrderContext) error {
	return nil
}

func (s *placeOrderStep) Compensate(ctx context.Context, sc *CreateOrderContext) error {
	sc.Order.Cancel()
	return s.orders.Save(ctx, sc.Order)
}

// reserveItemsStep places a provisional hold on every order line
type reserveItemsStep struct {
	inventory domain.InventoryClient
}

func (s *reserveItemsStep) Name() string { return "reserve_items" }

func (s *reserveItemsStep) Invoke(ctx context.Context, sc *CreateOrderContext) error {
	return s.inventory.ReserveMany(ctx, sc.Order.ItemQuantities())
}

func (s *reserveItemsStep) Compensate(ctx context.Context, sc *CreateOrderContext) error {
	return s.inventory.ReleaseMany(ctx, sc.Order.ItemQuantities())
}

// chargePaymentStep charges the user for the order total and marks the order
// PAID. A transaction that comes back in any status other than SUCCEEDED is a
// failure even when the call itself did not error: a soft decline takes the
// same compensation path as a hard one.
type chargePaymentStep struct {
	payments domain.PaymentClient
	orders   domain.OrderRepository
}

func (s *chargePaymentStep) Name() string { return "charge_payment" }

func (s *chargePaymentStep) Invoke(ctx context.Context, sc *CreateOrderContext) error {
	result, err := s.payments.Charge(ctx, sc.Order.ID, sc.UserID, sc.Order.TotalAmount)
	if err != nil {
		return err
	}
	if result.Status != domain.PaymentSucceeded {
		return errs.UpstreamStatus(http.StatusPaymentRequired,
			"payment for order %s declined: transaction %s is %s", sc.Order.ID, result.TransactionID, result.Status)
	}

	if err := sc.Order.MarkPaid(); err != nil {
		return err
	}
	return s.orders.Save(ctx, sc.Order)
}

func (s *chargePaymentStep) Compensate(ctx context.Context, sc *CreateOrderContext) error {
	_, err := s.payments.Refund(ctx, sc.Order.ID)
	return err
}

// commitReserveStep converts the holds into permanent stock deductions. It
// has no undo path: a committed decrement cannot be compensated, which is why
// no step may ever be appended after it.
type commitReserveStep struct {
	inventory domain.InventoryClient
}

func (s *commitReserveStep) Name() string { return "commit_reserve" }

func (s *commitReserveStep) Invoke(ctx context.Context, sc *CreateOrderContext) error {
	return s.inventory.CommitMany(ctx, sc.Order.ItemQuantities())
}

func (s *commitReserveStep) Compensate(ctx context.Context, sc *CreateOrderContext) error {
	return nil
}
