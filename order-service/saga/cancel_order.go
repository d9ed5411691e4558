package saga

import (
	"context"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/saga"
)

// CancelOrderSteps builds the cancel-order step list. Refund runs first: if
// the order's payment cannot be refunded nothing else should move.
func CancelOrderSteps(
	orders domain.OrderRepository,
	inventory domain.InventoryClient,
	payments domain.PaymentClient,
) []saga.Step[*CancelOrderContext] {
	return []saga.Step[*CancelOrderContext]{
		&refundStep{payments: payments},
		&releaseItemsStep{inventory: inventory},
		&updateStatusStep{orders: orders},
	}
}

// refundStep refunds the order's payment. The precondition (payment must be
// SUCCEEDED) is checked by the payment collaborator when the refund call
// arrives, not before the saga starts.
type refundStep struct {
	payments domain.PaymentClient
}

func (s *refundStep) Name() string { return "refund" }

func (s *refundStep) Invoke(ctx context.Context, sc *CancelOrderContext) error {
	result, err := s.payments.Refund(ctx, sc.Order.ID)
	if err != nil {
		return err
	}
	if result.Status != domain.PaymentRefunded {
		return errs.Conflict("refund for order %s did not complete: transaction %s is %s",
			sc.Order.ID, result.TransactionID, result.Status)
	}
	return nil
}

// Compensate is a no-op: this saga cannot re-charge a refunded payment.
func (s *refundStep) Compensate(ctx context.Context, sc *CancelOrderContext) error {
	return nil
}

// releaseItemsStep returns the order's holds to available stock
type releaseItemsStep struct {
	inventory domain.InventoryClient
}

func (s *releaseItemsStep) Name() string { return "release_items" }

func (s *releaseItemsStep) Invoke(ctx context.Context, sc *CancelOrderContext) error {
	return s.inventory.ReleaseMany(ctx, sc.Order.ItemQuantities())
}

func (s *releaseItemsStep) Compensate(ctx context.Context, sc *CancelOrderContext) error {
	return s.inventory.ReserveMany(ctx, sc.Order.ItemQuantities())
}

// updateStatusStep records the current status, then moves the order to
// CANCELLED. Its compensation restores the recorded status.
type updateStatusStep struct {
	orders domain.OrderRepository
}

func (s *updateStatusStep) Name() string { return "update_status" }

func (s *updateStatusStep) Invoke(ctx context.Context, sc *CancelOrderContext) error {
	previous := sc.Order.Status
	sc.PreviousStatus = &previous

	sc.Order.Cancel()
	return s.orders.Save(ctx, sc.Order)
}

func (s *updateStatusStep) Compensate(ctx context.Context, sc *CancelOrderContext) error {
	if sc.PreviousStatus == nil {
		return nil
	}
	if err := sc.Order.SetStatus(*sc.PreviousStatus); err != nil {
		return err
	}
	return s.orders.Save(ctx, sc.Order)
}
