package application

import (
	"context"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RefundPaymentCommand requests a refund of the transaction for an order
type RefundPaymentCommand struct {
	OrderID string `json:"order_id"`
}

// RefundPaymentResponse carries the refunded transaction
type RefundPaymentResponse struct {
	Transaction TransactionResponse `json:"transaction"`
}

// RefundPayment refunds the payment for an order. Only a SUCCEEDED
// transaction can be refunded; anything else is a conflict, including an
// order that never charged.
type RefundPayment struct {
	paymentRepository domain.PaymentRepository
	gateway           domain.Gateway
	eventPublisher    events.Publisher
	logger            zerolog.Logger
}

// NewRefundPayment creates a new RefundPayment use case
func NewRefundPayment(
	paymentRepository domain.PaymentRepository,
	gateway domain.Gateway,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *RefundPayment {
	return &RefundPayment{
		paymentRepository: paymentRepository,
		gateway:           gateway,
		eventPublisher:    eventPublisher,
		logger:            logger,
	}
}

// Execute executes the refund payment use case
func (uc *RefundPayment) Execute(ctx context.Context, cmd *RefundPaymentCommand) (*RefundPaymentResponse, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errs.Validation("invalid order ID: %s", cmd.OrderID)
	}

	transaction, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, errs.NotFound("payment transaction for order %s not found", orderID)
	}

	if transaction.Status != domain.PaymentStatusSucceeded {
		return nil, errs.Conflict("payment for order %s cannot be refunded: status is %s, not %s",
			orderID, transaction.Status, domain.PaymentStatusSucceeded)
	}

	if transaction.ExternalPaymentID == nil {
		return nil, errors.Errorf("succeeded transaction %s has no external payment ID", transaction.ID)
	}

	if err := uc.gateway.Refund(ctx, *transaction.ExternalPaymentID, transaction.Amount); err != nil {
		return nil, errs.Upstream(err, "payment gateway refund failed for order %s", orderID)
	}

	if err := transaction.MarkRefunded(); err != nil {
		return nil, err
	}

	if err := uc.paymentRepository.Save(ctx, transaction); err != nil {
		return nil, err
	}

	publishPaymentEvents(ctx, uc.eventPublisher, uc.logger, transaction)

	return &RefundPaymentResponse{Transaction: toTransactionResponse(transaction)}, nil
}
