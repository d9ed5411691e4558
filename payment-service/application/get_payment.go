package application

import (
	"context"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// GetPaymentByOrderCommand asks for the transaction attached to an order
type GetPaymentByOrderCommand struct {
	OrderID string `json:"order_id"`
}

// GetPaymentByOrderResponse carries the found transaction
type GetPaymentByOrderResponse struct {
	Transaction TransactionResponse `json:"transaction"`
}

// GetPaymentByOrder looks up the payment transaction for an order
type GetPaymentByOrder struct {
	paymentRepository domain.PaymentRepository
}

// NewGetPaymentByOrder creates a new GetPaymentByOrder use case
func NewGetPaymentByOrder(paymentRepository domain.PaymentRepository) *GetPaymentByOrder {
	return &GetPaymentByOrder{paymentRepository: paymentRepository}
}

// Execute executes the get payment use case
func (uc *GetPaymentByOrder) Execute(ctx context.Context, cmd *GetPaymentByOrderCommand) (*GetPaymentByOrderResponse, error) {
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

	return &GetPaymentByOrderResponse{Transaction: toTransactionResponse(transaction)}, nil
}

// TransactionResponse is the wire representation of a payment transaction
type TransactionResponse struct {
	ID                string  `json:"id"`
	OrderID           string  `json:"order_id"`
	UserID            string  `json:"user_id"`
	Amount            int64   `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	ExternalPaymentID *string `json:"external_payment_id,omitempty"`
}

func toTransactionResponse(transaction *domain.PaymentTransaction) TransactionResponse {
	return TransactionResponse{
		ID:                transaction.ID.String(),
		OrderID:           transaction.OrderID.String(),
		UserID:            transaction.UserID.String(),
		Amount:            transaction.Amount.Amount,
		Currency:          transaction.Amount.Currency,
		Status:            string(transaction.Status),
		ExternalPaymentID: transaction.ExternalPaymentID,
	}
}

// publishPaymentEvents publishes the transaction's recorded events. Publish
// failures are logged, never surfaced: the transaction is already committed.
func publishPaymentEvents(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, transaction *domain.PaymentTransaction) {
	evts := transaction.Events()
	if len(evts) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.Error().
			Err(err).
			Str("order_id", transaction.OrderID.String()).
			Msg("failed to publish payment events")
	}
	transaction.ClearEvents()
}
