package application

import (
	"context"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// ChargePaymentCommand requests a charge for an order
type ChargePaymentCommand struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ChargePaymentResponse carries the resulting transaction. A declined charge
// is not an error at this boundary: the transaction comes back FAILED and the
// caller decides what that means.
type ChargePaymentResponse struct {
	Transaction TransactionResponse `json:"transaction"`
}

// ChargePayment charges a user for an order through the payment gateway.
// There is at most one transaction per order: a repeated charge for an order
// that already succeeded returns the existing transaction unchanged.
type ChargePayment struct {
	paymentRepository domain.PaymentRepository
	gateway           domain.Gateway
	eventPublisher    events.Publisher
	logger            zerolog.Logger
}

// NewChargePayment creates a new ChargePayment use case
func NewChargePayment(
	paymentRepository domain.PaymentRepository,
	gateway domain.Gateway,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *ChargePayment {
	return &ChargePayment{
		paymentRepository: paymentRepository,
		gateway:           gateway,
		eventPublisher:    eventPublisher,
		logger:            logger,
	}
}

// Execute executes the charge payment use case
func (uc *ChargePayment) Execute(ctx context.Context, cmd *ChargePaymentCommand) (*ChargePaymentResponse, error) {
	orderID, userID, amount, err := uc.validateCommand(cmd)
	if err != nil {
		return nil, err
	}

	existing, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == domain.PaymentStatusSucceeded {
			return &ChargePaymentResponse{Transaction: toTransactionResponse(existing)}, nil
		}
		return nil, errs.Conflict("order %s already has a payment transaction with status %s", orderID, existing.Status)
	}

	transaction, err := domain.CreatePaymentTransaction(orderID, userID, amount)
	if err != nil {
		return nil, errs.Validation("invalid charge: %s", err)
	}

	externalPaymentID, chargeErr := uc.gateway.CreateCharge(ctx, orderID, userID, amount)
	switch {
	case chargeErr == nil:
		if err := transaction.MarkSucceeded(externalPaymentID); err != nil {
			return nil, err
		}
	case domain.IsDecline(chargeErr):
		// A decline is an outcome, not an error at this boundary: record it
		// and return the FAILED transaction to the caller.
		if err := transaction.MarkFailed(chargeErr.Error()); err != nil {
			return nil, err
		}
		uc.logger.Warn().
			Str("order_id", orderID.String()).
			Err(chargeErr).
			Msg("payment charge declined")
	default:
		// The provider may or may not have charged. Record no outcome; a
		// retried charge starts from a clean slate.
		return nil, errs.Upstream(chargeErr, "payment gateway charge failed for order %s", orderID)
	}

	if err := uc.paymentRepository.Save(ctx, transaction); err != nil {
		return nil, err
	}

	publishPaymentEvents(ctx, uc.eventPublisher, uc.logger, transaction)

	return &ChargePaymentResponse{Transaction: toTransactionResponse(transaction)}, nil
}

func (uc *ChargePayment) validateCommand(cmd *ChargePaymentCommand) (orderID, userID models.ID, amount models.Money, err error) {
	orderID, err = models.NewID(cmd.OrderID)
	if err != nil {
		return "", "", models.Money{}, errs.Validation("invalid order ID: %s", cmd.OrderID)
	}
	userID, err = models.NewID(cmd.UserID)
	if err != nil {
		return "", "", models.Money{}, errs.Validation("invalid user ID: %s", cmd.UserID)
	}
	if cmd.Amount <= 0 {
		return "", "", models.Money{}, errs.Validation("amount must be positive, got %d", cmd.Amount)
	}
	if cmd.Currency == "" {
		return "", "", models.Money{}, errs.Validation("currency is required")
	}
	return orderID, userID, models.NewMoney(cmd.Amount, cmd.Currency), nil
}
