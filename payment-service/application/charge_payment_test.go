package application

import (
	"context"
	"testing"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderID = models.ID("550e8400-e29b-41d4-a716-446655440010")
	userID  = models.ID("550e8400-e29b-41d4-a716-446655440020")
)

func chargeCommand() *ChargePaymentCommand {
	return &ChargePaymentCommand{
		OrderID:  orderID.String(),
		UserID:   userID.String(),
		Amount:   2599,
		Currency: "USD",
	}
}

func TestChargePayment_Execute_Succeeds(t *testing.T) {
	repo := newInMemoryPaymentRepository()
	gateway := &fakeGateway{externalPaymentID: "ext-123"}
	uc := NewChargePayment(repo, gateway, nopPublisher{}, zerolog.Nop())

	response, err := uc.Execute(context.Background(), chargeCommand())

	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusSucceeded), response.Transaction.Status)
	require.NotNil(t, response.Transaction.ExternalPaymentID)
	assert.Equal(t, "ext-123", *response.Transaction.ExternalPaymentID)
	assert.Equal(t, int64(2599), response.Transaction.Amount)

	stored := repo.byOrder[orderID]
	require.NotNil(t, stored)
	assert.Equal(t, domain.PaymentStatusSucceeded, stored.Status)
}

func TestChargePayment_Execute_DeclineReturnsFailedTransaction(t *testing.T) {
	repo := newInMemoryPaymentRepository()
	gateway := &fakeGateway{chargeErr: domain.Decline("card declined")}
	uc := NewChargePayment(repo, gateway, nopPublisher{}, zerolog.Nop())

	response, err := uc.Execute(context.Background(), chargeCommand())

	// a decline is an outcome, not an error at this boundary
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusFailed), response.Transaction.Status)
	assert.Nil(t, response.Transaction.ExternalPaymentID)

	stored := repo.byOrder[orderID]
	require.NotNil(t, stored)
	assert.Equal(t, domain.PaymentStatusFailed, stored.Status)
}

func TestChargePayment_Execute_TransportFailureRecordsNoOutcome(t *testing.T) {
	repo := newInMemoryPaymentRepository()
	gateway := &fakeGateway{chargeErr: errors.New("connection reset by peer")}
	uc := NewChargePayment(repo, gateway, nopPublisher{}, zerolog.Nop())

	_, err := uc.Execute(context.Background(), chargeCommand())

	// the provider may have charged; the transaction must not be marked
	// FAILED on an error of unknown outcome
	require.Error(t, err)
	assert.Equal(t, errs.KindUpstream, errs.KindOf(err))
	assert.Nil(t, repo.byOrder[orderID])

	// a retry after the outage charges cleanly
	gateway.chargeErr = nil
	gateway.externalPaymentID = "ext-retry"
	response, err := uc.Execute(context.Background(), chargeCommand())
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusSucceeded), response.Transaction.Status)
	assert.Equal(t, 2, gateway.chargeCalls)
}

func TestChargePayment_Execute_RepeatedChargeIsIdempotent(t *testing.T) {
	repo := newInMemoryPaymentRepository()
	gateway := &fakeGateway{externalPaymentID: "ext-123"}
	uc := NewChargePayment(repo, gateway, nopPublisher{}, zerolog.Nop())

	first, err := uc.Execute(context.Background(), chargeCommand())
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), chargeCommand())
	require.NoError(t, err)

	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	assert.Equal(t, 1, gateway.chargeCalls)
}

func TestChargePayment_Execute_ExistingFailedTransactionConflicts(t *testing.T) {
	failed := mustTransaction(t, domain.PaymentStatusFailed)
	repo := newInMemoryPaymentRepository(failed)
	uc := NewChargePayment(repo, &fakeGateway{}, nopPublisher{}, zerolog.Nop())

	_, err := uc.Execute(context.Background(), chargeCommand())

	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestChargePayment_Execute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cmd *ChargePaymentCommand)
	}{
		{"invalid order ID", func(cmd *ChargePaymentCommand) { cmd.OrderID = "not-a-uuid" }},
		{"invalid user ID", func(cmd *ChargePaymentCommand) { cmd.UserID = "" }},
		{"non-positive amount", func(cmd *ChargePaymentCommand) { cmd.Amount = 0 }},
		{"missing currency", func(cmd *ChargePaymentCommand) { cmd.Currency = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewChargePayment(newInMemoryPaymentRepository(), &fakeGateway{}, nopPublisher{}, zerolog.Nop())
			cmd := chargeCommand()
			tt.mutate(cmd)

			_, err := uc.Execute(context.Background(), cmd)

			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		})
	}
}

func mustTransaction(t *testing.T, status domain.PaymentStatus) *domain.PaymentTransaction {
	t.Helper()
	transaction, err := domain.CreatePaymentTransaction(orderID, userID, models.NewMoney(2599, "USD"))
	require.NoError(t, err)
	switch status {
	case domain.PaymentStatusSucceeded:
		require.NoError(t, transaction.MarkSucceeded("ext-123"))
	case domain.PaymentStatusFailed:
		require.NoError(t, transaction.MarkFailed("card declined"))
	case domain.PaymentStatusRefunded:
		require.NoError(t, transaction.MarkSucceeded("ext-123"))
		require.NoError(t, transaction.MarkRefunded())
	}
	transaction.ClearEvents()
	return transaction
}
