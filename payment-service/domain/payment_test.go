package domain

import (
	"testing"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransaction(t *testing.T) *PaymentTransaction {
	t.Helper()
	transaction, err := CreatePaymentTransaction(models.GenerateUUID(), models.GenerateUUID(), models.NewMoney(1000, "USD"))
	require.NoError(t, err)
	return transaction
}

func TestPaymentTransaction_MarkSucceeded(t *testing.T) {
	transaction := newTransaction(t)

	require.NoError(t, transaction.MarkSucceeded("ext-1"))
	assert.Equal(t, PaymentStatusSucceeded, transaction.Status)
	require.NotNil(t, transaction.ExternalPaymentID)
	assert.Equal(t, "ext-1", *transaction.ExternalPaymentID)

	require.Len(t, transaction.Events(), 1)
	assert.Equal(t, events.PaymentSucceededEvent, transaction.Events()[0].EventType)

	// terminal: cannot succeed or fail twice
	assert.Equal(t, errs.KindConflict, errs.KindOf(transaction.MarkSucceeded("ext-2")))
	assert.Equal(t, errs.KindConflict, errs.KindOf(transaction.MarkFailed("late decline")))
}

func TestPaymentTransaction_MarkRefunded_OnlyFromSucceeded(t *testing.T) {
	pending := newTransaction(t)
	assert.Equal(t, errs.KindConflict, errs.KindOf(pending.MarkRefunded()))

	failed := newTransaction(t)
	require.NoError(t, failed.MarkFailed("card declined"))
	assert.Equal(t, errs.KindConflict, errs.KindOf(failed.MarkRefunded()))

	succeeded := newTransaction(t)
	require.NoError(t, succeeded.MarkSucceeded("ext-1"))
	require.NoError(t, succeeded.MarkRefunded())
	assert.Equal(t, PaymentStatusRefunded, succeeded.Status)

	// refund is terminal too
	assert.Equal(t, errs.KindConflict, errs.KindOf(succeeded.MarkRefunded()))
}

func TestCreatePaymentTransaction_RejectsNonPositiveAmount(t *testing.T) {
	_, err := CreatePaymentTransaction(models.GenerateUUID(), models.GenerateUUID(), models.NewMoney(0, "USD"))
	assert.Error(t, err)
}
