package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
)

var _ domain.PaymentClient = (*PaymentHTTPAdapter)(nil)

// PaymentHTTPAdapter calls the payment service over HTTP
type PaymentHTTPAdapter struct {
	baseURL string
	client  *http.Client
}

// NewPaymentHTTPAdapter creates a new PaymentHTTPAdapter
func NewPaymentHTTPAdapter(baseURL string) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chargeRequest struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundRequest struct {
	OrderID string `json:"order_id"`
}

type transactionEnvelope struct {
	Transaction struct {
		ID                string  `json:"id"`
		Status            string  `json:"status"`
		ExternalPaymentID *string `json:"external_payment_id"`
	} `json:"transaction"`
}

// Charge asks the payment service to charge the user for the order. A
// declined charge is not a transport failure: it comes back as a FAILED
// transaction and the caller decides what that means.
func (a *PaymentHTTPAdapter) Charge(ctx context.Context, orderID, userID models.ID, amount models.Money) (*domain.PaymentResult, error) {
	payload := chargeRequest{
		OrderID:  orderID.String(),
		UserID:   userID.String(),
		Amount:   amount.Amount,
		Currency: amount.Currency,
	}

	raw, err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/payments/charge", payload)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(raw)
}

// Refund asks the payment service to refund the order's transaction
func (a *PaymentHTTPAdapter) Refund(ctx context.Context, orderID models.ID) (*domain.PaymentResult, error) {
	raw, err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/payments/refund", refundRequest{OrderID: orderID.String()})
	if err != nil {
		return nil, err
	}
	return decodeTransaction(raw)
}

func decodeTransaction(raw []byte) (*domain.PaymentResult, error) {
	var envelope transactionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode payment response")
	}

	result := &domain.PaymentResult{
		TransactionID: models.ID(envelope.Transaction.ID),
		Status:        envelope.Transaction.Status,
	}
	if envelope.Transaction.ExternalPaymentID != nil {
		result.ExternalPaymentID = *envelope.Transaction.ExternalPaymentID
	}
	return result, nil
}
