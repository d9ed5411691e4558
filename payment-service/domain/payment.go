package domain

import (
	"context"
	"fmt"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
)

// PaymentStatus represents the status of a payment transaction
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentTransaction aggregate root. There is at most one transaction per
// order. A transaction is created PENDING, moves to SUCCEEDED or FAILED
// exactly once, and can move to REFUNDED only from SUCCEEDED.
type PaymentTransaction struct {
	ID                models.ID     `json:"id"`
	OrderID           models.ID     `json:"order_id"`
	UserID            models.ID     `json:"user_id"`
	Amount            models.Money  `json:"amount"`
	Status            PaymentStatus `json:"status"`
	ExternalPaymentID *string       `json:"external_payment_id,omitempty"`
	Timestamps        models.Timestamps
	Version           models.Version

	events []*events.Event
}

// CreatePaymentTransaction factory method
func CreatePaymentTransaction(orderID, userID models.ID, amount models.Money) (*PaymentTransaction, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	return &PaymentTransaction{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		UserID:     userID,
		Amount:     amount,
		Status:     PaymentStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// MarkSucceeded records a successful provider charge
func (p *PaymentTransaction) MarkSucceeded(externalPaymentID string) error {
	if p.Status != PaymentStatusPending {
		return errs.Conflict("payment for order %s can only succeed from pending, got %s", p.OrderID, p.Status)
	}

	p.Status = PaymentStatusSucceeded
	p.ExternalPaymentID = &externalPaymentID
	p.touch()

	p.recordEvent(events.NewEvent(p.OrderID, events.PaymentSucceededEvent, PaymentResultData{
		TransactionID:     p.ID,
		OrderID:           p.OrderID,
		UserID:            p.UserID,
		Amount:            p.Amount,
		ExternalPaymentID: externalPaymentID,
	}))

	return nil
}

// MarkFailed records a declined provider charge
func (p *PaymentTransaction) MarkFailed(reason string) error {
	if p.Status != PaymentStatusPending {
		return errs.Conflict("payment for order %s can only fail from pending, got %s", p.OrderID, p.Status)
	}

	p.Status = PaymentStatusFailed
	p.touch()

	p.recordEvent(events.NewEvent(p.OrderID, events.PaymentFailedEvent, PaymentFailedData{
		TransactionID: p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Reason:        reason,
	}))

	return nil
}

// MarkRefunded moves a succeeded payment to refunded
func (p *PaymentTransaction) MarkRefunded() error {
	if p.Status != PaymentStatusSucceeded {
		return errs.Conflict("payment for order %s cannot be refunded: status is %s, not %s",
			p.OrderID, p.Status, PaymentStatusSucceeded)
	}

	p.Status = PaymentStatusRefunded
	p.touch()

	p.recordEvent(events.NewEvent(p.OrderID, events.PaymentRefundedEvent, PaymentResultData{
		TransactionID: p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
	}))

	return nil
}

func (p *PaymentTransaction) touch() {
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()
}

// Events returns recorded domain events
func (p *PaymentTransaction) Events() []*events.Event {
	return p.events
}

// ClearEvents clears domain events
func (p *PaymentTransaction) ClearEvents() {
	p.events = nil
}

func (p *PaymentTransaction) recordEvent(event *events.Event) {
	p.events = append(p.events, event)
}

// Event payloads

type PaymentResultData struct {
	TransactionID     models.ID    `json:"transaction_id"`
	OrderID           models.ID    `json:"order_id"`
	UserID            models.ID    `json:"user_id"`
	Amount            models.Money `json:"amount"`
	ExternalPaymentID string       `json:"external_payment_id,omitempty"`
}

type PaymentFailedData struct {
	TransactionID models.ID    `json:"transaction_id"`
	OrderID       models.ID    `json:"order_id"`
	UserID        models.ID    `json:"user_id"`
	Amount        models.Money `json:"amount"`
	Reason        string       `json:"reason"`
}

// PaymentRepository is the storage port
type PaymentRepository interface {
	Save(ctx context.Context, transaction *PaymentTransaction) error
	FindByID(ctx context.Context, id models.ID) (*PaymentTransaction, error)
	FindByOrderID(ctx context.Context, orderID models.ID) (*PaymentTransaction, error)
}

// Gateway is the pluggable payment provider capability: create a charge and
// refund a previous one. A charge the provider processed and refused comes
// back as a DeclineError; any other error is a transport failure whose
// outcome on the provider side is unknown.
type Gateway interface {
	CreateCharge(ctx context.Context, orderID, userID models.ID, amount models.Money) (externalPaymentID string, err error)
	Refund(ctx context.Context, externalPaymentID string, amount models.Money) error
}

// DeclineError reports a charge the provider refused
type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	return e.Reason
}

// Decline creates a DeclineError
func Decline(format string, args ...interface{}) error {
	return &DeclineError{Reason: fmt.Sprintf(format, args...)}
}

// IsDecline reports whether err is a provider decline
func IsDecline(err error) bool {
	var decline *DeclineError
	return errors.As(err, &decline)
}
