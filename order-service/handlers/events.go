package handlers

import (
	"context"

	"github.com/cartena/fulfillment-system/order-service/application"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/rs/zerolog"
)

// ShippingStatusHandler consumes shipment-tracking events and applies them to
// the order. Delivery is at-least-once: the status update is idempotent, so a
// redelivered event is a harmless no-op.
type ShippingStatusHandler struct {
	updateOrderStatus *application.UpdateOrderStatus
	logger            zerolog.Logger
}

// NewShippingStatusHandler creates a new ShippingStatusHandler
func NewShippingStatusHandler(updateOrderStatus *application.UpdateOrderStatus, logger zerolog.Logger) *ShippingStatusHandler {
	return &ShippingStatusHandler{
		updateOrderStatus: updateOrderStatus,
		logger:            logger,
	}
}

// HandlerID identifies this handler in subscriber logs
func (h *ShippingStatusHandler) HandlerID() string {
	return "order-service.shipping-status"
}

// shippingStatusPayload is the delivery collaborator's event body
type shippingStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Handle applies a shipping status change to the order
func (h *ShippingStatusHandler) Handle(ctx context.Context, event *events.Event) error {
	if !event.Topic.Matches(events.ShippingStatusChangedEvent) {
		return nil
	}

	var payload shippingStatusPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error().Err(err).Str("event_id", event.ID.String()).
			Msg("failed to decode shipping status event, dropping")
		return nil
	}

	_, err := h.updateOrderStatus.Execute(ctx, &application.UpdateOrderStatusCommand{
		OrderID: payload.OrderID,
		Status:  payload.Status,
	})
	if err != nil {
		// Malformed payloads and unknown orders would never succeed on
		// redelivery; drop them instead of looping.
		switch errs.KindOf(err) {
		case errs.KindValidation, errs.KindNotFound:
			h.logger.Warn().Err(err).Str("order_id", payload.OrderID).
				Msg("dropping shipping status event")
			return nil
		}
		return err
	}

	h.logger.Info().
		Str("order_id", payload.OrderID).
		Str("status", payload.Status).
		Msg("applied shipping status change")
	return nil
}
