package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cartena/fulfillment-system/payment-service/application"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/go-chi/chi/v5"
)

// PaymentHandlers contains payment HTTP handlers
type PaymentHandlers struct {
	chargePayment     *application.ChargePayment
	refundPayment     *application.RefundPayment
	getPaymentByOrder *application.GetPaymentByOrder
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(
	chargePayment *application.ChargePayment,
	refundPayment *application.RefundPayment,
	getPaymentByOrder *application.GetPaymentByOrder,
) *PaymentHandlers {
	return &PaymentHandlers{
		chargePayment:     chargePayment,
		refundPayment:     refundPayment,
		getPaymentByOrder: getPaymentByOrder,
	}
}

// ChargePayment handles charge requests
func (h *PaymentHandlers) ChargePayment(w http.ResponseWriter, r *http.Request) {
	var cmd application.ChargePaymentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.chargePayment.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// RefundPayment handles refund requests
func (h *PaymentHandlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var cmd application.RefundPaymentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.refundPayment.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetPaymentByOrder handles transaction retrieval requests
func (h *PaymentHandlers) GetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	cmd := &application.GetPaymentByOrderCommand{
		OrderID: chi.URLParam(r, "orderID"),
	}

	response, err := h.getPaymentByOrder.Execute(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers payment routes
func (h *PaymentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/charge", h.ChargePayment)
		r.Post("/refund", h.RefundPayment)
		r.Get("/order/{orderID}", h.GetPaymentByOrder)
	})
}

// errorResponse is the error body shared by all services
type errorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func respondError(w http.ResponseWriter, err error) {
	statusCode := errs.StatusCode(err)
	respondJSON(w, statusCode, errorResponse{
		Message:    err.Error(),
		StatusCode: statusCode,
	})
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
