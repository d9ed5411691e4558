package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cartena/fulfillment-system/order-service/application"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/go-chi/chi/v5"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder       *application.CreateOrder
	cancelOrder       *application.CancelOrder
	updateOrderStatus *application.UpdateOrderStatus
	getOrder          *application.GetOrder
	listOrders        *application.ListOrders
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	cancelOrder *application.CancelOrder,
	updateOrderStatus *application.UpdateOrderStatus,
	getOrder *application.GetOrder,
	listOrders *application.ListOrders,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:       createOrder,
		cancelOrder:       cancelOrder,
		updateOrderStatus: updateOrderStatus,
		getOrder:          getOrder,
		listOrders:        listOrders,
	}
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, response)
}

// CancelOrder handles order cancellation requests
func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	cmd := &application.CancelOrderCommand{
		OrderID: chi.URLParam(r, "orderID"),
	}

	response, err := h.cancelOrder.Execute(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// UpdateOrderStatus handles status update requests
func (h *OrderHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	cmd := &application.UpdateOrderStatusCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  body.Status,
	}

	response, err := h.updateOrderStatus.Execute(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	query := &application.GetOrderQuery{
		OrderID: chi.URLParam(r, "orderID"),
	}

	response, err := h.getOrder.Execute(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// ListOrders handles order listing requests
func (h *OrderHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := &application.ListOrdersQuery{
		UserID: r.URL.Query().Get("user_id"),
	}

	response, err := h.listOrders.Execute(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.Post("/{orderID}/cancel", h.CancelOrder)
		r.Patch("/{orderID}/status", h.UpdateOrderStatus)
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
