package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cartena/fulfillment-system/inventory-service/application"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/go-chi/chi/v5"
)

// InventoryHandlers contains inventory HTTP handlers
type InventoryHandlers struct {
	addStock           *application.AddStock
	reserveStock       *application.ReserveStock
	commitReservation  *application.CommitReservation
	releaseReservation *application.ReleaseReservation
	getInventory       *application.GetInventory
	listInventories    *application.ListInventories
}

// NewInventoryHandlers creates new inventory handlers
func NewInventoryHandlers(
	addStock *application.AddStock,
	reserveStock *application.ReserveStock,
	commitReservation *application.CommitReservation,
	releaseReservation *application.ReleaseReservation,
	getInventory *application.GetInventory,
	listInventories *application.ListInventories,
) *InventoryHandlers {
	return &InventoryHandlers{
		addStock:           addStock,
		reserveStock:       reserveStock,
		commitReservation:  commitReservation,
		releaseReservation: releaseReservation,
		getInventory:       getInventory,
		listInventories:    listInventories,
	}
}

// AddStock handles stock addition requests
func (h *InventoryHandlers) AddStock(w http.ResponseWriter, r *http.Request) {
	var cmd application.AddStockCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.addStock.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// ReserveStock handles batch reservation requests
func (h *InventoryHandlers) ReserveStock(w http.ResponseWriter, r *http.Request) {
	var cmd application.ReserveStockCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.reserveStock.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// CommitReservation handles batch commit requests
func (h *InventoryHandlers) CommitReservation(w http.ResponseWriter, r *http.Request) {
	var cmd application.CommitReservationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.commitReservation.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// ReleaseReservation handles batch release requests
func (h *InventoryHandlers) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	var cmd application.ReleaseReservationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	response, err := h.releaseReservation.Execute(r.Context(), &cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetInventory handles inventory retrieval requests
func (h *InventoryHandlers) GetInventory(w http.ResponseWriter, r *http.Request) {
	query := &application.GetInventoryQuery{
		ProductID: chi.URLParam(r, "productID"),
	}

	response, err := h.getInventory.Execute(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// ListInventories handles inventory listing requests
func (h *InventoryHandlers) ListInventories(w http.ResponseWriter, r *http.Request) {
	response, err := h.listInventories.Execute(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/inventories", func(r chi.Router) {
		r.Get("/", h.ListInventories)
		r.Get("/{productID}", h.GetInventory)
		r.Post("/stock", h.AddStock)
		r.Post("/reserve", h.ReserveStock)
		r.Post("/commit", h.CommitReservation)
		r.Post("/release", h.ReleaseReservation)
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
