package handlers

import (
	"net/http"

	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
)

// PurchaseHandler serves the caller's library purchases.
type PurchaseHandler struct {
	purchases services.PurchaseService
}

// NewPurchaseHandler creates a PurchaseHandler.
func NewPurchaseHandler(purchases services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// List returns the caller's purchases
// @Summary List my purchases
// @Tags purchases
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.PurchaseList}
// @Failure 401 {object} models.APIResponse
// @Router /api/purchases [get]
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.purchases.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch purchases", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Purchases retrieved", list))
}

// Create records a purchase for the caller
// @Summary Create a purchase
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePurchaseRequest true "Purchase"
// @Success 201 {object} models.APIResponse{data=models.Purchase}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /api/purchases [post]
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	purchase, err := h.purchases.Create(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		if invalidInput(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SuccessResponse("Purchase completed", purchase))
}
