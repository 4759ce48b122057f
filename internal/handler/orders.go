package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/arnobt78/bookstore-backend/internal/auth"
	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
)

// CreateOrder records a checkout for the authenticated user.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req struct {
		Items           []order.CartLine    `json:"items"`
		AmountPaid      decimal.Decimal     `json:"amountPaid"`
		PaymentIntentID string              `json:"paymentIntentId"`
		PaymentStatus   order.PaymentStatus `json:"paymentStatus"`
		ShippingAddress *shipping.Address   `json:"shippingAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), order.CreateOrderInput{
		Customer:        customerFromClaims(claims),
		Lines:           req.Items,
		AmountPaid:      req.AmountPaid,
		PaymentIntentID: req.PaymentIntentID,
		PaymentStatus:   req.PaymentStatus,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, res.Order)
}

// ListMyOrders returns the caller's own orders, regardless of role.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	orders, err := h.svc.ListUserOrders(r.Context(), claims.ID)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}
