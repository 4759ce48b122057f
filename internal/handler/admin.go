package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arnobt78/bookstore-backend/internal/auth"
	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
)

// ListOrders returns every order for the admin dashboard.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListAllOrders(r.Context())
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ord)
}

// UpdateOrderStatus moves an order along its lifecycle.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status order.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, actorFrom(r))
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"order":           res.Order,
		"restoreFailures": res.RestoreFailures,
	})
}

// RecordTracking stores manually entered tracking details.
func (h *Handler) RecordTracking(w http.ResponseWriter, r *http.Request) {
	var req order.TrackingInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ord, err := h.svc.RecordTracking(r.Context(), chi.URLParam(r, "id"), req, actorFrom(r))
	if err != nil {
		respondWithMappedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ord)
}

// GenerateLabel purchases a shipping label and records its tracking info.
func (h *Handler) GenerateLabel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Carrier      string               `json:"carrier"`
		ServiceLevel string               `json:"serviceLevel"`
		WeightLb     float64              `json:"weightLb"`
		Dimensions   *shipping.Dimensions `json:"dimensions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ord, label, err := h.svc.GenerateLabel(r.Context(), chi.URLParam(r, "id"), shipping.Options{
		Carrier:      req.Carrier,
		ServiceLevel: req.ServiceLevel,
		WeightLb:     req.WeightLb,
		Dimensions:   req.Dimensions,
	}, actorFrom(r))
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"order":          ord,
		"trackingNumber": label.TrackingNumber,
		"carrier":        label.Carrier,
		"labelUrl":       label.LabelURL,
		"trackingUrl":    label.TrackingURL,
	})
}

// RefundOrder refunds an order's charge with the payment provider.
func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount *int64 `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.RefundOrder(r.Context(), chi.URLParam(r, "id"), order.RefundInput{
		AmountMinor: req.Amount,
		Reason:      req.Reason,
		Actor:       actorFrom(r),
	})
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"order":           res.Order,
		"refundId":        res.Refund.ID,
		"refundAmount":    res.Refund.Amount,
		"restoreFailures": res.RestoreFailures,
	})
}

func actorFrom(r *http.Request) string {
	if claims, ok := auth.FromContext(r.Context()); ok {
		return claims.ID
	}
	return "unknown"
}
