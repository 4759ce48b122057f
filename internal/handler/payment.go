package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/arnobt78/bookstore-backend/internal/auth"
	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/payment"
)

// signatureHeader is the provider's webhook signature header.
const signatureHeader = "Stripe-Signature"

// CreatePaymentIntent starts a checkout by creating a provider intent for
// the authenticated user.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := h.svc.CreatePaymentIntent(r.Context(), customerFromClaims(claims), req.Amount, req.Currency)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
		"amount":          intent.Amount,
		"currency":        intent.Currency,
		"status":          intent.Status,
	})
}

// VerifyPayment returns the state of the caller's own payment intent.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	intentID := chi.URLParam(r, "id")
	intent, err := h.svc.VerifyPaymentIntent(r.Context(), claims.ID, intentID)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"paymentIntentId": intent.ID,
		"status":          intent.Status,
		"amount":          intent.Amount,
		"currency":        intent.Currency,
		"metadata":        intent.Metadata,
	})
}

// PaymentWebhook receives provider events. It is authenticated by the
// signature over the untouched raw body, not by a bearer token; nothing
// reads or reshapes the body before verification.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	ev, err := payment.VerifyWebhook(body, r.Header.Get(signatureHeader), h.webhookSecret)
	if err != nil {
		respondWithMappedError(w, err)
		return
	}

	if h.dedup != nil && !h.dedup.FirstDelivery(r.Context(), ev.ID) {
		log.Info().Str("event_id", ev.ID).Msg("handler: duplicate webhook delivery, skipping")
		respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.svc.HandleWebhookEvent(r.Context(), ev); err != nil {
		respondWithMappedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func customerFromClaims(claims *auth.Claims) order.Customer {
	return order.Customer{ID: claims.ID, Name: claims.Name, Email: claims.Email}
}
