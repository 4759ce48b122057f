package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/arnobt78/bookstore-backend/internal/catalog"
	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/payment"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
	"github.com/arnobt78/bookstore-backend/internal/store"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Warn().Err(err).Msg("handler: failed to write response")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithMappedError shapes an operation error into the uniform wire
// response. User-visible messages favor clarity over provider diagnostics,
// except where the diagnostic is actionable.
func respondWithMappedError(w http.ResponseWriter, err error) {
	code := mapErrorToStatusCode(err)
	message := err.Error()

	switch {
	case errors.Is(err, shipping.ErrUnavailable):
		message = "Shipping service temporarily unavailable. Please try again or use manual tracking."
	case errors.Is(err, payment.ErrUnavailable):
		message = "Payment service temporarily unavailable. Please try again later."
	case errors.Is(err, catalog.ErrStockContended):
		message = "The product is in high demand right now. Please try again."
	case code == http.StatusInternalServerError:
		log.Error().Err(err).Msg("handler: internal error")
		message = "internal server error"
	}

	var labelErr *shipping.LabelError
	if errors.As(err, &labelErr) {
		message = labelErr.Error()
	}

	respondWithError(w, code, message)
}

func mapErrorToStatusCode(err error) int {
	var provErr *payment.Error
	if errors.As(err, &provErr) {
		if provErr.CardError() {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}

	var labelErr *shipping.LabelError
	if errors.As(err, &labelErr) {
		return http.StatusServiceUnavailable
	}

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrAlreadyRefunded),
		errors.Is(err, order.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, order.ErrNotIntentOwner):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrStockContended):
		return http.StatusServiceUnavailable
	case errors.Is(err, shipping.ErrUnavailable),
		errors.Is(err, payment.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrAmountMismatch),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrNoPaymentIntent),
		errors.Is(err, order.ErrRefundExceedsPaid),
		errors.Is(err, order.ErrAmountTooSmall),
		errors.Is(err, shipping.ErrSenderIncomplete),
		errors.Is(err, shipping.ErrRecipientIncomplete),
		errors.Is(err, shipping.ErrNoRates),
		errors.Is(err, payment.ErrSignatureInvalid),
		errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
