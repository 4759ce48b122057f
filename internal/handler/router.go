package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arnobt78/bookstore-backend/internal/auth"
)

// NewRouter wires the core routes. Every route answers OPTIONS preflights
// and carries Access-Control-Allow-Origin on its responses.
func NewRouter(h *Handler, jwtSecret []byte) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Authenticated by the provider signature, not by a bearer token.
	r.Post("/payment/webhook", h.PaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticator(jwtSecret))

		r.Post("/payment/intent", h.CreatePaymentIntent)
		r.Get("/payment/verify/{id}", h.VerifyPayment)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListMyOrders)

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/status", h.UpdateOrderStatus)
			r.Post("/{id}/tracking", h.RecordTracking)
			r.Post("/{id}/generate-label", h.GenerateLabel)
			r.Post("/{id}/refund", h.RefundOrder)
		})
	})

	return r
}
