// Package handler is the HTTP surface: route dispatch, authentication and
// role checks, JSON encode/decode, CORS, and the uniform error mapping.
package handler

import (
	"context"

	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/payment"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
)

// Service is the coordinator surface the handlers call.
type Service interface {
	CreatePaymentIntent(ctx context.Context, customer order.Customer, amountMinor int64, currency string) (*payment.Intent, error)
	VerifyPaymentIntent(ctx context.Context, callerID, intentID string) (*payment.Intent, error)
	HandleWebhookEvent(ctx context.Context, ev *payment.Event) error

	CreateOrder(ctx context.Context, in order.CreateOrderInput) (*order.CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]order.Order, error)
	ListAllOrders(ctx context.Context) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID string, next order.Status, actor string) (*order.StatusUpdateResult, error)
	RecordTracking(ctx context.Context, orderID string, in order.TrackingInput, actor string) (*order.Order, error)
	GenerateLabel(ctx context.Context, orderID string, opts shipping.Options, actor string) (*order.Order, *shipping.Label, error)
	RefundOrder(ctx context.Context, orderID string, in order.RefundInput) (*order.RefundResult, error)
}

// WebhookDeduper short-circuits repeated webhook deliveries.
type WebhookDeduper interface {
	FirstDelivery(ctx context.Context, eventID string) bool
}

// Handler holds the route implementations.
type Handler struct {
	svc           Service
	webhookSecret string
	dedup         WebhookDeduper
}

func New(svc Service, webhookSecret string, dedup WebhookDeduper) *Handler {
	return &Handler{svc: svc, webhookSecret: webhookSecret, dedup: dedup}
}
