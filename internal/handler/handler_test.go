package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnobt78/bookstore-backend/internal/auth"
	"github.com/arnobt78/bookstore-backend/internal/handler"
	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/payment"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
)

var (
	jwtSecret     = []byte("test-signing-secret")
	webhookSecret = "whsec_test"
)

// fakeService lets each test wire just the calls it expects.
type fakeService struct {
	createPaymentIntentFunc func(ctx context.Context, customer order.Customer, amountMinor int64, currency string) (*payment.Intent, error)
	verifyPaymentIntentFunc func(ctx context.Context, callerID, intentID string) (*payment.Intent, error)
	handleWebhookEventFunc  func(ctx context.Context, ev *payment.Event) error
	createOrderFunc         func(ctx context.Context, in order.CreateOrderInput) (*order.CreateOrderResult, error)
	getOrderFunc            func(ctx context.Context, orderID string) (*order.Order, error)
	listUserOrdersFunc      func(ctx context.Context, userID string) ([]order.Order, error)
	listAllOrdersFunc       func(ctx context.Context) ([]order.Order, error)
	updateStatusFunc        func(ctx context.Context, orderID string, next order.Status, actor string) (*order.StatusUpdateResult, error)
	recordTrackingFunc      func(ctx context.Context, orderID string, in order.TrackingInput, actor string) (*order.Order, error)
	generateLabelFunc       func(ctx context.Context, orderID string, opts shipping.Options, actor string) (*order.Order, *shipping.Label, error)
	refundOrderFunc         func(ctx context.Context, orderID string, in order.RefundInput) (*order.RefundResult, error)

	webhookCalls int
}

func (f *fakeService) CreatePaymentIntent(ctx context.Context, customer order.Customer, amountMinor int64, currency string) (*payment.Intent, error) {
	return f.createPaymentIntentFunc(ctx, customer, amountMinor, currency)
}

func (f *fakeService) VerifyPaymentIntent(ctx context.Context, callerID, intentID string) (*payment.Intent, error) {
	return f.verifyPaymentIntentFunc(ctx, callerID, intentID)
}

func (f *fakeService) HandleWebhookEvent(ctx context.Context, ev *payment.Event) error {
	f.webhookCalls++
	if f.handleWebhookEventFunc == nil {
		return nil
	}
	return f.handleWebhookEventFunc(ctx, ev)
}

func (f *fakeService) CreateOrder(ctx context.Context, in order.CreateOrderInput) (*order.CreateOrderResult, error) {
	return f.createOrderFunc(ctx, in)
}

func (f *fakeService) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return f.getOrderFunc(ctx, orderID)
}

func (f *fakeService) ListUserOrders(ctx context.Context, userID string) ([]order.Order, error) {
	return f.listUserOrdersFunc(ctx, userID)
}

func (f *fakeService) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	return f.listAllOrdersFunc(ctx)
}

func (f *fakeService) UpdateStatus(ctx context.Context, orderID string, next order.Status, actor string) (*order.StatusUpdateResult, error) {
	return f.updateStatusFunc(ctx, orderID, next, actor)
}

func (f *fakeService) RecordTracking(ctx context.Context, orderID string, in order.TrackingInput, actor string) (*order.Order, error) {
	return f.recordTrackingFunc(ctx, orderID, in, actor)
}

func (f *fakeService) GenerateLabel(ctx context.Context, orderID string, opts shipping.Options, actor string) (*order.Order, *shipping.Label, error) {
	return f.generateLabelFunc(ctx, orderID, opts, actor)
}

func (f *fakeService) RefundOrder(ctx context.Context, orderID string, in order.RefundInput) (*order.RefundResult, error) {
	return f.refundOrderFunc(ctx, orderID, in)
}

type fakeDeduper struct {
	first bool
	seen  []string
}

func (f *fakeDeduper) FirstDelivery(_ context.Context, eventID string) bool {
	f.seen = append(f.seen, eventID)
	return f.first
}

func newTestRouter(t *testing.T, svc *fakeService, dedup handler.WebhookDeduper) http.Handler {
	t.Helper()
	return handler.NewRouter(handler.New(svc, webhookSecret, dedup), jwtSecret)
}

func bearerFor(t *testing.T, id, role string) string {
	t.Helper()
	raw, err := auth.Sign(jwtSecret, auth.Claims{
		ID:    id,
		Email: id + "@example.com",
		Name:  "Jane Reader",
		Role:  role,
	}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + raw
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, &fakeService{}, nil)
	rec := doRequest(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AuthBoundaries(t *testing.T) {
	router := newTestRouter(t, &fakeService{}, nil)

	t.Run("orders_requires_token", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/orders", "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin_requires_admin_role", func(t *testing.T) {
		token := bearerFor(t, "user-1", "customer")
		rec := doRequest(t, router, http.MethodGet, "/admin/orders/", token, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCreateOrderHandler(t *testing.T) {
	t.Run("creates_for_authenticated_user", func(t *testing.T) {
		svc := &fakeService{
			createOrderFunc: func(_ context.Context, in order.CreateOrderInput) (*order.CreateOrderResult, error) {
				assert.Equal(t, "user-1", in.Customer.ID)
				assert.Equal(t, "Jane Reader", in.Customer.Name)
				require.Len(t, in.Lines, 1)
				assert.Equal(t, "p1", in.Lines[0].ProductID)
				assert.Equal(t, 2, in.Lines[0].Quantity)
				return &order.CreateOrderResult{Order: &order.Order{ID: "o1", UserID: in.Customer.ID, Status: order.StatusPending}}, nil
			},
		}
		router := newTestRouter(t, svc, nil)

		body := `{"items":[{"productId":"p1","quantity":2}],"amountPaid":"20.00","paymentIntentId":"pi_1","paymentStatus":"paid"}`
		rec := doRequest(t, router, http.MethodPost, "/orders", bearerFor(t, "user-1", "customer"), body)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var got order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "o1", got.ID)
	})

	t.Run("insufficient_stock_is_bad_request", func(t *testing.T) {
		svc := &fakeService{
			createOrderFunc: func(_ context.Context, _ order.CreateOrderInput) (*order.CreateOrderResult, error) {
				return nil, order.ErrEmptyCart
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/orders", bearerFor(t, "user-1", "customer"), `{"items":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed_body", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{}, nil)
		rec := doRequest(t, router, http.MethodPost, "/orders", bearerFor(t, "user-1", "customer"), `{"items":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListOrdersHandlers(t *testing.T) {
	t.Run("own_orders", func(t *testing.T) {
		svc := &fakeService{
			listUserOrdersFunc: func(_ context.Context, userID string) ([]order.Order, error) {
				assert.Equal(t, "user-1", userID)
				return []order.Order{{ID: "o1", UserID: userID}}, nil
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodGet, "/orders", bearerFor(t, "user-1", "customer"), "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var got []order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "o1", got[0].ID)
	})

	t.Run("admin_list_all", func(t *testing.T) {
		svc := &fakeService{
			listAllOrdersFunc: func(_ context.Context) ([]order.Order, error) {
				return []order.Order{{ID: "o1"}, {ID: "o2"}}, nil
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodGet, "/admin/orders/", bearerFor(t, "admin-1", auth.RoleAdmin), "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var got []order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	t.Run("success_includes_restore_failures", func(t *testing.T) {
		svc := &fakeService{
			updateStatusFunc: func(_ context.Context, orderID string, next order.Status, actor string) (*order.StatusUpdateResult, error) {
				assert.Equal(t, "o1", orderID)
				assert.Equal(t, order.StatusCancelled, next)
				assert.Equal(t, "admin-1", actor)
				return &order.StatusUpdateResult{
					Order:           &order.Order{ID: orderID, Status: next},
					RestoreFailures: []order.RestoreFailure{{ProductID: "p1", Quantity: 2, Reason: "write timeout"}},
				}, nil
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPut, "/admin/orders/o1/status", bearerFor(t, "admin-1", auth.RoleAdmin), `{"status":"cancelled"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			Order           order.Order            `json:"order"`
			RestoreFailures []order.RestoreFailure `json:"restoreFailures"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, order.StatusCancelled, got.Order.Status)
		require.Len(t, got.RestoreFailures, 1)
		assert.Equal(t, "p1", got.RestoreFailures[0].ProductID)
	})

	t.Run("invalid_transition_is_bad_request", func(t *testing.T) {
		svc := &fakeService{
			updateStatusFunc: func(_ context.Context, _ string, _ order.Status, _ string) (*order.StatusUpdateResult, error) {
				return nil, order.ErrInvalidTransition
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPut, "/admin/orders/o1/status", bearerFor(t, "admin-1", auth.RoleAdmin), `{"status":"delivered"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict_is_409", func(t *testing.T) {
		svc := &fakeService{
			updateStatusFunc: func(_ context.Context, _ string, _ order.Status, _ string) (*order.StatusUpdateResult, error) {
				return nil, order.ErrConflict
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPut, "/admin/orders/o1/status", bearerFor(t, "admin-1", auth.RoleAdmin), `{"status":"processing"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing_order_is_404", func(t *testing.T) {
		svc := &fakeService{
			updateStatusFunc: func(_ context.Context, _ string, _ order.Status, _ string) (*order.StatusUpdateResult, error) {
				return nil, order.ErrNotFound
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPut, "/admin/orders/nope/status", bearerFor(t, "admin-1", auth.RoleAdmin), `{"status":"processing"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRefundOrderHandler(t *testing.T) {
	t.Run("success_shape", func(t *testing.T) {
		svc := &fakeService{
			refundOrderFunc: func(_ context.Context, orderID string, in order.RefundInput) (*order.RefundResult, error) {
				assert.Equal(t, "o1", orderID)
				require.NotNil(t, in.AmountMinor)
				assert.Equal(t, int64(1000), *in.AmountMinor)
				assert.Equal(t, "requested_by_customer", in.Reason)
				assert.Equal(t, "admin-1", in.Actor)
				return &order.RefundResult{
					Order:  &order.Order{ID: orderID, Status: order.StatusRefunded},
					Refund: &payment.Refund{ID: "re_1", Status: "succeeded", Amount: 1000},
				}, nil
			},
		}
		router := newTestRouter(t, svc, nil)

		body := `{"amount":1000,"reason":"requested_by_customer"}`
		rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/refund", bearerFor(t, "admin-1", auth.RoleAdmin), body)
		assert.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "re_1", got["refundId"])
		assert.Equal(t, float64(1000), got["refundAmount"])
	})

	t.Run("already_refunded_is_409", func(t *testing.T) {
		svc := &fakeService{
			refundOrderFunc: func(_ context.Context, _ string, _ order.RefundInput) (*order.RefundResult, error) {
				return nil, order.ErrAlreadyRefunded
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/refund", bearerFor(t, "admin-1", auth.RoleAdmin), `{}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("card_error_is_400", func(t *testing.T) {
		svc := &fakeService{
			refundOrderFunc: func(_ context.Context, _ string, _ order.RefundInput) (*order.RefundResult, error) {
				return nil, fmt.Errorf("refund failed: %w", &payment.Error{Type: "card_error", Code: "expired_card", Message: "card expired"})
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/refund", bearerFor(t, "admin-1", auth.RoleAdmin), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGenerateLabelHandler(t *testing.T) {
	t.Run("success_shape", func(t *testing.T) {
		svc := &fakeService{
			generateLabelFunc: func(_ context.Context, orderID string, opts shipping.Options, _ string) (*order.Order, *shipping.Label, error) {
				assert.Equal(t, "usps_priority", opts.ServiceLevel)
				return &order.Order{ID: orderID, Status: order.StatusShipped},
					&shipping.Label{TrackingNumber: "TEST-AB12CD34EF56", Carrier: "usps", LabelURL: "https://labels.example.com/1.pdf"},
					nil
			},
		}
		router := newTestRouter(t, svc, nil)

		body := `{"serviceLevel":"usps_priority"}`
		rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/generate-label", bearerFor(t, "admin-1", auth.RoleAdmin), body)
		assert.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "TEST-AB12CD34EF56", got["trackingNumber"])
		assert.Equal(t, "usps", got["carrier"])
	})

	t.Run("unavailable_gets_manual_fallback_hint", func(t *testing.T) {
		svc := &fakeService{
			generateLabelFunc: func(_ context.Context, _ string, _ shipping.Options, _ string) (*order.Order, *shipping.Label, error) {
				return nil, nil, shipping.ErrUnavailable
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/generate-label", bearerFor(t, "admin-1", auth.RoleAdmin), `{}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "manual tracking")
	})

	t.Run("label_error_is_503_with_diagnostics", func(t *testing.T) {
		svc := &fakeService{
			generateLabelFunc: func(_ context.Context, _ string, _ shipping.Options, _ string) (*order.Order, *shipping.Label, error) {
				return nil, nil, &shipping.LabelError{Messages: []string{"rate expired"}}
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/generate-label", bearerFor(t, "admin-1", auth.RoleAdmin), `{}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "rate expired")
	})
}

func TestPaymentIntentHandlers(t *testing.T) {
	t.Run("create_intent", func(t *testing.T) {
		svc := &fakeService{
			createPaymentIntentFunc: func(_ context.Context, customer order.Customer, amountMinor int64, currency string) (*payment.Intent, error) {
				assert.Equal(t, "user-1", customer.ID)
				assert.Equal(t, int64(2550), amountMinor)
				return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: amountMinor, Currency: "usd", Status: "requires_payment_method"}, nil
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/payment/intent", bearerFor(t, "user-1", "customer"), `{"amount":2550,"currency":"usd"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "pi_1_secret", got["clientSecret"])
		assert.Equal(t, "pi_1", got["paymentIntentId"])
	})

	t.Run("amount_too_small", func(t *testing.T) {
		svc := &fakeService{
			createPaymentIntentFunc: func(_ context.Context, _ order.Customer, _ int64, _ string) (*payment.Intent, error) {
				return nil, order.ErrAmountTooSmall
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodPost, "/payment/intent", bearerFor(t, "user-1", "customer"), `{"amount":10}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("verify_foreign_intent_forbidden", func(t *testing.T) {
		svc := &fakeService{
			verifyPaymentIntentFunc: func(_ context.Context, callerID, intentID string) (*payment.Intent, error) {
				assert.Equal(t, "user-2", callerID)
				assert.Equal(t, "pi_1", intentID)
				return nil, order.ErrNotIntentOwner
			},
		}
		router := newTestRouter(t, svc, nil)

		rec := doRequest(t, router, http.MethodGet, "/payment/verify/pi_1", bearerFor(t, "user-2", "customer"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func signedWebhook(t *testing.T, payload []byte) (string, string) {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return string(payload), fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestPaymentWebhookHandler(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":2550,"metadata":{"userId":"user-1"}}}}`)

	t.Run("verified_event_dispatched", func(t *testing.T) {
		svc := &fakeService{
			handleWebhookEventFunc: func(_ context.Context, ev *payment.Event) error {
				assert.Equal(t, "evt_1", ev.ID)
				assert.Equal(t, "payment_intent.succeeded", ev.Type)
				return nil
			},
		}
		router := newTestRouter(t, svc, nil)

		body, sig := signedWebhook(t, payload)
		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", sig)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		assert.Equal(t, 1, svc.webhookCalls)
	})

	t.Run("invalid_signature_has_no_side_effects", func(t *testing.T) {
		svc := &fakeService{}
		router := newTestRouter(t, svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(string(payload)))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, svc.webhookCalls)
	})

	t.Run("duplicate_delivery_short_circuits", func(t *testing.T) {
		svc := &fakeService{}
		dedup := &fakeDeduper{first: false}
		router := newTestRouter(t, svc, dedup)

		body, sig := signedWebhook(t, payload)
		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", sig)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		assert.Zero(t, svc.webhookCalls)
		assert.Equal(t, []string{"evt_1"}, dedup.seen)
	})

	t.Run("first_delivery_passes_dedup", func(t *testing.T) {
		svc := &fakeService{}
		dedup := &fakeDeduper{first: true}
		router := newTestRouter(t, svc, dedup)

		body, sig := signedWebhook(t, payload)
		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", sig)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.webhookCalls)
	})

	t.Run("reconciliation_failure_is_500", func(t *testing.T) {
		svc := &fakeService{
			handleWebhookEventFunc: func(_ context.Context, _ *payment.Event) error {
				return errors.New("store unreachable")
			},
		}
		router := newTestRouter(t, svc, nil)

		body, sig := signedWebhook(t, payload)
		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", sig)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestTrackingHandler(t *testing.T) {
	svc := &fakeService{
		recordTrackingFunc: func(_ context.Context, orderID string, in order.TrackingInput, actor string) (*order.Order, error) {
			assert.Equal(t, "o1", orderID)
			assert.Equal(t, "9400100000000000000000", in.TrackingNumber)
			assert.Equal(t, order.StatusShipped, in.Status)
			return &order.Order{ID: orderID, Status: order.StatusShipped, TrackingNumber: in.TrackingNumber}, nil
		},
	}
	router := newTestRouter(t, svc, nil)

	body := `{"trackingNumber":"9400100000000000000000","trackingCarrier":"usps","status":"shipped"}`
	rec := doRequest(t, router, http.MethodPost, "/admin/orders/o1/tracking", bearerFor(t, "admin-1", auth.RoleAdmin), body)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, order.StatusShipped, got.Status)
}
