// Package order owns the order lifecycle and the cross-entity consistency
// between order records, stock counters, and provider charges. There is no
// distributed transaction underneath: every multi-step operation compensates
// its completed steps when a later one fails.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/arnobt78/bookstore-backend/internal/catalog"
	"github.com/arnobt78/bookstore-backend/internal/notify"
	"github.com/arnobt78/bookstore-backend/internal/payment"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
	"github.com/arnobt78/bookstore-backend/internal/store"
)

// minIntentAmountMinor is the provider's floor for a payment intent.
const minIntentAmountMinor = 50

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("order item quantity must be at least 1")
	ErrAmountMismatch    = errors.New("amount paid does not match the order items")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrConflict          = errors.New("order was modified concurrently")
	ErrAlreadyRefunded   = errors.New("order is already refunded")
	ErrNoPaymentIntent   = errors.New("order has no payment intent")
	ErrRefundExceedsPaid = errors.New("refund amount exceeds the amount paid")
	ErrAmountTooSmall    = errors.New("amount must be at least 50 minor units")
	ErrNotIntentOwner    = errors.New("payment intent belongs to another user")
)

// OrderStore is the slice of the document store the coordinator uses for
// orders.
type OrderStore interface {
	Get(ctx context.Context, id string) (*Order, error)
	Insert(ctx context.Context, id string, o Order) error
	Update(ctx context.Context, id string, set map[string]any, precond map[string]any) (*Order, error)
	QueryByIndex(ctx context.Context, attr, value string) ([]Order, error)
	Scan(ctx context.Context, filter map[string]any) ([]Order, error)
}

// UserStore reads stored user documents.
type UserStore interface {
	Get(ctx context.Context, id string) (*User, error)
}

// InventoryService mutates stock counters.
type InventoryService interface {
	Decrement(ctx context.Context, productID string, qty int) (*catalog.Product, catalog.StockUpdate, error)
	Increment(ctx context.Context, productID string, qty int) (*catalog.Product, catalog.StockUpdate, error)
}

// PaymentGateway is the payment-provider adapter surface.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*payment.Intent, error)
	GetIntent(ctx context.Context, id string) (*payment.Intent, error)
	CreateRefund(ctx context.Context, p payment.RefundParams) (*payment.Refund, error)
}

// LabelPurchaser is the shipping-provider adapter surface.
type LabelPurchaser interface {
	PurchaseLabel(ctx context.Context, req shipping.LabelRequest) (*shipping.Label, error)
}

// Notifier dispatches best-effort side effects. Implementations never return
// failure.
type Notifier interface {
	SendEmail(template, recipient string, data map[string]any)
	SendAdminEmail(template string, data map[string]any)
	LogActivity(actor, action, entityType, entityID string, details map[string]any)
}

// Coordinator orchestrates order creation, lifecycle transitions,
// cancellation, refunds, label generation, and webhook reconciliation.
type Coordinator struct {
	orders    OrderStore
	users     UserStore
	inventory InventoryService
	gateway   PaymentGateway
	shipper   LabelPurchaser
	notifier  Notifier
}

// NewCoordinator wires the coordinator. gateway and shipper may be nil when
// the matching provider secret is absent; the dependent operations then fail
// with the adapter's unavailable error.
func NewCoordinator(orders OrderStore, users UserStore, inventory InventoryService, gateway PaymentGateway, shipper LabelPurchaser, notifier Notifier) *Coordinator {
	return &Coordinator{
		orders:    orders,
		users:     users,
		inventory: inventory,
		gateway:   gateway,
		shipper:   shipper,
		notifier:  notifier,
	}
}

// Customer identifies the purchasing user, snapshotted from the
// authenticated claims.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// CartLine is one requested line of a checkout.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderInput carries everything CreateOrder needs.
type CreateOrderInput struct {
	Customer        Customer
	Lines           []CartLine
	AmountPaid      decimal.Decimal
	PaymentIntentID string
	PaymentStatus   PaymentStatus
	ShippingAddress *shipping.Address
}

// RestoreFailure records one compensation attempt that did not succeed. It
// is returned for human reconciliation, never silently dropped.
type RestoreFailure struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// CreateOrderResult separates the durable order from the transient
// diagnostics of its stock mutations.
type CreateOrderResult struct {
	Order          *Order
	StockUpdates   []catalog.StockUpdate
	LowStockAlerts []catalog.StockUpdate
}

// CreateOrder decrements stock line by line, writes the order, and dispatches
// confirmation emails. Any decrement or the order write failing rolls back
// every decrement already applied, in reverse order.
func (c *Coordinator) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range in.Lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("%w: missing product id", ErrEmptyCart)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %s requested %d", ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
	}

	orderID, err := newID()
	if err != nil {
		return nil, err
	}

	var (
		items   []Item
		updates []catalog.StockUpdate
		applied []CartLine
	)
	for _, line := range in.Lines {
		product, upd, err := c.inventory.Decrement(ctx, line.ProductID, line.Quantity)
		if err != nil {
			c.rollbackDecrements(ctx, applied)
			return nil, err
		}
		updates = append(updates, upd)
		applied = append(applied, line)
		items = append(items, Item{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	// Tolerate one minor unit of rounding between the client total and the
	// snapshot prices.
	if total.Sub(in.AmountPaid).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		c.rollbackDecrements(ctx, applied)
		return nil, fmt.Errorf("%w: items total %s, paid %s", ErrAmountMismatch, total.StringFixed(2), in.AmountPaid.StringFixed(2))
	}

	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentUnpaid
	}

	now := time.Now().UTC()
	ord := Order{
		ID:              orderID,
		UserID:          in.Customer.ID,
		Items:           items,
		AmountPaid:      in.AmountPaid,
		Status:          StatusPending,
		PaymentIntentID: in.PaymentIntentID,
		PaymentStatus:   paymentStatus,
		CustomerName:    in.Customer.Name,
		CustomerEmail:   in.Customer.Email,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.orders.Insert(ctx, orderID, ord); err != nil {
		c.rollbackDecrements(ctx, applied)
		return nil, fmt.Errorf("failed to write order %s: %w", orderID, err)
	}

	res := &CreateOrderResult{Order: &ord, StockUpdates: updates}
	for _, upd := range updates {
		if upd.LowStockAlert {
			res.LowStockAlerts = append(res.LowStockAlerts, upd)
		}
	}

	c.dispatchOrderCreated(&ord, res)
	return res, nil
}

// rollbackDecrements compensates already-applied decrements in reverse order.
// Each attempt is independent: one failing does not stop the rest, and no
// failure replaces the error that triggered the rollback.
func (c *Coordinator) rollbackDecrements(ctx context.Context, applied []CartLine) []RestoreFailure {
	var failures []RestoreFailure
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		if _, _, err := c.inventory.Increment(ctx, line.ProductID, line.Quantity); err != nil {
			log.Error().Err(err).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("coordinator: stock rollback failed, manual reconciliation required")
			failures = append(failures, RestoreFailure{ProductID: line.ProductID, Quantity: line.Quantity, Reason: err.Error()})
		}
	}
	return failures
}

func (c *Coordinator) dispatchOrderCreated(ord *Order, res *CreateOrderResult) {
	data := map[string]any{
		"orderId":      ord.ID,
		"customerName": ord.CustomerName,
		"amountPaid":   ord.AmountPaid.StringFixed(2),
		"itemCount":    len(ord.Items),
	}
	c.notifier.SendEmail(notify.TemplateOrderConfirmation, ord.CustomerEmail, data)
	c.notifier.SendAdminEmail(notify.TemplateAdminNewOrder, data)

	for _, upd := range res.StockUpdates {
		if upd.Success && upd.Requested < 0 && upd.NewStock == 0 && upd.OldStock > 0 {
			c.notifier.SendAdminEmail(notify.TemplateAdminOutOfStock, map[string]any{
				"productId": upd.ProductID,
				"orderId":   ord.ID,
			})
		}
	}
	for _, upd := range res.LowStockAlerts {
		c.notifier.SendAdminEmail(notify.TemplateAdminLowStock, map[string]any{
			"productId": upd.ProductID,
			"newStock":  upd.NewStock,
			"orderId":   ord.ID,
		})
	}

	c.notifier.LogActivity(ord.UserID, "order.created", "order", ord.ID, map[string]any{
		"amountPaid": ord.AmountPaid.StringFixed(2),
		"items":      len(ord.Items),
	})
}

// StatusUpdateResult carries the updated order plus any stock restorations
// that failed during a cancellation.
type StatusUpdateResult struct {
	Order           *Order
	RestoreFailures []RestoreFailure
}

// UpdateStatus moves the order along the status DAG. Entering cancelled
// restores the stock of every line item; repeating a cancellation is a no-op
// and never restores twice. Restoration failures do not fail the update.
func (c *Coordinator) UpdateStatus(ctx context.Context, orderID string, next Status, actor string) (*StatusUpdateResult, error) {
	if !ValidStatus(next) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if next == StatusRefunded {
		return nil, fmt.Errorf("%w: refunded is only entered through the refund operation", ErrInvalidTransition)
	}

	ord, err := c.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.Status == next {
		// Idempotent repeat; in particular cancelled → cancelled must not
		// restore stock again.
		return &StatusUpdateResult{Order: ord}, nil
	}
	if !CanTransition(ord.Status, next) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, ord.Status, next)
	}

	prev := ord.Status
	post, err := c.orders.Update(ctx, orderID,
		map[string]any{"status": next, "updatedAt": time.Now().UTC()},
		map[string]any{"status": string(prev)},
	)
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, fmt.Errorf("%w: status changed from %s while updating", ErrConflict, prev)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update status of order %s: %w", orderID, err)
	}

	res := &StatusUpdateResult{Order: post}
	if next == StatusCancelled {
		res.RestoreFailures = c.restoreStock(ctx, post.Items)
	}

	c.notifier.LogActivity(actor, "order.status_changed", "order", orderID, map[string]any{
		"from": string(prev),
		"to":   string(next),
	})
	c.dispatchStatusEmail(post, next)
	return res, nil
}

// restoreStock puts every line item's quantity back. Failures are collected
// for the response and logged for reconciliation.
func (c *Coordinator) restoreStock(ctx context.Context, items []Item) []RestoreFailure {
	var failures []RestoreFailure
	for _, it := range items {
		if _, _, err := c.inventory.Increment(ctx, it.ProductID, it.Quantity); err != nil {
			log.Error().Err(err).
				Str("product_id", it.ProductID).
				Int("quantity", it.Quantity).
				Msg("coordinator: stock restore failed, manual reconciliation required")
			failures = append(failures, RestoreFailure{ProductID: it.ProductID, Quantity: it.Quantity, Reason: err.Error()})
		}
	}
	return failures
}

// takeBackRestore reverses a restoration whose order write lost its
// precondition, decrementing each line back in reverse order. The concurrent
// winner owns the surviving restore.
func (c *Coordinator) takeBackRestore(ctx context.Context, items []Item) {
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if _, _, err := c.inventory.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
			log.Error().Err(err).
				Str("product_id", it.ProductID).
				Int("quantity", it.Quantity).
				Msg("coordinator: failed to take back a stock restore, manual reconciliation required")
		}
	}
}

func (c *Coordinator) dispatchStatusEmail(ord *Order, next Status) {
	data := map[string]any{
		"orderId":        ord.ID,
		"customerName":   ord.CustomerName,
		"trackingNumber": ord.TrackingNumber,
	}
	switch next {
	case StatusShipped:
		c.notifier.SendEmail(notify.TemplateOrderShipped, ord.CustomerEmail, data)
	case StatusDelivered:
		c.notifier.SendEmail(notify.TemplateOrderDelivered, ord.CustomerEmail, data)
	case StatusCancelled:
		c.notifier.SendEmail(notify.TemplateOrderCancelled, ord.CustomerEmail, data)
	}
}

// TrackingInput is a partial tracking update; only set fields are written.
type TrackingInput struct {
	TrackingNumber  string `json:"trackingNumber"`
	TrackingCarrier string `json:"trackingCarrier,omitempty"`
	LabelURL        string `json:"labelUrl,omitempty"`
	Status          Status `json:"status,omitempty"`
}

// RecordTracking writes tracking fields onto the order. Supplying
// status=shipped moves the order to shipped under the same DAG rules as
// UpdateStatus; the shipped transition itself never touches stock.
func (c *Coordinator) RecordTracking(ctx context.Context, orderID string, in TrackingInput, actor string) (*Order, error) {
	if in.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number is required", ErrInvalidStatus)
	}
	if in.Status != "" && in.Status != StatusShipped {
		return nil, fmt.Errorf("%w: tracking updates may only set shipped, got %q", ErrInvalidStatus, in.Status)
	}

	ord, err := c.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	set := map[string]any{
		"trackingNumber": in.TrackingNumber,
		"updatedAt":      time.Now().UTC(),
	}
	if in.TrackingCarrier != "" {
		set["trackingCarrier"] = in.TrackingCarrier
	}
	if in.LabelURL != "" {
		set["labelUrl"] = in.LabelURL
	}

	becameShipped := false
	if in.Status == StatusShipped && ord.Status != StatusShipped {
		if !CanTransition(ord.Status, StatusShipped) {
			return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, ord.Status, StatusShipped)
		}
		set["status"] = StatusShipped
		becameShipped = true
	}

	post, err := c.orders.Update(ctx, orderID, set, map[string]any{"status": string(ord.Status)})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, fmt.Errorf("%w: status changed from %s while recording tracking", ErrConflict, ord.Status)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record tracking on order %s: %w", orderID, err)
	}

	c.notifier.LogActivity(actor, "order.tracking_recorded", "order", orderID, map[string]any{
		"trackingNumber": in.TrackingNumber,
		"carrier":        in.TrackingCarrier,
	})
	if becameShipped {
		c.dispatchStatusEmail(post, StatusShipped)
	}
	return post, nil
}

// GenerateLabel buys a shipping label for the order and records the returned
// tracking info, moving the order to shipped.
func (c *Coordinator) GenerateLabel(ctx context.Context, orderID string, opts shipping.Options, actor string) (*Order, *shipping.Label, error) {
	if c.shipper == nil {
		return nil, nil, shipping.ErrUnavailable
	}

	ord, err := c.getOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	var recipient shipping.Address
	if ord.ShippingAddress != nil {
		recipient = *ord.ShippingAddress
	}
	if recipient.Name == "" {
		recipient.Name = ord.CustomerName
	}
	if recipient.Email == "" {
		recipient.Email = ord.CustomerEmail
	}

	units := 0
	for _, it := range ord.Items {
		units += it.Quantity
	}

	label, err := c.shipper.PurchaseLabel(ctx, shipping.LabelRequest{
		OrderID:   orderID,
		Recipient: recipient,
		Units:     units,
		Options:   opts,
	})
	if err != nil {
		return nil, nil, err
	}

	post, err := c.RecordTracking(ctx, orderID, TrackingInput{
		TrackingNumber:  label.TrackingNumber,
		TrackingCarrier: label.Carrier,
		LabelURL:        label.LabelURL,
		Status:          StatusShipped,
	}, actor)
	if err != nil {
		// The label is bought but not recorded; surface both facts.
		log.Error().Err(err).
			Str("order_id", orderID).
			Str("tracking_number", label.TrackingNumber).
			Msg("coordinator: label purchased but tracking update failed, manual reconciliation required")
		return nil, label, err
	}

	c.notifier.LogActivity(actor, "order.label_generated", "order", orderID, map[string]any{
		"trackingNumber": label.TrackingNumber,
		"carrier":        label.Carrier,
		"transactionId":  label.TransactionID,
	})
	return post, label, nil
}

// RefundInput carries one refund request. A nil AmountMinor refunds the full
// charge.
type RefundInput struct {
	AmountMinor *int64
	Reason      string
	Actor       string
}

// RefundResult separates the updated order from the provider refund and the
// compensation diagnostics.
type RefundResult struct {
	Order           *Order
	Refund          *payment.Refund
	RestoreFailures []RestoreFailure
}

// RefundOrder refunds the provider charge and marks the order refunded.
// Stock is restored only when the order was not already cancelled: a
// cancellation has restored it before, and refunding a cancelled order must
// not restore twice. The final write is preconditioned on the status and
// payment status observed at read time; a mutation committed while the
// provider call was in flight takes the restoration back and returns
// ErrConflict with the refund id.
func (c *Coordinator) RefundOrder(ctx context.Context, orderID string, in RefundInput) (*RefundResult, error) {
	if c.gateway == nil {
		return nil, payment.ErrUnavailable
	}

	ord, err := c.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.PaymentStatus == PaymentRefunded {
		return nil, ErrAlreadyRefunded
	}
	if ord.PaymentIntentID == "" {
		return nil, ErrNoPaymentIntent
	}

	paidMinor := ord.AmountPaid.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if in.AmountMinor != nil && *in.AmountMinor > paidMinor {
		return nil, fmt.Errorf("%w: requested %d, paid %d", ErrRefundExceedsPaid, *in.AmountMinor, paidMinor)
	}

	prev := ord.Status

	intent, err := c.gateway.GetIntent(ctx, ord.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment intent %s: %w", ord.PaymentIntentID, err)
	}
	params := payment.RefundParams{
		ChargeID:    intent.LatestCharge,
		AmountMinor: in.AmountMinor,
		Reason:      in.Reason,
	}
	if params.ChargeID == "" {
		params.PaymentIntentID = ord.PaymentIntentID
	}

	ref, err := c.gateway.CreateRefund(ctx, params)
	if err != nil {
		// Nothing has changed yet; the order stays untouched.
		return nil, fmt.Errorf("refund failed for order %s: %w", orderID, err)
	}

	res := &RefundResult{Refund: ref}
	if prev != StatusCancelled {
		res.RestoreFailures = c.restoreStock(ctx, ord.Items)
	}

	now := time.Now().UTC()
	post, err := c.orders.Update(ctx, orderID, map[string]any{
		"status":        StatusRefunded,
		"paymentStatus": PaymentRefunded,
		"refundId":      ref.ID,
		"refundAmount":  ref.Amount,
		"refundedAt":    now,
		"updatedAt":     now,
	}, map[string]any{
		"status":        string(prev),
		"paymentStatus": string(ord.PaymentStatus),
	})
	if errors.Is(err, store.ErrConditionFailed) {
		// The order moved while the provider refund was in flight, typically
		// a concurrent cancellation that restored the stock on its own. Take
		// back the restoration applied above so the two paths do not stack.
		if prev != StatusCancelled {
			c.takeBackRestore(ctx, ord.Items)
		}
		log.Error().
			Str("order_id", orderID).
			Str("refund_id", ref.ID).
			Str("observed_status", string(prev)).
			Msg("coordinator: order changed while refunding, refund exists at the provider only, manual reconciliation required")
		return nil, fmt.Errorf("%w: order %s changed while refunding, refund %s needs reconciliation", ErrConflict, orderID, ref.ID)
	}
	if err != nil {
		// The provider refund is terminal; retrying the write automatically
		// cannot be made safe, so escalate instead.
		log.Error().Err(err).
			Str("order_id", orderID).
			Str("refund_id", ref.ID).
			Int64("refund_amount", ref.Amount).
			Msg("coordinator: refund succeeded at the provider but the order write failed, manual reconciliation required")
		return nil, fmt.Errorf("order %s refunded as %s but not recorded: %w", orderID, ref.ID, err)
	}
	res.Order = post

	c.notifier.LogActivity(in.Actor, "order.refunded", "order", orderID, map[string]any{
		"refundId":     ref.ID,
		"refundAmount": ref.Amount,
		"reason":       in.Reason,
	})
	data := map[string]any{
		"orderId":      orderID,
		"customerName": post.CustomerName,
		"refundAmount": decimal.NewFromInt(ref.Amount).Div(decimal.NewFromInt(100)).StringFixed(2),
	}
	c.notifier.SendEmail(notify.TemplateOrderRefunded, post.CustomerEmail, data)
	c.notifier.SendAdminEmail(notify.TemplateAdminRefundDone, data)
	return res, nil
}

// CreatePaymentIntent creates a provider intent for the authenticated user.
// No order exists yet.
func (c *Coordinator) CreatePaymentIntent(ctx context.Context, customer Customer, amountMinor int64, currency string) (*payment.Intent, error) {
	if c.gateway == nil {
		return nil, payment.ErrUnavailable
	}
	if amountMinor < minIntentAmountMinor {
		return nil, fmt.Errorf("%w: got %d", ErrAmountTooSmall, amountMinor)
	}
	if currency == "" {
		currency = "usd"
	}

	intent, err := c.gateway.CreateIntent(ctx, amountMinor, currency, map[string]string{
		"userId": customer.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent, nil
}

// VerifyPaymentIntent returns the intent's current state to its owner only.
func (c *Coordinator) VerifyPaymentIntent(ctx context.Context, callerID, intentID string) (*payment.Intent, error) {
	if c.gateway == nil {
		return nil, payment.ErrUnavailable
	}

	intent, err := c.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment intent %s: %w", intentID, err)
	}
	if intent.Metadata["userId"] != callerID {
		return nil, ErrNotIntentOwner
	}
	return intent, nil
}

// GetOrder returns one order.
func (c *Coordinator) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return c.getOrder(ctx, orderID)
}

// ListUserOrders returns the user's orders, newest first.
func (c *Coordinator) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	orders, err := c.orders.QueryByIndex(ctx, "userId", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first.
func (c *Coordinator) ListAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := c.orders.Scan(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (c *Coordinator) getOrder(ctx context.Context, orderID string) (*Order, error) {
	ord, err := c.orders.Get(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return ord, nil
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate order id: %w", err)
	}
	return id.String(), nil
}
