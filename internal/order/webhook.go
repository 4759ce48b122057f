package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/arnobt78/bookstore-backend/internal/payment"
	"github.com/arnobt78/bookstore-backend/internal/store"
)

// HandleWebhookEvent reconciles a verified provider event against the order
// records. It is idempotent: redelivery of an already-reconciled event is a
// no-op.
func (c *Coordinator) HandleWebhookEvent(ctx context.Context, ev *payment.Event) error {
	switch ev.Type {
	case "payment_intent.succeeded":
		var intent payment.Intent
		if err := json.Unmarshal(ev.Data.Object, &intent); err != nil {
			return fmt.Errorf("failed to decode intent from webhook event %s: %w", ev.ID, err)
		}
		return c.reconcileSucceededIntent(ctx, &intent)

	case "payment_intent.payment_failed", "payment_intent.canceled":
		// No order exists yet for a failed payment; nothing to change.
		log.Info().Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("coordinator: payment did not complete")
		return nil

	default:
		log.Debug().Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("coordinator: ignoring webhook event type")
		return nil
	}
}

// reconcileSucceededIntent makes sure a confirmed payment is never orphaned.
// The browser path that created the order normally is the source of truth for
// item detail; the webhook only backstops it with a placeholder.
func (c *Coordinator) reconcileSucceededIntent(ctx context.Context, intent *payment.Intent) error {
	userID := intent.Metadata["userId"]
	if userID == "" {
		log.Warn().Str("intent_id", intent.ID).Msg("coordinator: succeeded intent carries no userId metadata, cannot reconcile")
		return nil
	}

	existing, err := c.orders.QueryByIndex(ctx, "userId", userID)
	if err != nil {
		return fmt.Errorf("failed to look up orders for user %s: %w", userID, err)
	}
	for i := range existing {
		if existing[i].PaymentIntentID == intent.ID {
			// The browser path already created the order.
			return nil
		}
	}

	orderID, err := newID()
	if err != nil {
		return err
	}

	var name, email string
	if c.users != nil {
		if u, err := c.users.Get(ctx, userID); err == nil {
			name, email = u.Name, u.Email
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("coordinator: failed to load user for placeholder order")
		}
	}

	now := time.Now().UTC()
	placeholder := Order{
		ID:              orderID,
		UserID:          userID,
		Items:           []Item{},
		AmountPaid:      decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)),
		Status:          StatusPending,
		PaymentIntentID: intent.ID,
		PaymentStatus:   PaymentPaid,
		CustomerName:    name,
		CustomerEmail:   email,
		Placeholder:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.orders.Insert(ctx, orderID, placeholder); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to write placeholder order for intent %s: %w", intent.ID, err)
	}

	log.Info().
		Str("order_id", orderID).
		Str("intent_id", intent.ID).
		Str("user_id", userID).
		Msg("coordinator: created placeholder order for unmatched payment")
	c.notifier.LogActivity("webhook", "order.placeholder_created", "order", orderID, map[string]any{
		"paymentIntentId": intent.ID,
		"amountMinor":     intent.Amount,
	})
	return nil
}
