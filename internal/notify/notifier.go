// Package notify dispatches transactional emails and activity-log entries.
// Both are best-effort: failures are logged and swallowed, never raised into
// the caller, and email delivery runs outside the request's critical path.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Template names. Bodies are rendered by the email provider; the core only
// ships a symbolic name and a context map.
const (
	TemplateOrderConfirmation   = "order-confirmation"
	TemplateOrderShipped        = "order-shipped"
	TemplateOrderDelivered      = "order-delivered"
	TemplateOrderCancelled      = "order-cancelled"
	TemplateOrderRefunded       = "order-refunded"
	TemplateAdminNewOrder       = "admin-new-order"
	TemplateAdminOutOfStock     = "admin-out-of-stock"
	TemplateAdminLowStock       = "admin-low-stock"
	TemplateAdminRefundDone     = "admin-refund-processed"
)

const (
	emailTimeout    = 5 * time.Second
	activityTimeout = 3 * time.Second
)

// Email is one transactional message.
type Email struct {
	To       string
	Template string
	Data     map[string]any
}

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// Activity is one activity-log entry.
type Activity struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// ActivityStore is the slice of the document store the notifier writes to.
type ActivityStore interface {
	Put(ctx context.Context, id string, entry Activity) error
}

// Notifier is the fire-and-forget dispatcher.
type Notifier struct {
	email      EmailSender
	activity   ActivityStore
	adminEmail string
	wg         sync.WaitGroup
}

// New builds a Notifier. A nil sender or store disables that channel; the
// dispatch methods stay safe to call either way.
func New(email EmailSender, activity ActivityStore, adminEmail string) *Notifier {
	return &Notifier{email: email, activity: activity, adminEmail: adminEmail}
}

// SendEmail dispatches one email in the background. It never blocks on or
// reports delivery.
func (n *Notifier) SendEmail(template, recipient string, data map[string]any) {
	if n.email == nil || recipient == "" {
		log.Debug().Str("template", template).Msg("notify: email channel disabled, skipping")
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()

		if err := n.email.Send(ctx, Email{To: recipient, Template: template, Data: data}); err != nil {
			log.Warn().Err(err).Str("template", template).Str("to", recipient).Msg("notify: email dispatch failed")
		}
	}()
}

// SendAdminEmail dispatches one email to the configured admin address.
func (n *Notifier) SendAdminEmail(template string, data map[string]any) {
	n.SendEmail(template, n.adminEmail, data)
}

// LogActivity records one activity entry. Failures are swallowed after
// logging.
func (n *Notifier) LogActivity(actor, action, entityType, entityID string, details map[string]any) {
	if n.activity == nil {
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		log.Warn().Err(err).Msg("notify: failed to generate activity id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), activityTimeout)
	defer cancel()

	entry := Activity{
		ID:         id.String(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if err := n.activity.Put(ctx, entry.ID, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("notify: activity log write failed")
	}
}

// Wait blocks until in-flight email dispatches finish. Called on shutdown.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
