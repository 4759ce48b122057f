package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arnobt78/bookstore-backend/internal/shipping"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

func (s Status) String() string {
	return string(s)
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// allowedTransitions is the status DAG. refunded is deliberately unreachable
// here: it is only entered through the refund operation.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// CanTransition reports whether the status DAG allows from → to.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Item is one order line. Name and price are snapshots taken at checkout; a
// later product change never rewrites a historical order.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is the durable order record.
type Order struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	Items           []Item            `json:"items"`
	AmountPaid      decimal.Decimal   `json:"amountPaid"`
	Status          Status            `json:"status"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus"`
	TrackingNumber  string            `json:"trackingNumber,omitempty"`
	TrackingCarrier string            `json:"trackingCarrier,omitempty"`
	LabelURL        string            `json:"labelUrl,omitempty"`
	RefundID        string            `json:"refundId,omitempty"`
	RefundAmount    int64             `json:"refundAmount,omitempty"`
	RefundedAt      *time.Time        `json:"refundedAt,omitempty"`
	CustomerName    string            `json:"customerName,omitempty"`
	CustomerEmail   string            `json:"customerEmail,omitempty"`
	ShippingAddress *shipping.Address `json:"shippingAddress,omitempty"`
	// Placeholder marks an order created by webhook reconciliation to keep a
	// confirmed payment from being orphaned. It carries no items.
	Placeholder bool      `json:"placeholder,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is the stored user document; the coordinator only reads it to
// denormalize a customer snapshot onto placeholder orders.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
