package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is optional: a product without a stock
// attribute is untracked and treated as always available. InStock is derived
// from stock on every tracked mutation.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Stock             *int            `json:"stock,omitempty"`
	LowStockThreshold *int            `json:"lowStockThreshold,omitempty"`
	InStock           bool            `json:"inStock"`
	Featured          int             `json:"featured,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Tracked reports whether the product carries a stock counter.
func (p *Product) Tracked() bool {
	return p.Stock != nil
}

// StockUpdate is the transient result of one attempted stock mutation. The
// coordinator uses it to build rollback lists and to decide which alert
// emails to send; it is never persisted.
type StockUpdate struct {
	ProductID     string
	Requested     int
	OldStock      int
	NewStock      int
	Success       bool
	LowStockAlert bool
}
