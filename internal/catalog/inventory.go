package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arnobt78/bookstore-backend/internal/store"
)

// maxStockRetries bounds the optimistic-concurrency retry loop. A product
// contended beyond this fails instead of blocking.
const maxStockRetries = 3

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockContended    = errors.New("stock update contended")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// ProductStore is the slice of the document store the inventory service needs.
type ProductStore interface {
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, id string, set map[string]any, precond map[string]any) (*Product, error)
}

// Inventory mutates per-product stock counters with optimistic concurrency.
type Inventory struct {
	products ProductStore
}

func NewInventory(products ProductStore) *Inventory {
	return &Inventory{products: products}
}

// Decrement takes qty units off the product's stock. Untracked products are
// a successful no-op. The write is conditional on the stock value observed at
// read time; losing that race retries from a fresh read up to maxStockRetries
// times before failing with ErrStockContended.
func (inv *Inventory) Decrement(ctx context.Context, productID string, qty int) (*Product, StockUpdate, error) {
	upd := StockUpdate{ProductID: productID, Requested: -qty}
	if qty < 1 {
		return nil, upd, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}

	for attempt := 0; attempt < maxStockRetries; attempt++ {
		p, err := inv.products.Get(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, upd, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if err != nil {
			return nil, upd, fmt.Errorf("inventory: failed to read product %s: %w", productID, err)
		}
		if !p.Tracked() {
			upd.Success = true
			return p, upd, nil
		}

		s0 := *p.Stock
		if s0 < qty {
			upd.OldStock, upd.NewStock = s0, s0
			return nil, upd, fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, productID, s0, qty)
		}
		s1 := s0 - qty

		post, err := inv.products.Update(ctx, productID,
			map[string]any{"stock": s1, "inStock": s1 > 0, "updatedAt": time.Now().UTC()},
			map[string]any{"stock": s0},
		)
		if errors.Is(err, store.ErrConditionFailed) {
			log.Debug().Str("product_id", productID).Int("attempt", attempt+1).Msg("inventory: decrement lost the stock precondition, retrying")
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, upd, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if err != nil {
			return nil, upd, fmt.Errorf("inventory: failed to decrement product %s: %w", productID, err)
		}

		upd.OldStock, upd.NewStock, upd.Success = s0, s1, true
		upd.LowStockAlert = crossedThreshold(p.LowStockThreshold, s0, s1)
		return post, upd, nil
	}

	return nil, upd, fmt.Errorf("%w: product %s", ErrStockContended, productID)
}

// Increment puts qty units back on the product's stock. Untracked products
// are a successful no-op. The product must still exist, so a restore can
// never resurrect a deleted product. Addition is order-independent, but the
// merge write still carries the observed-stock precondition so two concurrent
// restores cannot overwrite each other; the loser re-reads and retries.
func (inv *Inventory) Increment(ctx context.Context, productID string, qty int) (*Product, StockUpdate, error) {
	upd := StockUpdate{ProductID: productID, Requested: qty}
	if qty < 1 {
		return nil, upd, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}

	for attempt := 0; attempt < maxStockRetries; attempt++ {
		p, err := inv.products.Get(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, upd, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if err != nil {
			return nil, upd, fmt.Errorf("inventory: failed to read product %s: %w", productID, err)
		}
		if !p.Tracked() {
			upd.Success = true
			return p, upd, nil
		}

		s0 := *p.Stock
		s1 := s0 + qty

		post, err := inv.products.Update(ctx, productID,
			map[string]any{"stock": s1, "inStock": s1 > 0, "updatedAt": time.Now().UTC()},
			map[string]any{"stock": s0},
		)
		if errors.Is(err, store.ErrConditionFailed) {
			log.Debug().Str("product_id", productID).Int("attempt", attempt+1).Msg("inventory: increment lost the stock precondition, retrying")
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, upd, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if err != nil {
			return nil, upd, fmt.Errorf("inventory: failed to increment product %s: %w", productID, err)
		}

		upd.OldStock, upd.NewStock, upd.Success = s0, s1, true
		return post, upd, nil
	}

	return nil, upd, fmt.Errorf("%w: product %s", ErrStockContended, productID)
}

// crossedThreshold fires only on the downward crossing: the new value is
// strictly below the threshold and the old value was not. Landing exactly on
// the threshold does not fire.
func crossedThreshold(threshold *int, oldStock, newStock int) bool {
	return threshold != nil && newStock < *threshold && oldStock >= *threshold
}
