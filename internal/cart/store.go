package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/vendorverse/internal/catalog"
	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

// MaxQuantity caps a single line.
const MaxQuantity = 999

// Change is published after every applied mutation.
type Change struct {
	Op     enums.CartOp
	Items  []LineItem
	Totals Totals
}

type Listener func(Change)

type Params struct {
	Slot   slot.Store
	Logger *logger.Logger
}

// Store holds the line items of one client's cart. It does not look at who is
// signed in; purchase eligibility is decided by callers.
type Store struct {
	slot slot.Store
	logg *logger.Logger

	mu    sync.Mutex
	items []LineItem

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// New builds a Store from the cart persisted in the slot. Absent or unreadable
// carts start empty.
func New(ctx context.Context, p Params) (*Store, error) {
	if p.Slot == nil {
		return nil, fmt.Errorf("slot store required")
	}
	s := &Store{
		slot:      p.Slot,
		logg:      p.Logger,
		items:     []LineItem{},
		listeners: make(map[int]Listener),
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}

	items, found, err := slot.Load[[]LineItem](ctx, s.slot, slot.KeyCurrentCart)
	switch {
	case pkgerrors.HasCode(err, pkgerrors.CodeMalformedState):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding malformed persisted cart")
	case err != nil:
		return nil, err
	case !found:
	case !validItems(items):
		s.logg.Warn(ctx, "discarding invalid persisted cart")
	default:
		s.items = items
	}
	return s, nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Totals is recomputed from the current items on every call.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.items)
}

// AddItem merges quantity into the existing line for the product or appends a
// new line priced at the product's current price.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if quantity > MaxQuantity {
		return quantityTooLarge(quantity)
	}
	if product.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.mutate(ctx, enums.CartOpAdd, func(items []LineItem) ([]LineItem, bool, error) {
		if idx := indexOf(items, product.ID); idx >= 0 {
			if items[idx].Quantity > MaxQuantity-quantity {
				return nil, false, quantityTooLarge(items[idx].Quantity + quantity)
			}
			items[idx].Quantity += quantity
			return items, true, nil
		}
		return append(items, LineItem{
			Product:   refFor(product),
			UnitPrice: product.Price,
			Quantity:  quantity,
		}), true, nil
	})
}

// RemoveItem drops the line for productID. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, enums.CartOpRemove, func(items []LineItem) ([]LineItem, bool, error) {
		next, changed := remove(items, productID)
		return next, changed, nil
	})
}

// UpdateQuantity overwrites the quantity of an existing line. A quantity of zero
// or less removes the line; unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	if quantity > MaxQuantity {
		return quantityTooLarge(quantity)
	}
	return s.mutate(ctx, enums.CartOpUpdate, func(items []LineItem) ([]LineItem, bool, error) {
		idx := indexOf(items, productID)
		if idx < 0 || items[idx].Quantity == quantity {
			return items, false, nil
		}
		items[idx].Quantity = quantity
		return items, true, nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, enums.CartOpClear, func(items []LineItem) ([]LineItem, bool, error) {
		return []LineItem{}, len(items) > 0, nil
	})
}

func quantityTooLarge(quantity int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidQuantity, fmt.Sprintf("quantity cannot exceed %d", MaxQuantity)).
		WithDetails(map[string]any{"quantity": quantity, "max": MaxQuantity})
}

// mutate applies fn to a copy of the items, persists the result and only then
// swaps it in. fn reports whether anything changed; an error leaves the cart
// untouched.
func (s *Store) mutate(ctx context.Context, op enums.CartOp, fn func([]LineItem) ([]LineItem, bool, error)) error {
	s.mu.Lock()
	next, changed, err := fn(cloneItems(s.items))
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}
	if err := slot.Save(ctx, s.slot, slot.KeyCurrentCart, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	change := Change{Op: op, Items: cloneItems(next), Totals: ComputeTotals(next)}
	s.mu.Unlock()

	s.notify(change)
	return nil
}

func indexOf(items []LineItem, productID string) int {
	for i := range items {
		if items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func remove(items []LineItem, productID string) ([]LineItem, bool) {
	idx := indexOf(items, productID)
	if idx < 0 {
		return items, false
	}
	return append(items[:idx], items[idx+1:]...), true
}

// Subscribe registers fn for future changes and returns a cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) notify(change Change) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}
