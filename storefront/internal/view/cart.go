package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

type CartRow struct {
	model.CartItem
	Selected bool `json:"selected"`
	Pending  bool `json:"pending"`
}

type CartState struct {
	Items         []CartRow `json:"items"`
	SelectedCount int       `json:"selectedCount"`
	AllSelected   bool      `json:"allSelected"`
	Total         int64     `json:"total"`
}

// Cart holds the local cart rows with selection and optimistic quantities.
type Cart struct {
	mu       sync.Mutex
	items    []model.CartItem
	selected map[int64]bool
	pending  map[int64]bool
	// versions of local quantity changes per item
	versions map[int64]uint64

	log      *zap.Logger
	src      CartSource
	checkout *Checkout
}

func NewCart(log *zap.Logger, src CartSource, checkout *Checkout) *Cart {
	return &Cart{
		selected: make(map[int64]bool),
		pending:  make(map[int64]bool),
		versions: make(map[int64]uint64),
		log:      log,
		src:      src,
		checkout: checkout,
	}
}

// Load replaces the rows with the server cart. Selection survives for
// items that are still present.
func (c *Cart) Load(ctx context.Context) (CartState, error) {
	items, err := c.src.Get(ctx)
	if err != nil {
		return c.State(), err
	}
	c.replace(items)
	return c.State(), nil
}

// Refresh is Load ignoring cache freshness.
func (c *Cart) Refresh(ctx context.Context) (CartState, error) {
	items, err := c.src.Refetch(ctx)
	if err != nil {
		return c.State(), err
	}
	c.replace(items)
	return c.State(), nil
}

func (c *Cart) replace(items []model.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	present := make(map[int64]bool, len(items))
	for _, it := range items {
		present[it.ItemID] = true
	}
	for id := range c.selected {
		if !present[id] {
			delete(c.selected, id)
		}
	}
	// keep the local quantity of items with a change still in flight
	next := make([]model.CartItem, len(items))
	copy(next, items)
	for i, it := range next {
		if !c.pending[it.ItemID] {
			continue
		}
		if cur, ok := c.find(it.ItemID); ok {
			next[i].Quantity = cur.Quantity
		}
	}
	c.items = next
}

// ChangeQuantity adds delta to the item quantity.
func (c *Cart) ChangeQuantity(ctx context.Context, itemID, delta int64) (CartState, error) {
	c.mu.Lock()
	it, ok := c.find(itemID)
	c.mu.Unlock()
	if !ok {
		return c.State(), errs.ErrNotFound
	}
	return c.SetQuantity(ctx, itemID, it.Quantity+delta)
}

// SetQuantity applies the new quantity locally, never below 1, and sends
// it. On failure the previous value comes back unless a newer local
// change has replaced it in the meantime.
func (c *Cart) SetQuantity(ctx context.Context, itemID, quantity int64) (CartState, error) {
	if quantity < 1 {
		quantity = 1
	}
	c.mu.Lock()
	idx := c.index(itemID)
	if idx < 0 {
		c.mu.Unlock()
		return c.State(), errs.ErrNotFound
	}
	prev := c.items[idx].Quantity
	if prev == quantity {
		c.mu.Unlock()
		return c.State(), nil
	}
	c.items[idx].Quantity = quantity
	c.versions[itemID]++
	version := c.versions[itemID]
	c.pending[itemID] = true
	c.mu.Unlock()

	err := c.src.UpdateQuantity(ctx, itemID, quantity)

	c.mu.Lock()
	latest := c.versions[itemID] == version
	if latest {
		delete(c.pending, itemID)
		if err != nil {
			if i := c.index(itemID); i >= 0 {
				c.items[i].Quantity = prev
			}
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("cart quantity rolled back",
			zap.Int64("itemId", itemID), zap.Bool("superseded", !latest), zap.Error(err))
		return c.State(), err
	}
	return c.State(), nil
}

func (c *Cart) ToggleSelect(itemID int64) CartState {
	c.mu.Lock()
	if c.index(itemID) >= 0 {
		if c.selected[itemID] {
			delete(c.selected, itemID)
		} else {
			c.selected[itemID] = true
		}
	}
	c.mu.Unlock()
	return c.State()
}

// ToggleSelectAll selects every row unless all are already selected, in
// which case it clears the selection.
func (c *Cart) ToggleSelectAll() CartState {
	c.mu.Lock()
	if c.allSelected() {
		c.selected = make(map[int64]bool)
	} else {
		for _, it := range c.items {
			c.selected[it.ItemID] = true
		}
	}
	c.mu.Unlock()
	return c.State()
}

func (c *Cart) AllSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allSelected()
}

// Selected returns the selected rows in cart order.
func (c *Cart) Selected() []model.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedItems()
}

// Total is the sum of the selected subtotals.
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.selectedItems())
}

// RemoveSelected deletes the selected items one request at a time and
// refetches the cart once at the end. Items that were removed stay
// removed locally even when others fail.
func (c *Cart) RemoveSelected(ctx context.Context) (CartState, error) {
	sel := c.Selected()
	if len(sel) == 0 {
		return c.State(), errs.ErrNoSelection
	}
	var failures []error
	for _, it := range sel {
		if err := c.src.Remove(ctx, it.ItemID, false); err != nil {
			failures = append(failures, fmt.Errorf("item %d: %w", it.ItemID, err))
			continue
		}
		c.drop(it.ItemID)
	}
	c.src.InvalidateCart()
	return c.State(), errors.Join(failures...)
}

// Checkout orders the selected items.
func (c *Cart) Checkout(ctx context.Context) (model.Order, error) {
	order, err := c.checkout.Cart(ctx, c.Selected())
	if err != nil {
		return order, err
	}
	if _, err := c.Refresh(ctx); err != nil {
		c.log.Warn("cart refresh after checkout", zap.Error(err))
	}
	return order, nil
}

func (c *Cart) State() CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]CartRow, 0, len(c.items))
	for _, it := range c.items {
		rows = append(rows, CartRow{
			CartItem: it,
			Selected: c.selected[it.ItemID],
			Pending:  c.pending[it.ItemID],
		})
	}
	sel := c.selectedItems()
	return CartState{
		Items:         rows,
		SelectedCount: len(sel),
		AllSelected:   c.allSelected(),
		Total:         total(sel),
	}
}

func (c *Cart) drop(itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(itemID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	delete(c.selected, itemID)
	delete(c.pending, itemID)
}

func (c *Cart) allSelected() bool {
	return len(c.items) > 0 && len(c.selectedItems()) == len(c.items)
}

func (c *Cart) selectedItems() []model.CartItem {
	out := make([]model.CartItem, 0, len(c.selected))
	for _, it := range c.items {
		if c.selected[it.ItemID] {
			out = append(out, it)
		}
	}
	return out
}

func (c *Cart) index(itemID int64) int {
	for i, it := range c.items {
		if it.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) find(itemID int64) (model.CartItem, bool) {
	if i := c.index(itemID); i >= 0 {
		return c.items[i], true
	}
	return model.CartItem{}, false
}

func total(items []model.CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Subtotal()
	}
	return sum
}
