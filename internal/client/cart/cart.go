// Package cart is the shopping cart state container. Every mutation is
// written through to the local store before the call returns; totals are
// computed on read.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/client/kv"
)

// StorageKey holds the cart as a JSON array of items.
const StorageKey = "MY_SWEET_CART"

// User-facing notices.
const (
	MsgInvalidProduct = "invalid product information"
	MsgAdded          = "added to cart"
	MsgOutOfStock     = "out of stock"
)

// ErrInvalidProduct is returned by AddItem for a product without an id.
var ErrInvalidProduct = errors.New("cart: product has no id")

// Level tells the UI how to present a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notifier shows transient notices to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

type notice struct {
	level   Level
	message string
}

// Cart is the cart state container.
type Cart struct {
	store    kv.Store
	notifier Notifier
	logger   *zap.Logger

	mu    sync.Mutex
	items []Item
}

// Option configures a Cart.
type Option func(*Cart)

// WithNotifier sets where notices go. Without one they are dropped.
func WithNotifier(n Notifier) Option {
	return func(c *Cart) { c.notifier = n }
}

// WithLogger sets the cart logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cart) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an empty cart backed by store. Call Hydrate to load the
// persisted one.
func New(store kv.Store, opts ...Option) *Cart {
	c := &Cart{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hydrate replaces the in-memory cart with the persisted one. A missing or
// unreadable value yields an empty cart; only a storage failure is
// returned.
func (c *Cart) Hydrate(ctx context.Context) error {
	raw, err := c.store.Get(ctx, StorageKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil

	switch {
	case errors.Is(err, kv.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("load cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn("discarding malformed persisted cart", zap.Error(err))
		return nil
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ProductID == "" || seen[it.ProductID] {
			continue
		}
		if it.Stock != nil && *it.Stock < 1 {
			c.logger.Info("dropping sold out item", zap.String("product_id", it.ProductID))
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if it.Stock != nil && it.Quantity > *it.Stock {
			it.Quantity = *it.Stock
		}
		seen[it.ProductID] = true
		c.items = append(c.items, it)
	}
	c.logger.Debug("cart loaded", zap.Int("items", len(c.items)))
	return nil
}

// AddItem puts quantity units of p into the cart. A quantity below 1 means
// 1. If p is already in the cart its quantity grows. Either way the result
// is clamped to p.Stock when known, with a notice rather than an error.
func (c *Cart) AddItem(ctx context.Context, p Product, quantity int) error {
	if p.ProductID == "" {
		c.logger.Error("product without id added to cart", zap.String("name", p.Name))
		c.notify(notice{LevelError, MsgInvalidProduct})
		return ErrInvalidProduct
	}
	if quantity < 1 {
		quantity = 1
	}

	var notices []notice
	c.mu.Lock()
	idx := c.indexOf(p.ProductID)

	want := quantity
	if idx >= 0 {
		want += c.items[idx].Quantity
	}
	if p.Stock != nil && want > *p.Stock {
		want = *p.Stock
		notices = append(notices, notice{LevelInfo, stockNotice(*p.Stock)})
	}

	switch {
	case want < 1 && idx < 0:
		c.mu.Unlock()
		c.notify(notice{LevelInfo, MsgOutOfStock})
		return nil
	case want < 1:
		c.items = append(c.items[:idx], c.items[idx+1:]...)
		notices = append(notices, notice{LevelInfo, MsgOutOfStock})
	case idx >= 0:
		c.items[idx].Quantity = want
		if p.Stock != nil {
			c.items[idx].Stock = copyInt(p.Stock)
		}
	default:
		c.items = append(c.items, newItem(p, want))
	}

	err := c.saveLocked(ctx)
	c.mu.Unlock()

	if err == nil && want > 0 {
		notices = append(notices, notice{LevelSuccess, MsgAdded})
	}
	c.notify(notices...)
	return err
}

// RemoveItem drops the line for productID. Unknown ids change nothing.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(productID)
	if idx < 0 {
		return nil
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return c.saveLocked(ctx)
}

// UpdateItemQuantity sets the quantity of productID. Zero or less removes
// the line; more than the known stock is clamped with a notice.
func (c *Cart) UpdateItemQuantity(ctx context.Context, productID string, quantity int) error {
	var notices []notice
	c.mu.Lock()

	idx := c.indexOf(productID)
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}

	item := &c.items[idx]
	if item.Stock != nil && quantity > *item.Stock {
		quantity = *item.Stock
		notices = append(notices, notice{LevelInfo, fmt.Sprintf("only %d in stock", *item.Stock)})
	}
	if quantity <= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	} else {
		item.Quantity = quantity
	}

	err := c.saveLocked(ctx)
	c.mu.Unlock()

	c.notify(notices...)
	return err
}

// ToggleItemSelected flips the selection of productID.
func (c *Cart) ToggleItemSelected(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(productID)
	if idx < 0 {
		return nil
	}
	c.items[idx].Selected = !c.items[idx].Selected
	return c.saveLocked(ctx)
}

// SetAllSelected selects or deselects every line.
func (c *Cart) SetAllSelected(ctx context.Context, selected bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		c.items[i].Selected = selected
	}
	return c.saveLocked(ctx)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	return c.saveLocked(ctx)
}

// Items returns a copy of all lines in the order they were added.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter(func(Item) bool { return true })
}

// SelectedItems returns a copy of the selected lines.
func (c *Cart) SelectedItems() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter(func(it Item) bool { return it.Selected })
}

// Item returns the line for productID.
func (c *Cart) Item(productID string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(productID)
	if idx < 0 {
		return Item{}, false
	}
	return c.items[idx].clone(), true
}

// ItemCount sums the quantity of selected lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, it := range c.items {
		if it.Selected {
			n += it.Quantity
		}
	}
	return n
}

// TotalPrice sums price × quantity over selected lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, it := range c.items {
		if it.Selected {
			total = total.Add(it.Subtotal())
		}
	}
	return total
}

// AllSelected reports a non-empty cart with every line selected.
func (c *Cart) AllSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return false
	}
	for _, it := range c.items {
		if !it.Selected {
			return false
		}
	}
	return true
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) filter(keep func(Item) bool) []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if keep(it) {
			out = append(out, it.clone())
		}
	}
	return out
}

// saveLocked writes the whole cart. The in-memory change stands even if
// the write fails.
func (c *Cart) saveLocked(ctx context.Context) error {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	if err := kv.SetJSON(ctx, c.store, StorageKey, items); err != nil {
		c.logger.Error("failed to persist cart", zap.Error(err))
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (c *Cart) notify(notices ...notice) {
	if c.notifier == nil {
		return
	}
	for _, n := range notices {
		c.notifier.Notify(n.level, n.message)
	}
}

func stockNotice(stock int) string {
	return fmt.Sprintf("not enough stock (at most %d)", stock)
}
