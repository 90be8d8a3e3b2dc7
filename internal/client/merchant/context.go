// Package merchant tracks which merchants the signed-in user manages and
// which one they are currently working in.
package merchant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/client/api"
	"github.com/atinyakov/GophMall/internal/client/kv"
)

// SelectedKey holds the selected merchant id as a plain string.
const SelectedKey = "CURRENT_MERCHANT_ID"

// Backend is the part of the API the context calls.
type Backend interface {
	UserMerchants(ctx context.Context) (*api.Response, error)
}

// Merchant is one managed merchant. Raw is the object as the backend sent
// it.
type Merchant struct {
	ID   string
	Name string
	Raw  json.RawMessage
}

// Context is the merchant context state container.
type Context struct {
	backend    Backend
	store      kv.Store
	logger     *zap.Logger
	convention api.Convention

	mu          sync.Mutex
	merchants   []Merchant
	selectedID  string
	loading     bool
	initialized bool
	// generation is bumped by Clear; a load started before it is dropped.
	generation uint64
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the context logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConvention selects how the merchant list response is judged
// successful. The default is api.CodeConvention.
func WithConvention(conv api.Convention) Option {
	return func(c *Context) {
		if conv != nil {
			c.convention = conv
		}
	}
}

// New returns an empty, uninitialized context.
func New(backend Backend, store kv.Store, opts ...Option) *Context {
	c := &Context{backend: backend, store: store, logger: zap.NewNop(), convention: api.CodeConvention{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hydrate restores the persisted selection. The merchant list itself is
// never persisted.
func (c *Context) Hydrate(ctx context.Context) error {
	raw, err := c.store.Get(ctx, SelectedKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("load merchant selection: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = string(raw)
	return nil
}

// LoadManagedMerchants fetches the user's merchants and repairs the
// selection: a selection missing from the new list falls back to the first
// merchant, an empty list clears it.
//
// While a load is in flight further calls return nil, nil at once. A failed
// fetch is logged and treated as an empty list; only a failure to persist
// the selection is returned. A load overtaken by Clear changes nothing and
// returns nil, nil.
func (c *Context) LoadManagedMerchants(ctx context.Context) ([]Merchant, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, nil
	}
	c.loading = true
	gen := c.generation
	c.mu.Unlock()

	merchants, fetchErr := c.fetch(ctx)
	if fetchErr != nil {
		c.logger.Error("failed to load managed merchants", zap.Error(fetchErr))
		merchants = []Merchant{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.loading = false }()

	if gen != c.generation {
		c.logger.Info("discarding merchant list loaded before clear")
		return nil, nil
	}
	c.merchants = merchants
	c.initialized = true

	next := c.selectedID
	switch {
	case len(merchants) == 0:
		next = ""
	case indexOf(merchants, next) < 0:
		next = merchants[0].ID
	}
	if err := c.selectLocked(ctx, next); err != nil {
		return cloneAll(merchants), err
	}
	return cloneAll(merchants), nil
}

// SetSelectedMerchant switches the working merchant. Selecting the current
// one writes nothing; an empty id clears the selection.
func (c *Context) SetSelectedMerchant(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(ctx, id)
}

// Clear forgets the merchants and the selection, removing the persisted
// selection and scope.
func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.merchants = nil
	c.selectedID = ""
	c.initialized = false
	c.generation++
	c.mu.Unlock()

	err := errors.Join(
		c.store.Remove(ctx, SelectedKey),
		c.store.Remove(ctx, ScopeKey),
	)
	if err != nil {
		return fmt.Errorf("clear merchant context: %w", err)
	}
	return nil
}

// Merchants returns a copy of the managed merchants.
func (c *Context) Merchants() []Merchant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.merchants)
}

// SelectedID returns the selected merchant id, or "".
func (c *Context) SelectedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedID
}

// SelectedMerchant returns the selected merchant when it is in the loaded
// list.
func (c *Context) SelectedMerchant() (Merchant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedID == "" {
		return Merchant{}, false
	}
	idx := indexOf(c.merchants, c.selectedID)
	if idx < 0 {
		return Merchant{}, false
	}
	return c.merchants[idx].clone(), true
}

// HasManagedMerchants reports a non-empty merchant list.
func (c *Context) HasManagedMerchants() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.merchants) > 0
}

// Initialized reports whether a load has finished since the last Clear.
func (c *Context) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Loading reports a load in flight.
func (c *Context) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Context) selectLocked(ctx context.Context, id string) error {
	if id == c.selectedID {
		return nil
	}
	c.selectedID = id

	if id == "" {
		if err := c.store.Remove(ctx, SelectedKey); err != nil {
			return fmt.Errorf("clear merchant selection: %w", err)
		}
		c.logger.Info("merchant context cleared")
		return nil
	}
	if err := c.store.Set(ctx, SelectedKey, []byte(id)); err != nil {
		return fmt.Errorf("save merchant selection: %w", err)
	}
	c.logger.Info("merchant context switched", zap.String("merchant_id", id))
	return nil
}

func (c *Context) fetch(ctx context.Context) ([]Merchant, error) {
	resp, err := c.backend.UserMerchants(ctx)
	if err != nil {
		return nil, err
	}

	list := resp.JSON()
	switch {
	case list.IsArray():
		// bare array bodies carry no envelope to judge
		if !resp.OK() {
			return nil, api.Reject(resp, nil, "failed to load merchants")
		}
	case c.convention.Succeeded(resp):
		list = c.convention.Payload(resp)
		if !list.IsArray() {
			return nil, api.Reject(resp, nil, "unexpected merchant list")
		}
	default:
		return nil, api.Reject(resp, nil, "failed to load merchants")
	}

	merchants := make([]Merchant, 0, len(list.Array()))
	for _, m := range list.Array() {
		id := m.Get("id").String()
		if id == "" {
			continue
		}
		merchants = append(merchants, Merchant{
			ID:   id,
			Name: m.Get("name").String(),
			Raw:  json.RawMessage(m.Raw),
		})
	}
	return merchants, nil
}

func (m Merchant) clone() Merchant {
	m.Raw = append(json.RawMessage(nil), m.Raw...)
	return m
}

func cloneAll(ms []Merchant) []Merchant {
	if ms == nil {
		return nil
	}
	out := make([]Merchant, len(ms))
	for i, m := range ms {
		out[i] = m.clone()
	}
	return out
}

func indexOf(ms []Merchant, id string) int {
	if id == "" {
		return -1
	}
	for i, m := range ms {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Field returns a field of the raw merchant object.
func (m Merchant) Field(path string) gjson.Result {
	return gjson.GetBytes(m.Raw, path)
}
