package merchant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/client/kv"
)

// ScopeKey holds the workspace scope.
const ScopeKey = "CURRENT_CONTEXT_SCOPE"

// Scope is the workspace a user who runs both a mall and merchants is
// operating in.
type Scope string

const (
	ScopeNone     Scope = ""
	ScopeMall     Scope = "mall"
	ScopeMerchant Scope = "merchant"
)

// ParseScope accepts "mall" and "merchant".
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeMall, ScopeMerchant:
		return Scope(s), nil
	default:
		return ScopeNone, fmt.Errorf("unknown scope %q", s)
	}
}

// Scope returns the persisted workspace scope, or ScopeNone. An unknown
// persisted value reads as ScopeNone.
func (c *Context) Scope(ctx context.Context) (Scope, error) {
	raw, err := c.store.Get(ctx, ScopeKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ScopeNone, nil
		}
		return ScopeNone, fmt.Errorf("load scope: %w", err)
	}
	s, err := ParseScope(string(raw))
	if err != nil {
		c.logger.Warn("ignoring persisted scope", zap.String("scope", string(raw)))
		return ScopeNone, nil
	}
	return s, nil
}

// SetScope persists s. ScopeNone removes the persisted value.
func (c *Context) SetScope(ctx context.Context, s Scope) error {
	if s == ScopeNone {
		if err := c.store.Remove(ctx, ScopeKey); err != nil {
			return fmt.Errorf("clear scope: %w", err)
		}
		return nil
	}
	if _, err := ParseScope(string(s)); err != nil {
		return err
	}
	if err := c.store.Set(ctx, ScopeKey, []byte(s)); err != nil {
		return fmt.Errorf("save scope: %w", err)
	}
	return nil
}
