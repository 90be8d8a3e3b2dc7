package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON decodes the value stored under key into v. A value that does not
// decode is reported as a storage failure.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return storageErr("get", key, fmt.Errorf("decode: %w", err))
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return storageErr("set", key, fmt.Errorf("encode: %w", err))
	}
	return s.Set(ctx, key, raw)
}
